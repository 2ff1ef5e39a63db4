package memory

// Store is an append-only ring of records capped at a fixed capacity.
// Appending past capacity evicts the oldest record.
//
// A Store belongs to a single run and is not safe for concurrent use.
type Store struct {
	buf   []Record
	head  int // index of the oldest record
	count int
}

// NewStore creates a store holding at most capacity records.
// A non-positive capacity falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{buf: make([]Record, capacity)}
}

// Append adds a record, evicting the oldest one when the store is full.
func (s *Store) Append(r Record) {
	if s.count < len(s.buf) {
		s.buf[(s.head+s.count)%len(s.buf)] = r
		s.count++
		return
	}
	s.buf[s.head] = r
	s.head = (s.head + 1) % len(s.buf)
}

// Recent returns up to k of the newest records, oldest first.
func (s *Store) Recent(k int) []Record {
	if k <= 0 || s.count == 0 {
		return []Record{}
	}
	if k > s.count {
		k = s.count
	}
	out := make([]Record, k)
	start := s.count - k
	for i := 0; i < k; i++ {
		out[i] = s.buf[(s.head+start+i)%len(s.buf)]
	}
	return out
}

// All returns every retained record, oldest first.
func (s *Store) All() []Record {
	return s.Recent(s.count)
}

// Len returns the number of retained records.
func (s *Store) Len() int {
	return s.count
}

// Cap returns the maximum number of retained records.
func (s *Store) Cap() int {
	return len(s.buf)
}
