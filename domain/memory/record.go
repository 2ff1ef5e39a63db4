// Package memory provides the bounded reflection log consulted by future observations.
package memory

import "time"

// DefaultCapacity is the number of records retained before the oldest are evicted.
const DefaultCapacity = 100

// Record is one entry produced by the learn phase.
type Record struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Phase     string         `json:"phase"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
