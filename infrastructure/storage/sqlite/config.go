// Package sqlite persists audit entries in a SQLite file.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrConnectionFailed = errors.New("sqlite: connection failed")
	ErrMigrationFailed  = errors.New("sqlite: migration failed")
)

// Config locates and tunes an audit database.
type Config struct {
	// Path is the database file; it is created when missing.
	Path string
	// WAL switches the journal to write-ahead logging.
	WAL bool
	// BusyTimeout is how long a writer waits for a locked database.
	BusyTimeout time.Duration
}

// DefaultConfig returns the settings OpenAuditStore uses for path.
func DefaultConfig(path string) Config {
	return Config{Path: path, WAL: true, BusyTimeout: 5 * time.Second}
}

func (c Config) dsn() string {
	return "file:" + c.Path + "?mode=rwc"
}

// openDB opens a single-connection handle so writes from concurrent hooks
// serialize instead of failing with SQLITE_BUSY.
func openDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds())}
	if cfg.WAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errors.Join(ErrConnectionFailed, err)
		}
	}
	return db, nil
}
