package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCapacityHint preallocates room for n entries.
func WithCapacityHint(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.capacityHint = n
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*sqliteOptions)

type sqliteOptions struct {
	busyTimeout time.Duration
	journalMode string
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(o *sqliteOptions) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// WithJournalMode overrides the journal mode (WAL by default).
func WithJournalMode(mode string) SQLiteOption {
	return func(o *sqliteOptions) {
		if mode != "" {
			o.journalMode = mode
		}
	}
}
