package backend

import (
	"context"
	"time"

	"paychart/internal/app"
	"paychart/internal/cache"
	"paychart/internal/session"
	"paychart/internal/sheets"
)

// SessionBackend is a session store whose expired entries can be purged
// by the cache manager.
type SessionBackend interface {
	session.Store
	cache.Cleaner
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult bundles everything the server needs from the environment.
// Events and Importer are nil when the corresponding service is not
// configured.
type BackendResult struct {
	Sessions SessionBackend
	Events   app.EventSink
	Importer sheets.SalaryReader
	// Ready reports whether the session store can serve requests.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SessionTTL  time.Duration
	MaxSessions int

	// SQLite specific
	SQLiteDBPath string

	// Optional render events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Optional Google Sheets import
	GoogleSpreadsheetID      string
	GoogleSalaryRange        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType names a session store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
