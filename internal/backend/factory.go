package backend

import (
	"context"
	"fmt"
	"log/slog"

	"paychart/internal/amqp"
	"paychart/internal/session"
	gsheet "paychart/internal/sheets/google"
	"paychart/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend builds the session store and the optional event publisher
// and Sheets importer. Optional services that fail to start are logged and
// left out rather than failing start-up.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		res = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	cleanups := []CleanupFunc{res.Cleanup}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without render events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Events = client
			cleanups = append(cleanups, client.Close)
		}
	}

	if config.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSalaryRange, gsheet.Credentials{
			JSON: config.GoogleServiceAccountJSON,
			File: config.GoogleServiceAccountFile,
		})
		if err != nil {
			f.logger.Warn("Failed to initialize Google Sheets client, import disabled", "error", err)
		} else {
			f.logger.Info("Initialized Google Sheets import", "range", config.GoogleSalaryRange)
			res.Importer = client
		}
	}

	res.Cleanup = chain(cleanups)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite session backend",
		"db_path", config.SQLiteDBPath,
		"session_ttl", config.SessionTTL)

	return &BackendResult{
		Sessions: repo,
		Ready:    repo.Ping,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	store := session.NewMemoryStore(config.MaxSessions, config.SessionTTL)

	f.logger.Info("Initialized memory session backend",
		"max_sessions", config.MaxSessions,
		"session_ttl", config.SessionTTL)

	return &BackendResult{
		Sessions: store,
		Ready:    func(context.Context) error { return nil },
	}
}

// chain runs every non-nil cleanup in reverse order and returns the first
// error.
func chain(fns []CleanupFunc) CleanupFunc {
	return func() error {
		var first error
		for i := len(fns) - 1; i >= 0; i-- {
			if fns[i] == nil {
				continue
			}
			if err := fns[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
}
