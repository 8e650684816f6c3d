package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"paychart/internal/app"
	"paychart/internal/chart"
	"paychart/internal/session"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores sessions in a SQLite database. Sessions not
// written for longer than the TTL read as missing and are removed by
// CleanExpired.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	ttl     time.Duration
	now     func() time.Time
}

var _ session.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, ttl time.Duration) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite session store ready", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection, for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) cutoff() int64 {
	if r.ttl <= 0 {
		return 0
	}
	return r.now().Add(-r.ttl).UnixNano()
}

// Get implements session.Store.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (session.Session, error) {
	row, err := r.queries.GetSession(ctx, id, r.cutoff())
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}

	s := session.Session{
		ID: row.ID,
		State: app.State{
			Mode:   chart.Mode(row.Mode),
			Buffer: row.Buffer,
		},
		Note:      row.Note,
		FileInfo:  row.FileInfo,
		UpdatedAt: time.Unix(0, row.UpdatedAt).UTC(),
	}
	if row.OptionJSON.Valid {
		var opt chart.Option
		if err := json.Unmarshal([]byte(row.OptionJSON.String), &opt); err != nil {
			return session.Session{}, fmt.Errorf("decode stored chart: %w", err)
		}
		s.Option = &opt
	}
	return s, nil
}

// Save implements session.Store.
func (r *SQLiteRepository) Save(ctx context.Context, s session.Session) error {
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = r.now()
	}

	row := SessionRow{
		ID:        s.ID,
		Mode:      int64(s.State.Mode),
		Buffer:    s.State.Buffer,
		Note:      s.Note,
		FileInfo:  s.FileInfo,
		UpdatedAt: updated.UnixNano(),
	}
	if s.Option != nil {
		b, err := json.Marshal(s.Option)
		if err != nil {
			return fmt.Errorf("encode chart: %w", err)
		}
		row.OptionJSON = sql.NullString{String: string(b), Valid: true}
	}

	if err := r.queries.UpsertSession(ctx, row); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete implements session.Store.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if err := r.queries.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanExpired removes expired sessions. It satisfies cache.Cleaner so the
// cache manager can drive it.
func (r *SQLiteRepository) CleanExpired() int {
	if r.ttl <= 0 {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := r.queries.DeleteSessionsBefore(ctx, r.cutoff())
	if err != nil {
		slog.Error("Failed to delete expired sessions", "error", err)
		return 0
	}
	return int(n)
}
