package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"paychart/internal/app"
	"paychart/internal/chart"
	"paychart/internal/core"
	"paychart/internal/session"
)

func newTestRepo(t *testing.T, ttl time.Duration) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "paychart.db"), ttl)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v1 != 1 || v2 != 1 {
		t.Fatalf("unexpected versions %d, %d", v1, v2)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestRepo(t, time.Hour)
	ctx := context.Background()

	rec := core.Sample()
	opt := chart.Build(rec, core.Derive(rec), chart.Bonus)

	in := session.New()
	in.State = app.State{Mode: chart.Bonus, Buffer: rec.Format()}
	in.Option = &opt
	in.Note = rec.DisplayNote()
	in.FileInfo = "Using sample data"
	in.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.State != in.State || got.Note != in.Note || got.FileInfo != in.FileInfo {
		t.Fatalf("state mismatch: got %+v", got)
	}
	if !got.UpdatedAt.Equal(in.UpdatedAt) {
		t.Fatalf("updated_at %v, want %v", got.UpdatedAt, in.UpdatedAt)
	}
	if got.Option == nil || len(got.Option.Series) != 4 || got.Option.Title.Text != opt.Title.Text {
		t.Fatalf("option not restored: %+v", got.Option)
	}
}

func TestSessionWithoutChart(t *testing.T) {
	repo := newTestRepo(t, time.Hour)
	ctx := context.Background()

	s := session.New()
	s.State.Buffer = "{broken"
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Option != nil {
		t.Fatalf("expected no chart, got %+v", got.Option)
	}

	s.State.Mode = chart.Monthly
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = repo.Get(ctx, s.ID)
	if got.State.Mode != chart.Monthly {
		t.Fatalf("overwrite not applied: %+v", got.State)
	}

	if err := repo.Delete(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, s.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	repo := newTestRepo(t, time.Hour)
	ctx := context.Background()
	now := time.Now()
	repo.now = func() time.Time { return now }

	s := session.New()
	s.UpdatedAt = now
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := repo.Get(ctx, s.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected expired session to be missing, got %v", err)
	}
	if n := repo.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired removed %d, want 1", n)
	}
}
