package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// SessionRow mirrors one row of the sessions table.
type SessionRow struct {
	ID         string
	Mode       int64
	Buffer     string
	OptionJSON sql.NullString
	Note       string
	FileInfo   string
	UpdatedAt  int64
}

const getSession = `
SELECT id, mode, buffer, option_json, note, file_info, updated_at
FROM sessions
WHERE id = ? AND updated_at > ?
`

// GetSession returns the session unless it was last written at or before
// notBefore (unix nanoseconds).
func (q *Queries) GetSession(ctx context.Context, id string, notBefore int64) (SessionRow, error) {
	row := q.db.QueryRowContext(ctx, getSession, id, notBefore)
	var s SessionRow
	err := row.Scan(&s.ID, &s.Mode, &s.Buffer, &s.OptionJSON, &s.Note, &s.FileInfo, &s.UpdatedAt)
	return s, err
}

const upsertSession = `
INSERT INTO sessions (id, mode, buffer, option_json, note, file_info, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    mode        = excluded.mode,
    buffer      = excluded.buffer,
    option_json = excluded.option_json,
    note        = excluded.note,
    file_info   = excluded.file_info,
    updated_at  = excluded.updated_at
`

func (q *Queries) UpsertSession(ctx context.Context, s SessionRow) error {
	_, err := q.db.ExecContext(ctx, upsertSession,
		s.ID, s.Mode, s.Buffer, s.OptionJSON, s.Note, s.FileInfo, s.UpdatedAt)
	return err
}

const deleteSession = `DELETE FROM sessions WHERE id = ?`

func (q *Queries) DeleteSession(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, id)
	return err
}

const deleteSessionsBefore = `DELETE FROM sessions WHERE updated_at <= ?`

func (q *Queries) DeleteSessionsBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSessionsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
