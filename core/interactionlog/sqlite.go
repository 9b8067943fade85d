package interactionlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS interactions (
	id          TEXT PRIMARY KEY,
	user_email  TEXT NOT NULL,
	action_type TEXT NOT NULL,
	provider    TEXT NOT NULL,
	payload     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions (user_email, created_at);
`

type SQLiteRecorder struct {
	db *sql.DB
}

func NewSQLiteRecorder(db *sql.DB) (*SQLiteRecorder, error) {
	if db == nil {
		return nil, errors.New("interactionlog: nil db")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply interaction log schema: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	recorder, err := NewSQLiteRecorder(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return recorder, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func (r *SQLiteRecorder) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO interactions (id, user_email, action_type, provider, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserEmail, entry.ActionType, entry.Provider, entry.Payload,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns the caller's latest entries, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, userEmail string, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_email, action_type, provider, payload, created_at
		FROM interactions WHERE user_email = ?
		ORDER BY created_at DESC LIMIT ?`, userEmail, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.UserEmail, &entry.ActionType, &entry.Provider, &entry.Payload, &createdAt); err != nil {
			return nil, err
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
