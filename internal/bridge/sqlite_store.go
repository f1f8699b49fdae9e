package bridge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT    NOT NULL UNIQUE,
	received_at    INTEGER NOT NULL,
	event_type     TEXT    NOT NULL,
	component_type TEXT    NOT NULL,
	record         BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_component ON events(component_type, event_type);
`

// SQLiteStore archives records in a SQLite file and answers Recent from it.
// It keeps at most limit rows.
type SQLiteStore struct {
	db    *sql.DB
	limit int
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (creating if needed) the archive at path.
func OpenSQLiteStore(path string, limit int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", sqliteSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("prepare archive %s: %w", path, err)
		}
	}
	if limit <= 0 {
		limit = 1
	}
	return &SQLiteStore{db: db, limit: limit}, nil
}

// Append inserts r and trims the table to the newest limit rows.
func (s *SQLiteStore) Append(ctx context.Context, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", r.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (id, received_at, event_type, component_type, record) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ReceivedAt.UnixMilli(), r.Event.EventType, r.Event.ComponentType, data,
	); err != nil {
		return fmt.Errorf("insert record %s: %w", r.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM events WHERE seq <= (SELECT MAX(seq) FROM events) - ?`, s.limit,
	); err != nil {
		return fmt.Errorf("trim archive: %w", err)
	}
	return tx.Commit()
}

// Recent returns up to limit of the newest records, oldest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM (SELECT seq, record FROM events ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of archived rows.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
