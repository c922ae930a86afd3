package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/o2v/core/model"
)

// SQLiteStore persists delay records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS delay_records (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        order_id TEXT NOT NULL,
        delay_type TEXT NOT NULL,
        is_critical INTEGER NOT NULL,
        created_at INTEGER NOT NULL,
        record TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec model.DelayRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO delay_records (order_id, delay_type, is_critical, created_at, record) VALUES (?,?,?,?,?)`,
		rec.OrderID, string(rec.Type), boolToInt(rec.IsCritical), rec.CreatedAt.UnixNano(), string(b))
	return err
}

// Query returns records matching the filter, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, q DelayQuery) ([]model.DelayRecord, error) {
	query := `SELECT record FROM delay_records WHERE 1=1`
	var args []any
	if q.OrderID != "" {
		query += ` AND order_id=?`
		args = append(args, q.OrderID)
	}
	if q.Type != "" {
		query += ` AND delay_type=?`
		args = append(args, string(q.Type))
	}
	if q.CriticalOnly {
		query += ` AND is_critical=1`
	}
	if !q.Start.IsZero() {
		query += ` AND created_at>=?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND created_at<=?`
		args = append(args, q.End.UnixNano())
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.DelayRecord
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		var r model.DelayRecord
		if err := json.Unmarshal([]byte(record), &r); err != nil {
			continue
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
