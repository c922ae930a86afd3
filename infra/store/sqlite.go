// Package store provides routing.Store implementations: a SQLite-backed
// durable store and an in-memory store for tests and standalone runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/o2v/core/model"
	"github.com/kilianp07/o2v/core/routing"
)

// terminalColumns maps each terminal status to its own named timestamp
// column. Transitions to a status outside this table are rejected, so a typo
// can never fabricate a column name at runtime.
var terminalColumns = map[model.AssignmentStatus]string{
	model.StatusAccepted:   "accepted_at",
	model.StatusRejected:   "rejected_at",
	model.StatusExpired:    "expired_at",
	model.StatusCancelled:  "cancelled_at",
	model.StatusSuperseded: "superseded_at",
}

// SQLiteStore persists attempts and assignments to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS routing_attempts (
        id TEXT PRIMARY KEY,
        order_id TEXT NOT NULL,
        attempt_number INTEGER NOT NULL,
        selected_vendor_id TEXT NOT NULL,
        record TEXT NOT NULL,
        created_at INTEGER NOT NULL
    );
    CREATE TABLE IF NOT EXISTS assignments (
        id TEXT PRIMARY KEY,
        order_id TEXT NOT NULL,
        vendor_id TEXT NOT NULL,
        attempt_id TEXT NOT NULL,
        attempt_number INTEGER NOT NULL,
        status TEXT NOT NULL,
        notified_at INTEGER NOT NULL,
        response_deadline INTEGER NOT NULL,
        responded_at INTEGER,
        accepted_at INTEGER,
        rejected_at INTEGER,
        expired_at INTEGER,
        cancelled_at INTEGER,
        superseded_at INTEGER
    );
    CREATE INDEX IF NOT EXISTS idx_assignments_order ON assignments(order_id, status);
    CREATE INDEX IF NOT EXISTS idx_assignments_deadline ON assignments(status, response_deadline);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// CreateAttempt inserts the attempt and its pending assignment and supersedes
// any stale pending assignment for the order, all in one transaction.
func (s *SQLiteStore) CreateAttempt(ctx context.Context, attempt *model.RoutingAttempt, asg *model.Assignment) error {
	record, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE assignments SET status=?, superseded_at=? WHERE order_id=? AND status=?`,
		string(model.StatusSuperseded), attempt.CreatedAt.UnixNano(), asg.OrderID, string(model.StatusPending),
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO routing_attempts (id, order_id, attempt_number, selected_vendor_id, record, created_at)
         VALUES (?,?,?,?,?,?)`,
		attempt.ID.String(), attempt.OrderID, attempt.AttemptNumber, attempt.SelectedVendorID,
		string(record), attempt.CreatedAt.UnixNano(),
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO assignments (id, order_id, vendor_id, attempt_id, attempt_number, status, notified_at, response_deadline)
         VALUES (?,?,?,?,?,?,?,?)`,
		asg.ID.String(), asg.OrderID, asg.VendorID, asg.AttemptID.String(), asg.AttemptNumber,
		string(asg.Status), asg.NotifiedAt.UnixNano(), asg.ResponseDeadline.UnixNano(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Transition performs the conditional update out of PENDING and reports
// whether this caller won the row.
func (s *SQLiteStore) Transition(ctx context.Context, id uuid.UUID, to model.AssignmentStatus, at time.Time) (bool, error) {
	col, ok := terminalColumns[to]
	if !ok {
		return false, fmt.Errorf("store: no transition from PENDING to %s", to)
	}
	q := fmt.Sprintf(`UPDATE assignments SET status=?, %s=?`, col)
	args := []any{string(to), at.UnixNano()}
	if to == model.StatusAccepted || to == model.StatusRejected {
		q += `, responded_at=?`
		args = append(args, at.UnixNano())
	}
	q += ` WHERE id=? AND status=?`
	args = append(args, id.String(), string(model.StatusPending))

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

const assignmentColumns = `id, order_id, vendor_id, attempt_id, attempt_number, status, notified_at, response_deadline, responded_at`

func (s *SQLiteStore) Assignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id=?`, id.String())
	return scanAssignment(row)
}

func (s *SQLiteStore) Attempt(ctx context.Context, id uuid.UUID) (*model.RoutingAttempt, error) {
	var record string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM routing_attempts WHERE id=?`, id.String()).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, routing.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var att model.RoutingAttempt
	if err := json.Unmarshal([]byte(record), &att); err != nil {
		return nil, err
	}
	return &att, nil
}

func (s *SQLiteStore) PendingByOrder(ctx context.Context, orderID string) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE order_id=? AND status=?`,
		orderID, string(model.StatusPending))
	return scanAssignment(row)
}

func (s *SQLiteStore) PendingForVendor(ctx context.Context, orderID, vendorID string) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE order_id=? AND vendor_id=? AND status=?`,
		orderID, vendorID, string(model.StatusPending))
	return scanAssignment(row)
}

func (s *SQLiteStore) ExpiredPending(ctx context.Context, now time.Time) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE status=? AND response_deadline<=?`,
		string(model.StatusPending), now.UnixNano())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) TriedVendors(ctx context.Context, orderID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT vendor_id FROM assignments WHERE order_id=? AND status!=?`,
		orderID, string(model.StatusSuperseded))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*model.Assignment, error) {
	var (
		a                  model.Assignment
		id, attemptID      string
		status             string
		notified, deadline int64
		responded          sql.NullInt64
	)
	err := row.Scan(&id, &a.OrderID, &a.VendorID, &attemptID, &a.AttemptNumber, &status, &notified, &deadline, &responded)
	if err == sql.ErrNoRows {
		return nil, routing.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	a.AttemptID, err = uuid.Parse(attemptID)
	if err != nil {
		return nil, err
	}
	a.Status = model.AssignmentStatus(status)
	a.NotifiedAt = time.Unix(0, notified)
	a.ResponseDeadline = time.Unix(0, deadline)
	if responded.Valid {
		t := time.Unix(0, responded.Int64)
		a.RespondedAt = &t
	}
	return &a, nil
}
