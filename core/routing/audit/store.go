// Package audit persists the append-only trail of delay records written when
// routing falls back to another vendor or escalates an order.
package audit

import (
	"context"
	"time"

	"github.com/kilianp07/o2v/core/model"
)

// DelayQuery filters delay records.
type DelayQuery struct {
	OrderID      string
	Type         model.DelayType
	CriticalOnly bool
	Start        time.Time
	End          time.Time
}

// Matches reports whether the record satisfies the query.
func (q DelayQuery) Matches(r model.DelayRecord) bool {
	if q.OrderID != "" && r.OrderID != q.OrderID {
		return false
	}
	if q.Type != "" && r.Type != q.Type {
		return false
	}
	if q.CriticalOnly && !r.IsCritical {
		return false
	}
	if !q.Start.IsZero() && r.CreatedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.CreatedAt.After(q.End) {
		return false
	}
	return true
}

// DelayLog stores delay records. Records are append-only and never updated.
type DelayLog interface {
	Append(ctx context.Context, rec model.DelayRecord) error
	Query(ctx context.Context, q DelayQuery) ([]model.DelayRecord, error)
	Close() error
}
