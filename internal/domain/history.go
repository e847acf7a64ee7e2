package domain

import (
	"context"
	"time"
)

// HistoryRepo stores the outcome of every check
type HistoryRepo interface {
	Store(ctx context.Context, result CheckResult) error
	List(ctx context.Context, limit int) ([]*HistoryEntry, error)
}

// HistoryEntry represents one recorded check
type HistoryEntry struct {
	ID               int64
	CheckedAt        time.Time
	Dates            []string
	AvailableDates   []string
	NotificationSent bool
	DryRun           bool
	Error            string
}
