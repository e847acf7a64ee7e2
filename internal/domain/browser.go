package domain

import (
	"context"
	"time"
)

// Browser opens one scoped session against the target site
type Browser interface {
	Open(ctx context.Context) (SiteSession, error)
}

// SiteSession drives one purchase-flow session. Close must be called on every path.
type SiteSession interface {
	NavigateToPurchasePage(ctx context.Context) error
	AcceptCookies(ctx context.Context)
	CurrentPageURL(ctx context.Context) (string, error)
	InjectChallengeToken(ctx context.Context, token string)
	ProceedToCalendar(ctx context.Context) error
	NavigateToMonth(ctx context.Context, target YearMonth) error
	CheckDateAvailability(ctx context.Context, date time.Time) DateAvailability
	CheckDatesAvailability(ctx context.Context, dates []time.Time) []DateAvailability
	Close() error
}
