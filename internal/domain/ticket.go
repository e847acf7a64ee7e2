package domain

import (
	"fmt"
	"time"
)

// DateLayout is the format used for target dates in config, logs and alerts.
const DateLayout = "2006-01-02"

// TicketStatus is the result of inspecting one calendar date
type TicketStatus string

const (
	StatusAvailable    TicketStatus = "available"
	StatusNotAvailable TicketStatus = "not_available"
	StatusLastTickets  TicketStatus = "last_tickets"
	StatusUnknown      TicketStatus = "unknown"
)

// Notifiable reports whether tickets can be bought for a date with this status
func (s TicketStatus) Notifiable() bool {
	return s == StatusAvailable || s == StatusLastTickets
}

// Label is the human readable status used in alerts
func (s TicketStatus) Label() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusLastTickets:
		return "Last Tickets!"
	case StatusNotAvailable:
		return "Not Available"
	default:
		return "Unknown"
	}
}

// DateAvailability is the scrape result for one date
type DateAvailability struct {
	Date    time.Time
	Status  TicketStatus
	HasLink bool
}

func (d DateAvailability) String() string {
	return fmt.Sprintf("%s=%s", d.Date.Format(DateLayout), d.Status)
}

// YearMonth identifies one page of the site calendar
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// CheckResult is the outcome of one availability check.
//
// When Error is set, Results and AvailableDates are empty and
// NotificationSent is false. Use NewCheckResult and NewFailedResult to build
// values that keep this shape.
type CheckResult struct {
	Dates            []time.Time
	Results          []DateAvailability
	AvailableDates   []DateAvailability
	NotificationSent bool
	Error            string
	DryRun           bool
	CheckedAt        time.Time
}

// NewCheckResult builds a successful result, deriving AvailableDates from results
func NewCheckResult(dates []time.Time, results []DateAvailability, notificationSent bool) CheckResult {
	return CheckResult{
		Dates:            dates,
		Results:          results,
		AvailableDates:   FilterAvailable(results),
		NotificationSent: notificationSent,
		CheckedAt:        time.Now(),
	}
}

// NewFailedResult builds a result for a check aborted by an error
func NewFailedResult(dates []time.Time, msg string) CheckResult {
	return CheckResult{
		Dates:          dates,
		Results:        []DateAvailability{},
		AvailableDates: []DateAvailability{},
		Error:          msg,
		CheckedAt:      time.Now(),
	}
}

// IsAvailable is true when at least one target date can be bought
func (r CheckResult) IsAvailable() bool {
	return len(r.AvailableDates) > 0
}

// Failed is true when the check aborted before scraping
func (r CheckResult) Failed() bool {
	return r.Error != ""
}

// FilterAvailable keeps the results whose status is notify-worthy, preserving order
func FilterAvailable(results []DateAvailability) []DateAvailability {
	available := make([]DateAvailability, 0, len(results))
	for _, r := range results {
		if r.Status.Notifiable() {
			available = append(available, r)
		}
	}
	return available
}
