package checker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
)

type fakeSession struct {
	statuses     map[int]domain.TicketStatus
	navigateErr  error
	proceedErr   error
	monthErr     error
	injected     string
	targetMonth  domain.YearMonth
	closed       int
	scrapeCalled bool
}

func (f *fakeSession) NavigateToPurchasePage(context.Context) error { return f.navigateErr }
func (f *fakeSession) AcceptCookies(context.Context)                {}
func (f *fakeSession) CurrentPageURL(context.Context) (string, error) {
	return "https://tickets.example.com/step0", nil
}
func (f *fakeSession) InjectChallengeToken(_ context.Context, token string) { f.injected = token }
func (f *fakeSession) ProceedToCalendar(context.Context) error             { return f.proceedErr }
func (f *fakeSession) NavigateToMonth(_ context.Context, target domain.YearMonth) error {
	f.targetMonth = target
	return f.monthErr
}
func (f *fakeSession) CheckDateAvailability(ctx context.Context, date time.Time) domain.DateAvailability {
	return f.CheckDatesAvailability(ctx, []time.Time{date})[0]
}
func (f *fakeSession) CheckDatesAvailability(_ context.Context, dates []time.Time) []domain.DateAvailability {
	f.scrapeCalled = true
	results := make([]domain.DateAvailability, 0, len(dates))
	for _, d := range dates {
		status, ok := f.statuses[d.Day()]
		if !ok {
			status = domain.StatusNotAvailable
		}
		results = append(results, domain.DateAvailability{Date: d, Status: status, HasLink: status.Notifiable()})
	}
	return results
}
func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

type fakeBrowser struct {
	session *fakeSession
	err     error
}

func (f *fakeBrowser) Open(context.Context) (domain.SiteSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeSolver struct {
	err      error
	siteKey  string
	pageURL  string
	reported []string
}

func (f *fakeSolver) Solve(_ context.Context, siteKey, pageURL string) (domain.CaptchaSolution, error) {
	f.siteKey, f.pageURL = siteKey, pageURL
	if f.err != nil {
		return domain.CaptchaSolution{}, f.err
	}
	return domain.CaptchaSolution{TaskID: "task-1", Token: "token-abc"}, nil
}

func (f *fakeSolver) ReportBad(_ context.Context, taskID string) {
	f.reported = append(f.reported, taskID)
}

type fakeNotifier struct {
	err        error
	alerts     [][]domain.DateAvailability
	ticketType string
	connected  bool
}

func (f *fakeNotifier) SendAvailabilityAlert(_ context.Context, available []domain.DateAvailability, ticketType string) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, available)
	f.ticketType = ticketType
	return nil
}

func (f *fakeNotifier) SendErrorAlert(context.Context, string) error { return nil }
func (f *fakeNotifier) TestConnection(context.Context) bool          { return f.connected }

func feb(d int) time.Time {
	return time.Date(2026, time.February, d, 0, 0, 0, 0, time.UTC)
}

func testSettings() domain.Settings {
	return domain.Settings{
		CaptchaAPIKey:    "key",
		TelegramBotToken: "token",
		TelegramChatID:   "42",
		TargetDates:      []time.Time{feb(17), feb(18), feb(20)},
		TicketType:       "GENERAL",
		RecaptchaSiteKey: "site-key",
	}
}

type fixture struct {
	session  *fakeSession
	browser  *fakeBrowser
	solver   *fakeSolver
	notifier *fakeNotifier
	checker  *Checker
}

func newFixture(statuses map[int]domain.TicketStatus) *fixture {
	f := &fixture{
		session:  &fakeSession{statuses: statuses},
		solver:   &fakeSolver{},
		notifier: &fakeNotifier{},
	}
	f.browser = &fakeBrowser{session: f.session}
	f.checker = NewChecker(zerolog.Nop(), testSettings(), f.browser, f.solver, f.notifier)
	return f
}

func assertFailedShape(t *testing.T, res domain.CheckResult) {
	t.Helper()
	if len(res.Results) != 0 || len(res.AvailableDates) != 0 {
		t.Errorf("Expected no results on failure, got %v / %v", res.Results, res.AvailableDates)
	}
	if res.NotificationSent {
		t.Error("Expected notification not sent on failure")
	}
	if res.IsAvailable() {
		t.Error("Expected failed result not to be available")
	}
}

func TestCheckAvailability_EndToEnd(t *testing.T) {
	f := newFixture(map[int]domain.TicketStatus{
		17: domain.StatusAvailable,
		18: domain.StatusNotAvailable,
		20: domain.StatusLastTickets,
	})

	res := f.checker.CheckAvailability(context.Background(), false)

	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if len(res.Results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(res.Results))
	}
	if len(res.AvailableDates) != 2 {
		t.Fatalf("Expected 2 available dates, got %d", len(res.AvailableDates))
	}
	if !res.NotificationSent {
		t.Error("Expected notification sent")
	}
	if !res.IsAvailable() {
		t.Error("Expected result to be available")
	}

	if len(f.notifier.alerts) != 1 {
		t.Fatalf("Expected one consolidated alert, got %d", len(f.notifier.alerts))
	}
	alert := f.notifier.alerts[0]
	if len(alert) != 2 || alert[0].Date.Day() != 17 || alert[1].Date.Day() != 20 {
		t.Errorf("Expected alert for the 17th and 20th, got %v", alert)
	}
	if f.notifier.ticketType != "GENERAL" {
		t.Errorf("Expected ticket type GENERAL, got %q", f.notifier.ticketType)
	}

	if f.session.injected != "token-abc" {
		t.Errorf("Expected token to be injected, got %q", f.session.injected)
	}
	if f.session.targetMonth != (domain.YearMonth{Year: 2026, Month: time.February}) {
		t.Errorf("unexpected target month %s", f.session.targetMonth)
	}
	if f.solver.siteKey != "site-key" || f.solver.pageURL != "https://tickets.example.com/step0" {
		t.Errorf("unexpected solve args %q %q", f.solver.siteKey, f.solver.pageURL)
	}
	if f.session.closed != 1 {
		t.Errorf("Expected session closed once, got %d", f.session.closed)
	}
}

func TestCheckAvailability_DryRun(t *testing.T) {
	f := newFixture(map[int]domain.TicketStatus{17: domain.StatusAvailable})

	res := f.checker.CheckAvailability(context.Background(), true)

	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !res.IsAvailable() {
		t.Error("Expected availability to be reported in dry run")
	}
	if res.NotificationSent {
		t.Error("Expected no notification in dry run")
	}
	if !res.DryRun {
		t.Error("Expected result to be marked as dry run")
	}
	if len(f.notifier.alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(f.notifier.alerts))
	}
}

func TestCheckAvailability_NothingAvailable(t *testing.T) {
	f := newFixture(nil)

	res := f.checker.CheckAvailability(context.Background(), false)

	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.IsAvailable() || res.NotificationSent {
		t.Error("Expected nothing available and no notification")
	}
	if len(f.notifier.alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(f.notifier.alerts))
	}
}

func TestCheckAvailability_Failures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture)
		want   string
		opened bool
	}{
		{
			name:   "captcha error",
			setup:  func(f *fixture) { f.solver.err = &domain.CaptchaError{Reason: "timed out after 180s"} },
			want:   "Captcha error: timed out after 180s",
			opened: true,
		},
		{
			name: "notification error",
			setup: func(f *fixture) {
				f.session.statuses = map[int]domain.TicketStatus{17: domain.StatusAvailable}
				f.notifier.err = &domain.NotificationError{Description: "Telegram API error: chat not found"}
			},
			want:   "Notification error: Telegram API error: chat not found",
			opened: true,
		},
		{
			name:   "navigation exhausted",
			setup:  func(f *fixture) { f.session.monthErr = &domain.AutomationError{Op: "navigation exhausted: could not reach 2026-02"} },
			want:   "navigation exhausted: could not reach 2026-02",
			opened: true,
		},
		{
			name:   "page load",
			setup:  func(f *fixture) { f.session.navigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED") },
			want:   "net::ERR_NAME_NOT_RESOLVED",
			opened: true,
		},
		{
			name:   "browser launch",
			setup:  func(f *fixture) { f.browser.err = errors.New("launch browser: no chrome") },
			want:   "launch browser: no chrome",
			opened: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			tt.setup(f)

			res := f.checker.CheckAvailability(context.Background(), false)

			if res.Error != tt.want {
				t.Errorf("Expected error %q, got %q", tt.want, res.Error)
			}
			assertFailedShape(t, res)

			wantClosed := 0
			if tt.opened {
				wantClosed = 1
			}
			if f.session.closed != wantClosed {
				t.Errorf("Expected session closed %d times, got %d", wantClosed, f.session.closed)
			}
		})
	}
}

func TestCheckAvailability_ReportsRejectedToken(t *testing.T) {
	f := newFixture(nil)
	f.session.proceedErr = &domain.AutomationError{Op: "proceed to calendar", Err: fmt.Errorf("%w within 15s", domain.ErrCalendarNotLoaded)}

	res := f.checker.CheckAvailability(context.Background(), false)

	if !strings.Contains(res.Error, "calendar did not load") {
		t.Errorf("unexpected error %q", res.Error)
	}
	if len(f.solver.reported) != 1 || f.solver.reported[0] != "task-1" {
		t.Errorf("Expected task-1 to be reported, got %v", f.solver.reported)
	}
	if f.session.scrapeCalled {
		t.Error("Expected no scrape after calendar failure")
	}
}

func TestCheckAvailability_NoReportBeforeTokenSubmitted(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "proceed control missing", err: &domain.AutomationError{Op: "find proceed control", Err: errors.New("element not found")}},
		{name: "click failed", err: &domain.AutomationError{Op: "click proceed control", Err: errors.New("element not interactable")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			f.session.proceedErr = tt.err

			res := f.checker.CheckAvailability(context.Background(), false)

			if res.Error == "" {
				t.Fatal("Expected the check to fail")
			}
			if len(f.solver.reported) != 0 {
				t.Errorf("Expected no bad token report, got %v", f.solver.reported)
			}
		})
	}
}

func TestTestNotifier(t *testing.T) {
	f := newFixture(nil)
	f.notifier.connected = true

	if !f.checker.TestNotifier(context.Background()) {
		t.Error("Expected notifier test to succeed")
	}
}
