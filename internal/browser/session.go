package browser

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
)

// Session drives one page through the purchase flow
type Session struct {
	log      zerolog.Logger
	settings domain.Settings
	profile  Profile
	reader   MonthReader

	launcher  *launcher.Launcher
	browser   *rod.Browser
	incognito *rod.Browser
	page      *rod.Page
	closed    bool
}

var _ domain.SiteSession = (*Session)(nil)

// timed returns the page bound to ctx with a deadline. Callers must CancelTimeout.
func (s *Session) timed(ctx context.Context, d time.Duration) *rod.Page {
	return s.page.Context(ctx).Timeout(d)
}

func (s *Session) NavigateToPurchasePage(ctx context.Context) error {
	s.log.Info().Msg("Navigating to purchase page")

	p := s.timed(ctx, s.settings.BrowserTimeout)
	defer p.CancelTimeout()

	wait := p.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := p.Navigate(s.settings.SiteURL); err != nil {
		return &domain.AutomationError{Op: "navigate to purchase page", Err: err}
	}
	wait()

	if s.hasElement(ctx, s.profile.ProceedSelector, s.profile.Waits.Proceed) {
		return nil
	}

	// a bot check may still be running in front of the form
	s.log.Debug().Msg("Proceed control not found yet, waiting for network to go idle")
	if err := waitNetworkIdle(p, networkQuiet); err != nil {
		return &domain.AutomationError{Op: "wait for purchase page", Err: err}
	}

	return nil
}

// networkQuiet is how long no request may be in flight for the network to count as idle
const networkQuiet = 500 * time.Millisecond

type requestIdler interface {
	WaitRequestIdle(d time.Duration, includes, excludes []string, excludeTypes []proto.NetworkResourceType) func()
	GetContext() context.Context
}

// waitNetworkIdle blocks until no request has been pending for quiet, or the page deadline passes
func waitNetworkIdle(p requestIdler, quiet time.Duration) error {
	p.WaitRequestIdle(quiet, nil, nil, nil)()
	return p.GetContext().Err()
}

func (s *Session) hasElement(ctx context.Context, selector string, d time.Duration) bool {
	p := s.timed(ctx, d)
	defer p.CancelTimeout()

	_, err := p.Element(selector)
	return err == nil
}

func (s *Session) AcceptCookies(ctx context.Context) {
	p := s.timed(ctx, s.profile.Waits.Cookie)
	defer p.CancelTimeout()

	el, err := p.ElementR(s.profile.CookieSelector, regexp.QuoteMeta(s.profile.CookieText))
	if err != nil {
		s.log.Debug().Msg("No cookie consent dialog found")
		return
	}

	if visible, err := el.Visible(); err != nil || !visible {
		s.log.Debug().Msg("Cookie consent dialog not visible")
		return
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		s.log.Debug().Err(err).Msg("Could not click cookie consent")
		return
	}

	s.log.Info().Msg("Cookies accepted")
}

func (s *Session) CurrentPageURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", &domain.AutomationError{Op: "read page url", Err: err}
	}
	return info.URL, nil
}

// InjectChallengeToken runs every injection step. A failing step is logged and skipped.
func (s *Session) InjectChallengeToken(ctx context.Context, token string) {
	s.log.Info().Msg("Injecting captcha token")

	p := s.timed(ctx, s.settings.BrowserTimeout)
	defer p.CancelTimeout()

	for _, step := range injectionPlan(s.profile.Injection) {
		args := append([]any{token}, step.Args...)

		res, err := p.Eval(step.Script, args...)
		if err != nil {
			s.log.Warn().Err(err).Str("step", step.Name).Msg("Token injection step failed")
			continue
		}

		s.log.Debug().Str("step", step.Name).Bool("applied", res.Value.Bool()).Msg("Token injection step done")
	}
}

func (s *Session) ProceedToCalendar(ctx context.Context) error {
	s.log.Info().Msg("Proceeding to calendar")

	p := s.timed(ctx, s.settings.BrowserTimeout)
	defer p.CancelTimeout()

	el, err := p.Element(s.profile.ProceedSelector)
	if err != nil {
		return &domain.AutomationError{Op: "find proceed control", Err: err}
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return &domain.AutomationError{Op: "click proceed control", Err: err}
	}

	if !s.hasElement(ctx, s.profile.CalendarSelector, s.profile.Waits.Calendar) {
		return &domain.AutomationError{Op: "proceed to calendar", Err: fmt.Errorf("%w within %s", domain.ErrCalendarNotLoaded, s.profile.Waits.Calendar)}
	}

	s.log.Info().Msg("Calendar loaded")
	return nil
}

func (s *Session) NavigateToMonth(ctx context.Context, target domain.YearMonth) error {
	return navigateToMonth(ctx, s.log, sessionPager{s}, target, navigation{
		maxAttempts: s.profile.MaxMonthAttempts,
		settle:      s.profile.Waits.Settle,
		unreadable:  s.profile.Waits.UnreadableMonth,
	})
}

func (s *Session) CheckDateAvailability(ctx context.Context, date time.Time) domain.DateAvailability {
	return s.CheckDatesAvailability(ctx, []time.Time{date})[0]
}

// CheckDatesAvailability classifies all dates against a single snapshot of the calendar
func (s *Session) CheckDatesAvailability(ctx context.Context, dates []time.Time) []domain.DateAvailability {
	page, err := s.page.Context(ctx).HTML()
	if err != nil {
		s.log.Warn().Err(err).Msg("Could not read calendar page")
		results := make([]domain.DateAvailability, 0, len(dates))
		for _, d := range dates {
			results = append(results, unknown(d))
		}
		return results
	}

	results := classifyDates(page, dates, s.profile.LastTicketMarkers)
	for _, r := range results {
		s.log.Info().Str("date", r.Date.Format(domain.DateLayout)).Str("status", string(r.Status)).Msg("Date checked")
	}
	return results
}

// Close releases page, browsing context, browser and process. It is safe to call twice.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if s.page != nil {
		keep(s.page.Close())
	}
	if s.incognito != nil {
		keep(s.incognito.Close())
	}
	if s.browser != nil {
		keep(s.browser.Close())
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}

	if first != nil {
		s.log.Debug().Err(first).Msg("Browser session closed with error")
		return &domain.AutomationError{Op: "close browser", Err: first}
	}

	s.log.Debug().Msg("Browser session closed")
	return nil
}

// sessionPager moves the live calendar for navigateToMonth
type sessionPager struct {
	s *Session
}

const stepMonthJS = `(marker, forward) => {
	const links = Array.from(document.querySelectorAll('a[href*="' + marker + '"]')).filter(l => l.querySelector('img'));
	if (links.length === 0) return false;
	(forward ? links[links.length - 1] : links[0]).click();
	return true;
}`

func (sp sessionPager) DisplayedMonth(ctx context.Context) (domain.YearMonth, bool) {
	page, err := sp.s.page.Context(ctx).HTML()
	if err != nil {
		sp.s.log.Warn().Err(err).Msg("Could not read calendar page")
		return domain.YearMonth{}, false
	}
	return sp.s.reader.ReadDisplayedMonth(page)
}

func (sp sessionPager) Step(ctx context.Context, forward bool) error {
	p := sp.s.timed(ctx, sp.s.settings.BrowserTimeout)
	defer p.CancelTimeout()

	wait := p.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	res, err := p.Eval(stepMonthJS, sp.s.profile.CalendarLinkMarker, forward)
	if err != nil {
		return err
	}

	if !res.Value.Bool() {
		sp.s.log.Warn().Bool("forward", forward).Msg("Could not find month navigation link")
		return nil
	}

	wait()
	return nil
}

func (sp sessionPager) Pause(ctx context.Context, d time.Duration) error {
	return pause(ctx, d)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
