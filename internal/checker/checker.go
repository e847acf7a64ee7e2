package checker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
)

type state string

const (
	stateStart               state = "start"
	statePageLoaded          state = "page_loaded"
	stateChallengeSolved     state = "challenge_solved"
	stateCalendarReady       state = "calendar_ready"
	stateMonthNavigated      state = "month_navigated"
	stateScraped             state = "scraped"
	stateNotified            state = "notified"
	stateNotificationSkipped state = "notification_skipped"
	stateDone                state = "done"
	stateFailed              state = "failed"
)

// Checker runs one availability check from page load to alert
type Checker struct {
	log      zerolog.Logger
	settings domain.Settings
	browser  domain.Browser
	solver   domain.CaptchaSolver
	notifier domain.Notifier
}

func NewChecker(log zerolog.Logger, settings domain.Settings, browser domain.Browser, solver domain.CaptchaSolver, notifier domain.Notifier) *Checker {
	return &Checker{
		log:      log.With().Str("module", "checker").Logger(),
		settings: settings,
		browser:  browser,
		solver:   solver,
		notifier: notifier,
	}
}

// CheckAvailability never returns partial results: a failed check carries only its error
func (c *Checker) CheckAvailability(ctx context.Context, dryRun bool) domain.CheckResult {
	dates := c.settings.TargetDates
	c.log.Info().Str("month", c.settings.TargetMonth().String()).Int("dates", len(dates)).Bool("dry_run", dryRun).Msg("Starting availability check")
	c.transition(stateStart)

	results, sent, err := c.run(ctx, dryRun)
	if err != nil {
		msg := failureMessage(err)
		c.log.Error().Str("state", string(stateFailed)).Msg(msg)

		res := domain.NewFailedResult(dates, msg)
		res.DryRun = dryRun
		return res
	}

	c.transition(stateDone)

	res := domain.NewCheckResult(dates, results, sent)
	res.DryRun = dryRun
	return res
}

// TestNotifier checks the messaging credentials
func (c *Checker) TestNotifier(ctx context.Context) bool {
	return c.notifier.TestConnection(ctx)
}

func (c *Checker) run(ctx context.Context, dryRun bool) (results []domain.DateAvailability, sent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("unexpected failure: %v", r)
		}
	}()

	session, err := c.browser.Open(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("Failed to close browser session")
		}
	}()

	if err := session.NavigateToPurchasePage(ctx); err != nil {
		return nil, false, err
	}
	session.AcceptCookies(ctx)
	c.transition(statePageLoaded)

	pageURL, err := session.CurrentPageURL(ctx)
	if err != nil {
		return nil, false, err
	}

	solution, err := c.solver.Solve(ctx, c.settings.RecaptchaSiteKey, pageURL)
	if err != nil {
		return nil, false, err
	}
	c.transition(stateChallengeSolved)

	session.InjectChallengeToken(ctx, solution.Token)
	if err := session.ProceedToCalendar(ctx); err != nil {
		if errors.Is(err, domain.ErrCalendarNotLoaded) {
			c.solver.ReportBad(ctx, solution.TaskID)
		}
		return nil, false, err
	}
	c.transition(stateCalendarReady)

	if err := session.NavigateToMonth(ctx, c.settings.TargetMonth()); err != nil {
		return nil, false, err
	}
	c.transition(stateMonthNavigated)

	results = session.CheckDatesAvailability(ctx, c.settings.TargetDates)
	c.transition(stateScraped)

	available := domain.FilterAvailable(results)
	if len(available) == 0 || dryRun {
		if dryRun && len(available) > 0 {
			c.log.Info().Int("available", len(available)).Msg("Dry run, notification suppressed")
		}
		c.transition(stateNotificationSkipped)
		return results, false, nil
	}

	if err := c.notifier.SendAvailabilityAlert(ctx, available, c.settings.TicketType); err != nil {
		return nil, false, err
	}
	c.transition(stateNotified)

	return results, true, nil
}

func (c *Checker) transition(s state) {
	c.log.Debug().Str("state", string(s)).Msg("Check state")
}

func failureMessage(err error) string {
	var captchaErr *domain.CaptchaError
	if errors.As(err, &captchaErr) {
		return "Captcha error: " + captchaErr.Error()
	}

	var notifyErr *domain.NotificationError
	if errors.As(err, &notifyErr) {
		return "Notification error: " + notifyErr.Error()
	}

	return err.Error()
}
