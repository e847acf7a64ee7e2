package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/browser"
	"github.com/varoOP/ticketwatch/internal/captcha"
	"github.com/varoOP/ticketwatch/internal/checker"
	"github.com/varoOP/ticketwatch/internal/database"
	"github.com/varoOP/ticketwatch/internal/domain"
	"github.com/varoOP/ticketwatch/internal/notification"
	"github.com/varoOP/ticketwatch/internal/probe"
)

// App represents the main application with all dependencies initialized
type App struct {
	log      zerolog.Logger
	settings domain.Settings
	db       *database.DB
	history  domain.HistoryRepo
	notifier domain.Notifier
	checker  *checker.Checker
	probe    *probe.Service
}

// NewApp creates a new application instance with all dependencies initialized
func NewApp(log zerolog.Logger, settings domain.Settings) (*App, error) {
	profile, err := browser.LoadProfile(settings.SiteProfilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load site profile: %w", err)
	}

	solverCfg := captcha.DefaultConfig(settings.CaptchaAPIKey)
	solverCfg.Timeout = settings.CaptchaTimeout

	launcher := browser.NewLauncher(log, settings, profile)
	solver := captcha.NewSolver(log, solverCfg)
	notifier := notification.NewService(log, notification.Config{
		BotToken:    settings.TelegramBotToken,
		ChatID:      settings.TelegramChatID,
		PurchaseURL: settings.SiteURL,
	})

	return New(log, settings, launcher, solver, notifier)
}

// New wires the application around the given collaborators
func New(log zerolog.Logger, settings domain.Settings, b domain.Browser, solver domain.CaptchaSolver, notifier domain.Notifier) (*App, error) {
	a := &App{
		log:      log.With().Str("module", "app").Logger(),
		settings: settings,
		notifier: notifier,
		checker:  checker.NewChecker(log, settings, b, solver, notifier),
		probe:    probe.NewService(log, settings.SiteURL, settings.RecaptchaSiteKey),
	}

	if settings.HistoryDir != "" {
		db, err := database.NewDB(settings.HistoryDir, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db
		a.history = database.NewHistoryRepo(log, db)
	}

	return a, nil
}

// Check runs one availability check and records its outcome
func (a *App) Check(ctx context.Context, dryRun bool) domain.CheckResult {
	result := a.checker.CheckAvailability(ctx, dryRun)

	if a.history != nil {
		// recording must not depend on the check's possibly cancelled context
		if err := a.history.Store(context.WithoutCancel(ctx), result); err != nil {
			a.log.Warn().Err(err).Msg("Failed to record check history")
		}
	}

	if result.Failed() && a.settings.NotifyOnError && !dryRun && ctx.Err() == nil {
		if err := a.notifier.SendErrorAlert(ctx, result.Error); err != nil {
			a.log.Warn().Err(err).Msg("Failed to send error notification")
		}
	}

	return result
}

// TestNotifier checks the Telegram credentials and sends a test message
func (a *App) TestNotifier(ctx context.Context) bool {
	return a.checker.TestNotifier(ctx)
}

// Probe fetches the purchase page without a browser
func (a *App) Probe(ctx context.Context) (domain.ProbeReport, error) {
	return a.probe.Probe(ctx)
}

// History returns the most recent checks, newest first
func (a *App) History(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	if a.history == nil {
		return nil, fmt.Errorf("check history is disabled (history_dir is empty)")
	}
	return a.history.List(ctx, limit)
}

// Close releases the history database
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
