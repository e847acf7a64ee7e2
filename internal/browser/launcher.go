package browser

import (
	"context"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
)

// Launcher starts a fresh browser for every session
type Launcher struct {
	log      zerolog.Logger
	settings domain.Settings
	profile  Profile
}

var _ domain.Browser = (*Launcher)(nil)

func NewLauncher(log zerolog.Logger, settings domain.Settings, profile Profile) *Launcher {
	return &Launcher{
		log:      log.With().Str("module", "browser").Logger(),
		settings: settings,
		profile:  profile,
	}
}

// Open launches the browser process, an incognito context and one stealth page.
// Anything acquired before a failure is released again.
func (l *Launcher) Open(ctx context.Context) (domain.SiteSession, error) {
	s := &Session{
		log:      l.log,
		settings: l.settings,
		profile:  l.profile,
		reader:   newMonthReader(l.profile),
	}

	ln := launcher.New().Context(ctx).Headless(l.settings.Headless)
	controlURL, err := ln.Launch()
	if err != nil {
		return nil, &domain.AutomationError{Op: "launch browser", Err: err}
	}
	s.launcher = ln

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, &domain.AutomationError{Op: "connect to browser", Err: err}
	}
	s.browser = b

	s.incognito, err = b.Incognito()
	if err != nil {
		s.Close()
		return nil, &domain.AutomationError{Op: "create browsing context", Err: err}
	}

	s.page, err = stealth.Page(s.incognito)
	if err != nil {
		s.Close()
		return nil, &domain.AutomationError{Op: "create page", Err: errors.Wrap(err, "stealth page")}
	}

	l.log.Debug().Bool("headless", l.settings.Headless).Msg("Browser session opened")

	return s, nil
}
