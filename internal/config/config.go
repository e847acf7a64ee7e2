package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/varoOP/ticketwatch/internal/domain"
)

// SetDefaults registers the default value of every optional key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ticket_type", domain.DefaultTicketType)
	v.SetDefault("headless", true)
	v.SetDefault("browser_timeout", int(domain.DefaultBrowserTimeout/time.Millisecond))
	v.SetDefault("site_url", domain.DefaultSiteURL)
	v.SetDefault("recaptcha_site_key", domain.DefaultRecaptchaSiteKey)
	v.SetDefault("captcha_timeout", domain.DefaultCaptchaTimeout)
	v.SetDefault("history_dir", ".")
	v.SetDefault("notify_on_error", false)
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment.
// A missing default .env file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to load .env")
		}
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load env file %s", path)
	}
	return nil
}

// Load builds validated settings from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (CAPTCHA_API_KEY, TARGET_DATES, ...)
func Load(v *viper.Viper) (domain.Settings, error) {
	s, err := LoadWithoutCredentials(v)
	if err != nil {
		return domain.Settings{}, err
	}

	if err := s.Validate(); err != nil {
		return domain.Settings{}, err
	}

	return s, nil
}

// LoadWithoutCredentials builds settings for commands that never contact the
// solver or the bot. Values that are present are still checked.
func LoadWithoutCredentials(v *viper.Viper) (domain.Settings, error) {
	SetDefaults(v)

	s := domain.Settings{
		CaptchaAPIKey:    strings.TrimSpace(v.GetString("captcha_api_key")),
		TelegramBotToken: strings.TrimSpace(v.GetString("telegram_bot_token")),
		TelegramChatID:   strings.TrimSpace(v.GetString("telegram_chat_id")),
		TicketType:       v.GetString("ticket_type"),
		Headless:         v.GetBool("headless"),
		SiteURL:          v.GetString("site_url"),
		RecaptchaSiteKey: v.GetString("recaptcha_site_key"),
		CaptchaTimeout:   v.GetDuration("captcha_timeout"),
		SiteProfilePath:  v.GetString("site_profile"),
		HistoryDir:       v.GetString("history_dir"),
		NotifyOnError:    v.GetBool("notify_on_error"),
	}

	timeoutMs := v.GetInt("browser_timeout")
	if timeoutMs <= 0 {
		return domain.Settings{}, errors.Errorf("invalid browser_timeout: %d (must be a positive number of milliseconds)", timeoutMs)
	}
	s.BrowserTimeout = time.Duration(timeoutMs) * time.Millisecond

	if s.CaptchaTimeout <= 0 {
		return domain.Settings{}, errors.Errorf("invalid captcha_timeout: %s", v.GetString("captcha_timeout"))
	}

	if raw := v.GetString("target_dates"); raw != "" {
		dates, err := ParseTargetDates(raw)
		if err != nil {
			return domain.Settings{}, err
		}
		s.TargetDates = dates
	}

	return s, nil
}

// ParseTargetDates parses a comma separated list of YYYY-MM-DD dates, keeping their order
func ParseTargetDates(raw string) ([]time.Time, error) {
	var dates []time.Time
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		d, err := time.Parse(domain.DateLayout, part)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid target date %q (use YYYY-MM-DD)", part)
		}
		dates = append(dates, d)
	}

	if len(dates) == 0 {
		return nil, errors.New("target_dates contains no dates")
	}

	if err := domain.ValidateSameMonth(dates); err != nil {
		return nil, err
	}

	return dates, nil
}
