package domain

import (
	"fmt"
	"time"
)

const (
	DefaultTicketType       = "GENERAL"
	DefaultBrowserTimeout   = 30 * time.Second
	DefaultCaptchaTimeout   = 180 * time.Second
	DefaultSiteURL          = "https://compratickets.alhambra-patronato.es/reservarEntradas.aspx?opc=142&gid=432&lg=en-GB&ca=0&m=GENERAL"
	DefaultRecaptchaSiteKey = "6LfXS2IUAAAAADr2WUPQDzAnTEbSQzE1Jxh0Zi0a"
)

// Settings is the validated configuration of one process. It is built once at
// startup and passed by value; overrides produce a new copy.
type Settings struct {
	CaptchaAPIKey    string
	TelegramBotToken string
	TelegramChatID   string
	TargetDates      []time.Time
	TicketType       string
	Headless         bool
	BrowserTimeout   time.Duration
	SiteURL          string
	RecaptchaSiteKey string
	CaptchaTimeout   time.Duration
	SiteProfilePath  string
	HistoryDir       string
	NotifyOnError    bool
}

// WithHeadless returns a copy of the settings with the headless flag replaced
func (s Settings) WithHeadless(headless bool) Settings {
	s.Headless = headless
	s.TargetDates = append([]time.Time(nil), s.TargetDates...)
	return s
}

// TargetMonth is the calendar month shared by all target dates
func (s Settings) TargetMonth() YearMonth {
	if len(s.TargetDates) == 0 {
		return YearMonth{}
	}
	return MonthOf(s.TargetDates[0])
}

// Validate checks required credentials and the same-month invariant
func (s Settings) Validate() error {
	if s.CaptchaAPIKey == "" {
		return fmt.Errorf("captcha_api_key is required (set via config.yaml or CAPTCHA_API_KEY environment variable)")
	}
	if s.TelegramBotToken == "" {
		return fmt.Errorf("telegram_bot_token is required (set via config.yaml or TELEGRAM_BOT_TOKEN environment variable)")
	}
	if s.TelegramChatID == "" {
		return fmt.Errorf("telegram_chat_id is required (set via config.yaml or TELEGRAM_CHAT_ID environment variable)")
	}
	if len(s.TargetDates) == 0 {
		return fmt.Errorf("target_dates is required (set via config.yaml or TARGET_DATES environment variable)")
	}
	return ValidateSameMonth(s.TargetDates)
}

// ValidateSameMonth fails when dates span more than one calendar month
func ValidateSameMonth(dates []time.Time) error {
	if len(dates) < 2 {
		return nil
	}
	first := MonthOf(dates[0])
	for _, d := range dates[1:] {
		if MonthOf(d) != first {
			return fmt.Errorf("all target dates must be in the same month: %s is not in %s", d.Format(DateLayout), first)
		}
	}
	return nil
}
