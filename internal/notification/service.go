package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
)

const testMessage = "🔔 Ticketwatch Telegram connection test succeeded!\n\nThe bot is working."

// Config holds the bot credentials and the link put into alerts
type Config struct {
	BotToken    string
	ChatID      string
	PurchaseURL string
	// BaseURL overrides the bot API endpoint
	BaseURL string
}

// Service composes alert messages and delivers them through Telegram
type Service struct {
	log         zerolog.Logger
	telegram    *TelegramClient
	purchaseURL string
}

// NewService creates a new notification service
func NewService(log zerolog.Logger, cfg Config) domain.Notifier {
	return &Service{
		log:         log.With().Str("module", "notification").Logger(),
		telegram:    NewTelegramClient(log, cfg.BaseURL, cfg.BotToken, cfg.ChatID),
		purchaseURL: cfg.PurchaseURL,
	}
}

// SendAvailabilityAlert sends one message listing every available date
func (s *Service) SendAvailabilityAlert(ctx context.Context, available []domain.DateAvailability, ticketType string) error {
	if err := s.telegram.SendMessage(ctx, availabilityMessage(available, ticketType, s.purchaseURL), "Markdown"); err != nil {
		return err
	}

	dates := make([]string, 0, len(available))
	for _, a := range available {
		dates = append(dates, a.Date.Format(domain.DateLayout))
	}
	s.log.Info().Strs("dates", dates).Msg("Availability alert sent")

	return nil
}

// SendErrorAlert sends an error notification with error details
func (s *Service) SendErrorAlert(ctx context.Context, message string) error {
	if err := s.telegram.SendMessage(ctx, errorMessage(message), "Markdown"); err != nil {
		return err
	}

	s.log.Info().Msg("Error alert sent")
	return nil
}

// TestConnection checks the bot token and sends a test message
func (s *Service) TestConnection(ctx context.Context) bool {
	name, err := s.telegram.GetMe(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Telegram bot check failed")
		return false
	}
	s.log.Info().Str("bot", "@"+name).Msg("Bot connected")

	if err := s.telegram.SendMessage(ctx, testMessage, ""); err != nil {
		s.log.Error().Err(err).Msg("Failed to send test message")
		return false
	}

	s.log.Info().Msg("Test message sent")
	return true
}

func availabilityMessage(available []domain.DateAvailability, ticketType, purchaseURL string) string {
	lines := make([]string, 0, len(available))
	for _, a := range available {
		lines = append(lines, fmt.Sprintf("  • %s - *%s*", a.Date.Format(domain.DateLayout), a.Status.Label()))
	}

	return fmt.Sprintf("🎫 *Alhambra Ticket Alert*\n\n📅 Available dates:\n%s\n\n🎟️ Type: %s\n\n🔗 [Purchase Now](%s)",
		strings.Join(lines, "\n"), ticketType, purchaseURL)
}

func errorMessage(message string) string {
	return fmt.Sprintf("⚠️ *Ticket Checker Error*\n\n```\n%s\n```", message)
}
