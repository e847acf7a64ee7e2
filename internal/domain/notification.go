package domain

import "context"

// Notifier defines the interface for alert delivery
type Notifier interface {
	// SendAvailabilityAlert sends one message listing every available date
	SendAvailabilityAlert(ctx context.Context, available []DateAvailability, ticketType string) error

	// SendErrorAlert sends a plain diagnostic message
	SendErrorAlert(ctx context.Context, message string) error

	// TestConnection checks the bot identity and sends a test message
	TestConnection(ctx context.Context) bool
}
