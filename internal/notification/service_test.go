package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
)

type telegramStub struct {
	getMeStatus int
	getMeBody   string
	sendStatus  int
	sendBody    string
	sent        []sendMessageRequest
	paths       []string
}

func (s *telegramStub) server(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.paths = append(s.paths, r.URL.Path)

		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.WriteHeader(s.getMeStatus)
			w.Write([]byte(s.getMeBody))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST, got %s", r.Method)
			}
			var req sendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			s.sent = append(s.sent, req)
			w.WriteHeader(s.sendStatus)
			w.Write([]byte(s.sendBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestService(url string) domain.Notifier {
	return NewService(zerolog.Nop(), Config{
		BotToken:    "123456:ABC",
		ChatID:      "42",
		PurchaseURL: "https://tickets.example.com/buy",
		BaseURL:     url,
	})
}

func date(d int) time.Time {
	return time.Date(2026, time.February, d, 0, 0, 0, 0, time.UTC)
}

func TestSendAvailabilityAlert(t *testing.T) {
	stub := &telegramStub{sendStatus: http.StatusOK, sendBody: `{"ok":true}`}
	srv := stub.server(t)
	defer srv.Close()

	available := []domain.DateAvailability{
		{Date: date(17), Status: domain.StatusAvailable, HasLink: true},
		{Date: date(18), Status: domain.StatusLastTickets, HasLink: true},
	}

	if err := newTestService(srv.URL).SendAvailabilityAlert(context.Background(), available, "GENERAL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stub.sent) != 1 {
		t.Fatalf("Expected exactly one message, got %d", len(stub.sent))
	}

	msg := stub.sent[0]
	if msg.ChatID != "42" {
		t.Errorf("Expected chat id 42, got %q", msg.ChatID)
	}
	if msg.ParseMode != "Markdown" {
		t.Errorf("Expected Markdown parse mode, got %q", msg.ParseMode)
	}
	for _, want := range []string{"2026-02-17 - *Available*", "2026-02-18 - *Last Tickets!*", "Type: GENERAL", "(https://tickets.example.com/buy)"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("Expected message to contain %q, got:\n%s", want, msg.Text)
		}
	}
	if stub.paths[0] != "/bot123456:ABC/sendMessage" {
		t.Errorf("unexpected path %q", stub.paths[0])
	}
}

func TestSendAvailabilityAlert_APIError(t *testing.T) {
	stub := &telegramStub{sendStatus: http.StatusOK, sendBody: `{"ok":false,"description":"chat not found"}`}
	srv := stub.server(t)
	defer srv.Close()

	err := newTestService(srv.URL).SendAvailabilityAlert(context.Background(), []domain.DateAvailability{{Date: date(17), Status: domain.StatusAvailable}}, "GENERAL")
	if err == nil {
		t.Fatal("expected error")
	}

	var ne *domain.NotificationError
	if !errors.As(err, &ne) {
		t.Fatalf("Expected NotificationError, got %T", err)
	}
	if err.Error() != "Telegram API error: chat not found" {
		t.Errorf("unexpected error %q", err.Error())
	}
}

func TestSendAvailabilityAlert_HTTPError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "with description", body: `{"ok":false,"description":"Unauthorized"}`, want: "Telegram API error: Unauthorized"},
		{name: "no body", body: ``, want: "Telegram API error: HTTP 401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &telegramStub{sendStatus: http.StatusUnauthorized, sendBody: tt.body}
			srv := stub.server(t)
			defer srv.Close()

			err := newTestService(srv.URL).SendErrorAlert(context.Background(), "boom")
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestSendErrorAlert(t *testing.T) {
	stub := &telegramStub{sendStatus: http.StatusOK, sendBody: `{"ok":true}`}
	srv := stub.server(t)
	defer srv.Close()

	if err := newTestService(srv.URL).SendErrorAlert(context.Background(), "Captcha error: timed out after 180s"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stub.sent[0].Text, "```\nCaptcha error: timed out after 180s\n```") {
		t.Errorf("Expected code block with error, got:\n%s", stub.sent[0].Text)
	}
}

func TestTestConnection(t *testing.T) {
	stub := &telegramStub{
		getMeStatus: http.StatusOK,
		getMeBody:   `{"ok":true,"result":{"username":"ticket_bot"}}`,
		sendStatus:  http.StatusOK,
		sendBody:    `{"ok":true}`,
	}
	srv := stub.server(t)
	defer srv.Close()

	if !newTestService(srv.URL).TestConnection(context.Background()) {
		t.Fatal("Expected connection test to succeed")
	}
	if len(stub.sent) != 1 {
		t.Errorf("Expected one test message, got %d", len(stub.sent))
	}
	if stub.sent[0].ParseMode != "" {
		t.Errorf("Expected plain test message, got parse mode %q", stub.sent[0].ParseMode)
	}
}

func TestTestConnection_GetMeFails(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"ok":false,"description":"Unauthorized"}`},
		{name: "not ok", status: http.StatusOK, body: `{"ok":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &telegramStub{getMeStatus: tt.status, getMeBody: tt.body, sendStatus: http.StatusOK, sendBody: `{"ok":true}`}
			srv := stub.server(t)
			defer srv.Close()

			if newTestService(srv.URL).TestConnection(context.Background()) {
				t.Error("Expected connection test to fail")
			}
			if len(stub.sent) != 0 {
				t.Errorf("Expected no message to be sent, got %d", len(stub.sent))
			}
		})
	}
}

func TestTestConnection_SendFails(t *testing.T) {
	stub := &telegramStub{
		getMeStatus: http.StatusOK,
		getMeBody:   `{"ok":true,"result":{"username":"ticket_bot"}}`,
		sendStatus:  http.StatusBadRequest,
		sendBody:    `{"ok":false,"description":"chat not found"}`,
	}
	srv := stub.server(t)
	defer srv.Close()

	if newTestService(srv.URL).TestConnection(context.Background()) {
		t.Error("Expected connection test to fail")
	}
}
