package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
	"gopkg.in/h2non/gentleman.v2"
)

const (
	DefaultTelegramURL = "https://api.telegram.org"

	telegramTimeout = 30 * time.Second
)

// TelegramClient talks to the Telegram Bot API
type TelegramClient struct {
	log    zerolog.Logger
	token  string
	chatID string
	client *gentleman.Client
}

// NewTelegramClient creates a bot API client. An empty baseURL uses the public API.
func NewTelegramClient(log zerolog.Logger, baseURL, token, chatID string) *TelegramClient {
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}

	client := gentleman.New().URL(baseURL)
	client.Context.Client.Timeout = telegramTimeout

	return &TelegramClient{
		log:    log.With().Str("module", "notification").Str("type", "telegram").Logger(),
		token:  token,
		chatID: chatID,
		client: client,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	ParseMode             string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool    `json:"ok"`
	Description string  `json:"description"`
	Result      botUser `json:"result"`
}

type botUser struct {
	Username string `json:"username"`
}

// SendMessage posts text to the configured chat. parseMode may be empty.
func (t *TelegramClient) SendMessage(ctx context.Context, text, parseMode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := t.client.Request()
	req.Method(http.MethodPost)
	req.Path("/bot:token/sendMessage")
	req.Param("token", t.token)
	req.JSON(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: parseMode,
	})

	res, err := req.Send()
	if err != nil {
		return errors.Wrap(err, "failed to send telegram message")
	}
	defer res.Close()

	var data apiResponse
	decodeErr := res.JSON(&data)

	if res.StatusCode != http.StatusOK {
		desc := data.Description
		if decodeErr != nil || desc == "" {
			desc = fmt.Sprintf("HTTP %d", res.StatusCode)
		}
		return &domain.NotificationError{Description: "Telegram API error: " + desc}
	}

	if decodeErr != nil {
		return errors.Wrap(decodeErr, "failed to decode telegram response")
	}

	if !data.OK {
		return &domain.NotificationError{Description: "Telegram API error: " + describe(data.Description)}
	}

	t.log.Debug().Msg("Telegram message sent")
	return nil
}

// GetMe returns the bot username, or an error when the token is not accepted
func (t *TelegramClient) GetMe(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	req := t.client.Request()
	req.Method(http.MethodGet)
	req.Path("/bot:token/getMe")
	req.Param("token", t.token)

	res, err := req.Send()
	if err != nil {
		return "", errors.Wrap(err, "failed to call getMe")
	}
	defer res.Close()

	if res.StatusCode != http.StatusOK {
		return "", errors.Errorf("getMe returned status %d", res.StatusCode)
	}

	var data apiResponse
	if err := res.JSON(&data); err != nil {
		return "", errors.Wrap(err, "failed to decode getMe response")
	}

	if !data.OK {
		return "", errors.Errorf("getMe failed: %s", describe(data.Description))
	}

	return data.Result.Username, nil
}

func describe(desc string) string {
	if desc == "" {
		return "Unknown error"
	}
	return desc
}
