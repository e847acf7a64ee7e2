package captcha

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
	DefaultBaseURL      = "https://2captcha.com"
	DefaultTimeout      = 180 * time.Second
	DefaultPollInterval = 5 * time.Second
	DefaultWarmup       = 10 * time.Second
	DefaultMaxRetries   = 3

	requestTimeout = 30 * time.Second
	notReady       = "CAPCHA_NOT_READY"
)

// Config tunes the solver. Empty BaseURL, Timeout and MaxRetries fall back to
// the defaults; zero waits are taken literally. DefaultConfig holds the
// production values.
type Config struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
	Warmup       time.Duration
	MaxRetries   int
}

// DefaultConfig returns the production polling schedule for apiKey
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:       apiKey,
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		Warmup:       DefaultWarmup,
		MaxRetries:   DefaultMaxRetries,
	}
}

// Solver implements domain.CaptchaSolver against the 2Captcha in.php/res.php API
type Solver struct {
	log    zerolog.Logger
	cfg    Config
	client *gentleman.Client
}

type apiResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

var _ domain.CaptchaSolver = (*Solver)(nil)

// NewSolver creates a new 2Captcha solver
func NewSolver(log zerolog.Logger, cfg Config) *Solver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	client := gentleman.New().URL(cfg.BaseURL)
	client.Context.Client.Timeout = requestTimeout

	return &Solver{
		log:    log.With().Str("module", "captcha").Logger(),
		cfg:    cfg,
		client: client,
	}
}

// Solve submits a reCAPTCHA v2 task and polls until the token is ready
func (s *Solver) Solve(ctx context.Context, siteKey, pageURL string) (domain.CaptchaSolution, error) {
	taskID, err := s.submitTask(ctx, siteKey, pageURL)
	if err != nil {
		return domain.CaptchaSolution{}, err
	}
	s.log.Info().Str("task_id", taskID).Msg("Captcha task submitted")

	token, err := s.pollResult(ctx, taskID)
	if err != nil {
		return domain.CaptchaSolution{}, err
	}
	s.log.Info().Str("task_id", taskID).Msg("Captcha solved")

	return domain.CaptchaSolution{TaskID: taskID, Token: token}, nil
}

// ReportBad reports an incorrect solution for refund
func (s *Solver) ReportBad(ctx context.Context, taskID string) {
	_, err := s.get(ctx, "/res.php", map[string]string{
		"key":    s.cfg.APIKey,
		"action": "reportbad",
		"id":     taskID,
		"json":   "1",
	})
	if err != nil {
		s.log.Warn().Err(err).Str("task_id", taskID).Msg("Failed to report bad captcha")
		return
	}
	s.log.Info().Str("task_id", taskID).Msg("Reported bad captcha")
}

func (s *Solver) submitTask(ctx context.Context, siteKey, pageURL string) (string, error) {
	data, err := s.getWithRetry(ctx, "/in.php", map[string]string{
		"key":       s.cfg.APIKey,
		"method":    "userrecaptcha",
		"googlekey": siteKey,
		"pageurl":   pageURL,
		"json":      "1",
	})
	if err != nil {
		return "", &domain.CaptchaError{Reason: fmt.Sprintf("task submission failed: %v", err)}
	}

	if data.Status != 1 {
		return "", &domain.CaptchaError{Reason: "task submission failed: " + reasonOf(data)}
	}

	return data.Request, nil
}

func (s *Solver) pollResult(ctx context.Context, taskID string) (string, error) {
	start := time.Now()

	// the service needs real time before a token can exist
	if err := sleep(ctx, s.cfg.Warmup); err != nil {
		return "", err
	}

	for time.Since(start) < s.cfg.Timeout {
		data, err := s.getWithRetry(ctx, "/res.php", map[string]string{
			"key":    s.cfg.APIKey,
			"action": "get",
			"id":     taskID,
			"json":   "1",
		})
		if err != nil {
			return "", &domain.CaptchaError{Reason: fmt.Sprintf("solving failed: %v", err)}
		}

		if data.Status == 1 {
			return data.Request, nil
		}

		if data.Request != notReady {
			return "", &domain.CaptchaError{Reason: "solving failed: " + reasonOf(data)}
		}

		s.log.Debug().Str("task_id", taskID).Msg("Captcha not ready, waiting")
		if err := sleep(ctx, s.cfg.PollInterval); err != nil {
			return "", err
		}
	}

	return "", &domain.CaptchaError{Reason: fmt.Sprintf("timed out after %.0fs", s.cfg.Timeout.Seconds())}
}

// getWithRetry retries transport failures and non-2xx responses, never API-level errors
func (s *Solver) getWithRetry(ctx context.Context, path string, params map[string]string) (*apiResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		data, err := s.get(ctx, path, params)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		s.log.Debug().Err(err).Str("path", path).Int("attempt", attempt).Msg("Captcha request failed")
		if attempt < s.cfg.MaxRetries {
			if err := sleep(ctx, s.cfg.PollInterval); err != nil {
				return nil, err
			}
		}
	}

	return nil, errors.Wrapf(lastErr, "giving up after %d attempts", s.cfg.MaxRetries)
}

func (s *Solver) get(ctx context.Context, path string, params map[string]string) (*apiResponse, error) {
	// requests are bounded by the client timeout, cancellation is checked between them
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := s.client.Request()
	req.Method(http.MethodGet)
	req.Path(path)
	for k, v := range params {
		req.AddQuery(k, v)
	}

	res, err := req.Send()
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer res.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.Errorf("unexpected status code %d", res.StatusCode)
	}

	data := &apiResponse{}
	if err := res.JSON(data); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}

	return data, nil
}

func reasonOf(data *apiResponse) string {
	if data.Request == "" {
		return "Unknown error"
	}
	return data.Request
}

func sleep(ctx context.Context, d time.Duration) error {
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
