package domain

import "context"

// CaptchaSolution is a solved challenge token together with the task that produced it
type CaptchaSolution struct {
	TaskID string
	Token  string
}

// CaptchaSolver obtains challenge tokens from an external solving service
type CaptchaSolver interface {
	// Solve submits a reCAPTCHA task and waits for its token
	Solve(ctx context.Context, siteKey, pageURL string) (CaptchaSolution, error)

	// ReportBad tells the service a token was rejected. Failures are only logged.
	ReportBad(ctx context.Context, taskID string)
}
