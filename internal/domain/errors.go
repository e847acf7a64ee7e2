package domain

import "github.com/pkg/errors"

// ErrCalendarNotLoaded means the proceed control was clicked but no calendar
// followed, which is how the site answers a rejected challenge token
var ErrCalendarNotLoaded = errors.New("calendar did not load")

// AutomationError is a fatal page, element or navigation failure in the browser session
type AutomationError struct {
	Op  string
	Err error
}

func (e *AutomationError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

// CaptchaError is returned when the solving service rejects, fails or times out a task
type CaptchaError struct {
	Reason string
}

func (e *CaptchaError) Error() string {
	return e.Reason
}

// NotificationError is returned when the messaging API refuses a message
type NotificationError struct {
	Description string
}

func (e *NotificationError) Error() string {
	return e.Description
}
