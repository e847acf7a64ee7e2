package browser

import (
	_ "embed"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var defaultProfile []byte

// Profile holds every site specific selector, text and wait used by a session
type Profile struct {
	ProceedSelector    string    `yaml:"proceed_selector"`
	CookieSelector     string    `yaml:"cookie_selector"`
	CookieText         string    `yaml:"cookie_text"`
	CalendarSelector   string    `yaml:"calendar_selector"`
	CalendarLinkMarker string    `yaml:"calendar_link_marker"`
	MonthCells         int       `yaml:"month_cells"`
	LastTicketMarkers  []string  `yaml:"last_ticket_markers"`
	Waits              Waits     `yaml:"waits"`
	MaxMonthAttempts   int       `yaml:"max_month_attempts"`
	Injection          Injection `yaml:"injection"`
}

type Waits struct {
	Proceed         time.Duration `yaml:"proceed"`
	Cookie          time.Duration `yaml:"cookie"`
	Calendar        time.Duration `yaml:"calendar"`
	Settle          time.Duration `yaml:"settle"`
	UnreadableMonth time.Duration `yaml:"unreadable_month"`
}

// Injection names the fields and callbacks a solved token is pushed into
type Injection struct {
	ResponseFields      []string `yaml:"response_fields"`
	IframeSelector      string   `yaml:"iframe_selector"`
	ClientCallbacks     []string `yaml:"client_callbacks"`
	GlobalCallbacks     []string `yaml:"global_callbacks"`
	CheckboxSelector    string   `yaml:"checkbox_selector"`
	HiddenFieldSelector string   `yaml:"hidden_field_selector"`
}

// DefaultProfile returns the embedded profile
func DefaultProfile() (Profile, error) {
	return parseProfile(defaultProfile)
}

// LoadProfile reads an override profile from path. Keys missing from the file
// keep their embedded values. An empty path returns the embedded profile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Wrapf(err, "failed to read site profile %s", path)
	}

	p, err := DefaultProfile()
	if err != nil {
		return Profile{}, err
	}

	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, errors.Wrapf(err, "failed to parse site profile %s", path)
	}

	return p, p.validate()
}

func parseProfile(b []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, errors.Wrap(err, "failed to parse site profile")
	}
	return p, p.validate()
}

func (p Profile) validate() error {
	switch {
	case p.ProceedSelector == "":
		return errors.New("site profile: proceed_selector is required")
	case p.CalendarSelector == "":
		return errors.New("site profile: calendar_selector is required")
	case p.CalendarLinkMarker == "":
		return errors.New("site profile: calendar_link_marker is required")
	case p.MaxMonthAttempts <= 0:
		return errors.New("site profile: max_month_attempts must be positive")
	}
	return nil
}
