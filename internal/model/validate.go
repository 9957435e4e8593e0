package model

import (
	"fmt"
	"net/url"
	"strings"
)

// FindingLevel classifies a configuration finding.
type FindingLevel string

const (
	LevelError   FindingLevel = "error"
	LevelWarning FindingLevel = "warning"
)

// Finding is one problem detected in a configuration.
type Finding struct {
	Level   FindingLevel `json:"level"`
	Field   string       `json:"field"`
	Message string       `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Level, f.Field, f.Message)
}

// minCredentialLen is the length below which a username or password is
// reported as suspicious.
const minCredentialLen = 3

// Validate checks the configuration fields and returns every finding.
// When requirePassword is false a missing password is not reported, since
// it may be supplied by the keyring at run time.
func (c *Config) Validate(requirePassword bool) []Finding {
	var findings []Finding
	add := func(level FindingLevel, field, msg string) {
		findings = append(findings, Finding{Level: level, Field: field, Message: msg})
	}

	if msg := CheckURL(c.Tracker.URL); msg != "" {
		add(LevelError, "tracker.url", msg)
	}

	switch c.Tracker.Transport {
	case TransportREST, TransportSOAP:
	default:
		add(LevelError, "tracker.transport", fmt.Sprintf("unknown transport %q (want rest or soap)", c.Tracker.Transport))
	}

	switch user := strings.TrimSpace(c.Tracker.Username); {
	case user == "" && c.Tracker.Transport == TransportSOAP:
		add(LevelError, "tracker.username", "username is required")
	case user != "" && len(user) < minCredentialLen:
		add(LevelWarning, "tracker.username", "username looks too short")
	}

	switch pass := c.Tracker.Password; {
	case pass == "" && requirePassword:
		add(LevelError, "tracker.password", "password is required")
	case pass != "" && len(pass) < minCredentialLen:
		add(LevelWarning, "tracker.password", "password looks too short")
	}

	query := strings.TrimSpace(c.Update.Query)
	if query == "" {
		add(LevelError, "update.query", "query is required")
	} else {
		compact := strings.ToLower(strings.ReplaceAll(query, " ", ""))
		if !strings.Contains(compact, "project=") {
			add(LevelWarning, "update.query", "query does not restrict project (project=)")
		}
		if !strings.Contains(compact, "status=") {
			add(LevelWarning, "update.query", "query does not restrict status (status=)")
		}
	}

	if strings.TrimSpace(c.Update.CustomFieldValue) != "" && strings.TrimSpace(c.Update.CustomFieldID) == "" {
		add(LevelWarning, "update.custom_field_value", "value is ignored without custom_field_id")
	}

	return findings
}

// CheckURL returns a message describing why raw is not a usable tracker
// URL, or an empty string when it is.
func CheckURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "URL is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid URL format"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "URL must start with http:// or https://"
	}
	if u.Host == "" {
		return "URL must include a host"
	}
	return ""
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Level == LevelError {
			return true
		}
	}
	return false
}
