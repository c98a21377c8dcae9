package wiki

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ConfigError reports a missing or invalid configuration setting
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config directive '%s' %s", e.Field, e.Reason)
}

// AuthError indicates the login handshake did not succeed
type AuthError struct {
	// Step is 1 for the token request, 2 for the credential check
	Step       int
	StatusCode int
	Result     string
	Reason     string
}

func (e *AuthError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("unable to log in (step %d)", e.Step))
	if e.StatusCode != 0 && e.StatusCode != 200 {
		sb.WriteString(fmt.Sprintf(": HTTP %d", e.StatusCode))
	}
	if e.Result != "" {
		sb.WriteString(fmt.Sprintf(": result %s", e.Result))
	}
	if e.Reason != "" {
		sb.WriteString(" - " + e.Reason)
	}
	return sb.String()
}

// ProtocolError indicates a response did not have the expected shape
type ProtocolError struct {
	Action string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected %s response: %s", e.Action, e.Reason)
}

// SaveError reports a rejected mutation (save, move or upload)
type SaveError struct {
	Op         string
	Title      string
	StatusCode int
	Body       string

	// Code and Info come from the API error envelope, when present
	Code string
	Info string
}

func (e *SaveError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s of %q failed", e.Op, e.Title))
	if e.StatusCode != 0 && e.StatusCode != 200 {
		sb.WriteString(fmt.Sprintf(": HTTP %d", e.StatusCode))
		if e.Body != "" {
			sb.WriteString(": " + truncate(e.Body, 200))
		}
	}
	switch {
	case e.Code != "":
		sb.WriteString(fmt.Sprintf(": [%s] %s", e.Code, e.Info))
	case e.Info != "":
		sb.WriteString(": " + e.Info)
	}
	return sb.String()
}

// SearchError reports a failed search request
type SearchError struct {
	Query      string
	StatusCode int
	Body       string
	Code       string
	Info       string
}

func (e *SearchError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("search for %q failed: [%s] %s", e.Query, e.Code, e.Info)
	}
	return fmt.Sprintf("search for %q failed: HTTP %d: %s", e.Query, e.StatusCode, truncate(e.Body, 200))
}

// truncate shortens a string to at most maxLen bytes without splitting a rune,
// adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
