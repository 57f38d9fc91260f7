package logging

import (
	"regexp"
)

const (
	// MaxQueryLogLength is the maximum length of a SQL statement to log.
	MaxQueryLogLength = 100
	// RedactedText replaces sensitive spans in logged values.
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx in key=value connection strings.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// api_key=xxx style parameters on LLM and embedding endpoint URLs.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// user:pass@host segments of URL-form connection strings.
	credentialURLPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// redactSecrets replaces credential-bearing spans wherever they appear.
func redactSecrets(s string) string {
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return credentialURLPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeConnectionString removes credentials from a DSN. Use this before
// logging any profiling or evaluation target.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	return redactSecrets(connStr)
}

// SanitizeError sanitizes error messages that might contain sensitive data.
// Driver errors frequently echo the DSN back; LLM client errors can echo
// key-bearing endpoint URLs.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redactSecrets(err.Error())
}

// SanitizeQuery truncates a SQL statement for logging. Generated candidates
// and profiling statements routinely exceed what a log line should carry.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	if len(query) > MaxQueryLogLength {
		query = query[:MaxQueryLogLength] + "..."
	}
	return redactSecrets(query)
}

// TruncateString shortens s to maxLen bytes and marks the cut with an
// ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
