package logger

import (
	"regexp"
	"strings"
)

// SensitiveDataPatterns contains regex patterns for values that must never reach a log file
var SensitiveDataPatterns = []*regexp.Regexp{
	// Bearer tokens
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),

	// API keys, tokens and secrets
	regexp.MustCompile(`(?i)((api|access|auth|token|secret|passw(or)?d)[0-9a-z\-_\.]*[\s:=]+)([^;,\s]{5,})`),

	// Sentry DSN keys: https://<key>@o0.ingest.sentry.io/1
	regexp.MustCompile(`(https?://)[0-9a-f]{16,}`),
}

// mysqlDSNPassword matches the password part of a go-sql-driver DSN
var mysqlDSNPassword = regexp.MustCompile(`^([^:@/]+):([^@]*)@`)

// RedactSensitiveData replaces sensitive information with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	for _, pattern := range SensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "$1[REDACTED]")
	}

	return input
}

// RedactDSN hides the password of a MySQL DSN such as
// "zcl:secret@tcp(localhost:3306)/zcl?parseTime=true".
// SQLite DSNs carry no credentials and pass through unchanged.
func RedactDSN(dsn string) string {
	if !strings.Contains(dsn, "@") {
		return dsn
	}
	return mysqlDSNPassword.ReplaceAllString(dsn, "$1:[REDACTED]@")
}
