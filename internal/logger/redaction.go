package logger

import (
	"io"
	"regexp"
)

// Redactor redacts sensitive information from logs. Connection
// strings and encryption keys for user databases must never reach a
// log file, even at debug level.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor creates a new redactor with default patterns
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*regexp.Regexp{
			// Connection string credentials
			regexp.MustCompile(`(?i)(user|uid)["\s:=]+[^\s";]+`),
			regexp.MustCompile(`(?i)password["\s:=]+[^\s";]+`),
			regexp.MustCompile(`(?i)pwd["\s:=]+[^\s";]+`),

			// SQLite/SQLCipher encryption keys
			regexp.MustCompile(`(?i)_key["\s:=]+[^\s"&;]+`),
			regexp.MustCompile(`(?i)cipher[_-]?key["\s:=]+[^\s"&;]+`),

			// Bearer tokens (plugin marketplace requests)
			regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`),

			// Auth tokens
			regexp.MustCompile(`token["\s:=]+[a-zA-Z0-9._-]{20,}`),

			// Generic secrets
			regexp.MustCompile(`secret["\s:=]+[^\s"]+`),
		},
	}
}

// AddPattern adds a custom redaction pattern
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.patterns = append(r.patterns, re)
	return nil
}

// Redact redacts sensitive information from a string
func (r *Redactor) Redact(s string) string {
	result := s
	for _, pattern := range r.patterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}

// Wrap wraps an io.Writer to redact sensitive information
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{
		writer:   w,
		redactor: r,
	}
}

// redactingWriter is an io.Writer that redacts sensitive information
type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

func (w *redactingWriter) Write(p []byte) (n int, err error) {
	redacted := w.redactor.Redact(string(p))
	return w.writer.Write([]byte(redacted))
}
