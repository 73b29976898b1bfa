// Package observability provides structured logging with credential
// redaction for audit-safe output.
package observability

import (
	"regexp"
)

// Redactor masks credential material in log output.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a redactor covering the key formats the service
// handles.
func NewRedactor() *Redactor {
	r := &Redactor{}
	// Order matters: the longer claude prefix must match before the
	// generic sk- pattern.
	r.AddPattern(`sk-ant-[a-zA-Z0-9\-_]{8,}`, "[REDACTED_CLAUDE_KEY]")
	r.AddPattern(`sk-[a-zA-Z0-9\-_]{8,}`, "[REDACTED_API_KEY]")
	r.AddPattern(`Bearer\s+[a-zA-Z0-9\-_\.]+`, "Bearer [REDACTED]")
	return r
}

// AddPattern registers a custom redaction pattern. Invalid patterns are
// skipped.
func (r *Redactor) AddPattern(pattern, replacement string) {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return
	}
	r.patterns = append(r.patterns, &redactPattern{regex: regex, replacement: replacement})
}

// Redact applies every pattern to the input string.
func (r *Redactor) Redact(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}
