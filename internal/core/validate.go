package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ValidationError reports an invalid analysis request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a request validation failure
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var languagePattern = regexp.MustCompile(`^[a-z]{2}$`)

const (
	defaultLanguage = "en"
	defaultDays     = 7
	maxDays         = 365
)

// Normalize applies defaults and validates the request in place.
// Sender addresses are trimmed, the language is lowercased, and
// zero-valued language/days fall back to their defaults.
func (r *AnalysisRequest) Normalize() error {
	if len(r.SenderEmails) == 0 {
		return &ValidationError{Field: "sender_emails", Message: "at least one sender email is required"}
	}
	validated := make([]string, 0, len(r.SenderEmails))
	for _, email := range r.SenderEmails {
		stripped := strings.TrimSpace(email)
		if !emailPattern.MatchString(stripped) {
			return &ValidationError{Field: "sender_emails", Message: fmt.Sprintf("invalid email format: %q", email)}
		}
		validated = append(validated, stripped)
	}
	r.SenderEmails = validated

	if r.Language == "" {
		r.Language = defaultLanguage
	}
	r.Language = strings.ToLower(r.Language)
	if !languagePattern.MatchString(r.Language) {
		return &ValidationError{Field: "language", Message: fmt.Sprintf("invalid language code: %q, must be ISO 639-1", r.Language)}
	}
	if tag, err := language.Parse(r.Language); err != nil {
		return &ValidationError{Field: "language", Message: fmt.Sprintf("unknown language code: %q", r.Language)}
	} else if _, conf := tag.Base(); conf == language.No {
		return &ValidationError{Field: "language", Message: fmt.Sprintf("unknown language code: %q", r.Language)}
	}

	if r.Days == 0 {
		r.Days = defaultDays
	}
	if r.Days < 1 || r.Days > maxDays {
		return &ValidationError{Field: "days", Message: fmt.Sprintf("must be between 1 and %d, got %d", maxDays, r.Days)}
	}

	return nil
}
