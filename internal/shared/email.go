package shared

import (
	"net/mail"
	"strings"
)

const CodeInvalidEmail = "INVALID_EMAIL"

// NormalizeEmail trims and lower-cases an address after checking its syntax.
// Every cache key derived from an email uses this form.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", Validation(CodeInvalidEmail, "invalid email %q", raw)
	}
	return email, nil
}
