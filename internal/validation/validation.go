// Package validation holds input validation rules shared by handlers.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

// Handle length bounds, shared with handle derivation.
const (
	HandleMinLen = 3
	HandleMaxLen = 24
)

const (
	minPasswordLen = 12
	maxPasswordLen = 128
	maxEmailLen    = 254
)

// ValidateHandle checks the profile handle. Handles are stored lowercase and
// may not contain whitespace; they are compared case-sensitively everywhere.
func ValidateHandle(handle string) error {
	if len(handle) < HandleMinLen || len(handle) > HandleMaxLen {
		return fmt.Errorf("handle must be between %d and %d characters", HandleMinLen, HandleMaxLen)
	}
	if handle != strings.ToLower(handle) {
		return errors.New("handle must be lowercase")
	}
	for _, r := range handle {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' {
			return errors.New("handle may only contain lowercase letters, digits, and underscores")
		}
	}
	first := handle[0]
	if first < 'a' || first > 'z' {
		return errors.New("handle must start with a letter")
	}
	if handle[len(handle)-1] == '_' {
		return errors.New("handle may not end with an underscore")
	}
	return nil
}

// ValidateEmail checks basic RFC 5322 shape and length.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLen {
		return fmt.Errorf("email must be at most %d characters", maxEmailLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address")
	}
	if strings.HasSuffix(email, ".") || !strings.Contains(email, "@") {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidatePassword enforces minimum password complexity.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return errors.New("password must contain upper and lower case letters, a digit, and a special character")
	}
	return nil
}

// ValidateReportReason bounds free-text report reasons.
func ValidateReportReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errors.New("reason is required")
	}
	if len(reason) > 500 {
		return errors.New("reason must be at most 500 characters")
	}
	return nil
}
