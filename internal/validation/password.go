// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	loginRegex    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	fullNameRegex = regexp.MustCompile(`^\p{Lu}\p{Ll}+ \p{Lu}\p{Ll}+$`)
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	minLoginLen    = 4
	maxLoginLen    = 20
	maxEmailLen    = 254
)

// ValidatePassword checks if a password meets the account rules: at least
// one uppercase letter, one lowercase letter and one digit.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}
	if n > maxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLen)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}
	return nil
}

// ValidateLogin checks if a login meets requirements
func ValidateLogin(login string) error {
	if len(login) < minLoginLen {
		return fmt.Errorf("login must be at least %d characters long", minLoginLen)
	}
	if len(login) > maxLoginLen {
		return fmt.Errorf("login must not exceed %d characters", maxLoginLen)
	}

	if !loginRegex.MatchString(login) {
		return fmt.Errorf("login can only contain letters, numbers, underscores, and hyphens")
	}

	// Cannot start or end with underscore/hyphen
	first, last := login[0], login[len(login)-1]
	if first == '_' || first == '-' || last == '_' || last == '-' {
		return fmt.Errorf("login cannot start or end with underscore or hyphen")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	if len(email) > maxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", maxEmailLen)
	}

	return nil
}

// ValidateFullName requires two capitalised words, e.g. "Ada Lovelace".
func ValidateFullName(name string) error {
	if !fullNameRegex.MatchString(name) {
		return fmt.Errorf("full name must consist of two words, each starting with a capital letter")
	}
	return nil
}
