package domain

import (
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password, counted in characters.
const MinPasswordLength = 8

// PasswordSpecialCharacters is the set a password must draw at least one character from.
const PasswordSpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// PasswordErrors reports, per requirement, whether the password meets it.
type PasswordErrors struct {
	MinLength      bool `json:"minLength"`
	HasUpperCase   bool `json:"hasUpperCase"`
	HasLowerCase   bool `json:"hasLowerCase"`
	HasNumber      bool `json:"hasNumber"`
	HasSpecialChar bool `json:"hasSpecialChar"`
}

// PasswordCheck is the outcome of ValidatePassword.
type PasswordCheck struct {
	IsValid bool           `json:"isValid"`
	Errors  PasswordErrors `json:"errors"`
}

// ValidatePassword evaluates the five strength requirements independently.
// Letter and digit classes are ASCII only.
func ValidatePassword(password string) PasswordCheck {
	var e PasswordErrors
	e.MinLength = utf8.RuneCountInString(password) >= MinPasswordLength

	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			e.HasUpperCase = true
		case r >= 'a' && r <= 'z':
			e.HasLowerCase = true
		case r >= '0' && r <= '9':
			e.HasNumber = true
		case strings.ContainsRune(PasswordSpecialCharacters, r):
			e.HasSpecialChar = true
		}
	}

	return PasswordCheck{
		IsValid: e.MinLength && e.HasUpperCase && e.HasLowerCase && e.HasNumber && e.HasSpecialChar,
		Errors:  e,
	}
}

// Message describes the first unmet requirement, or "" when the password is valid.
func (c PasswordCheck) Message() string {
	switch {
	case !c.Errors.MinLength:
		return "Password must be at least 8 characters"
	case !c.Errors.HasUpperCase:
		return "Password must contain an uppercase letter"
	case !c.Errors.HasLowerCase:
		return "Password must contain a lowercase letter"
	case !c.Errors.HasNumber:
		return "Password must contain a number"
	case !c.Errors.HasSpecialChar:
		return "Password must contain a special character"
	}
	return ""
}
