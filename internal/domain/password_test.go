package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestValidatePassword_Examples(t *testing.T) {
	strong := ValidatePassword("Abc123!@")
	assert.True(t, strong.IsValid)
	assert.Empty(t, strong.Message())

	weak := ValidatePassword("abc")
	assert.False(t, weak.IsValid)
	assert.False(t, weak.Errors.MinLength)
	assert.False(t, weak.Errors.HasUpperCase)
	assert.True(t, weak.Errors.HasLowerCase)
	assert.False(t, weak.Errors.HasNumber)
	assert.False(t, weak.Errors.HasSpecialChar)
	assert.Equal(t, "Password must be at least 8 characters", weak.Message())
}

func TestValidatePassword_EachRequirement(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     PasswordErrors
	}{
		{"missing upper", "abcdef1!", PasswordErrors{MinLength: true, HasLowerCase: true, HasNumber: true, HasSpecialChar: true}},
		{"missing lower", "ABCDEF1!", PasswordErrors{MinLength: true, HasUpperCase: true, HasNumber: true, HasSpecialChar: true}},
		{"missing digit", "Abcdefg!", PasswordErrors{MinLength: true, HasUpperCase: true, HasLowerCase: true, HasSpecialChar: true}},
		{"special outside set", "Abcdef1_", PasswordErrors{MinLength: true, HasUpperCase: true, HasLowerCase: true, HasNumber: true}},
		{"quote and brace count", `Ab1"{}xyz`, PasswordErrors{MinLength: true, HasUpperCase: true, HasLowerCase: true, HasNumber: true, HasSpecialChar: true}},
		{"non-ascii letters ignored", "ÄÖÜäöü1!", PasswordErrors{MinLength: true, HasNumber: true, HasSpecialChar: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePassword(tt.password)
			assert.Equal(t, tt.want, got.Errors)
		})
	}
}

func TestValidatePassword_ValidIsConjunction(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pw := rapid.String().Draw(t, "password")
		c := ValidatePassword(pw)
		e := c.Errors
		want := e.MinLength && e.HasUpperCase && e.HasLowerCase && e.HasNumber && e.HasSpecialChar
		if c.IsValid != want {
			t.Fatalf("IsValid = %v, want %v for %q", c.IsValid, want, pw)
		}
		if c.IsValid != (c.Message() == "") {
			t.Fatalf("Message %q disagrees with IsValid %v", c.Message(), c.IsValid)
		}
	})
}
