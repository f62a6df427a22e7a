package validation

import (
	"regexp"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Account and contract addresses: 0x followed by 40 hex characters.
var addressRe = regexp.MustCompile(`^0[xX][0-9a-fA-F]{40}$`)

// Token ids are unsigned base-10 integers up to 78 digits (uint256).
var tokenIDRe = regexp.MustCompile(`^[0-9]{1,78}$`)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidAddress(addr string) bool {
	return addressRe.MatchString(addr)
}

// IsZeroAddress reports whether addr is the all-zero address.
func IsZeroAddress(addr string) bool {
	if !IsValidAddress(addr) {
		return false
	}
	for _, r := range addr[2:] {
		if r != '0' {
			return false
		}
	}
	return true
}

func IsValidTokenID(id string) bool {
	return tokenIDRe.MatchString(id)
}

// IsPositiveInteger reports whether d is a whole number strictly greater than zero.
func IsPositiveInteger(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(0))
}

// IsValidDuration reports whether 0 < d <= max.
func IsValidDuration(d, max time.Duration) bool {
	return d > 0 && d <= max
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword: at least 8 characters with a letter, a digit and a special character.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}
