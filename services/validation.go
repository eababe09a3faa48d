package services

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxUsernameLength  = 50
	maxGroupNameLength = 100
	maxReasonLength    = 500
	maxActivityName    = 100
	maxLocationLength  = 255
	maxDetailsLength   = 2000
)

// NormalizeEmail case-folds and trims an address so that lookups and the
// unique index treat Alice@Example.com and alice@example.com as one account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
