// internal/utils/phone.go
package utils

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrPhoneLength = errors.New("Contact number must be exactly 11 digits.")
	ErrPhonePrefix = errors.New("Contact number must start with 09.")
)

// NormalizePhone strips every non-digit and checks the Philippine mobile
// format: 11 digits starting with 09.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) != 11 {
		return "", ErrPhoneLength
	}
	if !strings.HasPrefix(digits, "09") {
		return "", ErrPhonePrefix
	}
	return digits, nil
}
