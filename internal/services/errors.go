// internal/services/errors.go
package services

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	ErrInvalidCredentials = errors.New("Invalid username or password.")
	ErrAccountDisabled    = errors.New("Your account has been disabled.")
)

// UserMessage strips the sentinel prefix so the text can be shown to a user.
func UserMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrForbidden} {
		prefix := sentinel.Error() + ": "
		if errors.Is(err, sentinel) && len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
