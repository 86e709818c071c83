package service

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	// KindUnknown is the catch-all for server errors and unexpected failures.
	KindUnknown ErrorKind = iota
	// KindAuth means the credential is missing, invalid or expired.
	KindAuth
	// KindValidation is a 4xx answer carrying a message for the user.
	KindValidation
	// KindNetwork is a transport-level failure.
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// NotAuthenticated is the message carried by every auth error.
const NotAuthenticated = "Not authenticated"

// Error is the tagged result of a failed backend call.
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when no response was received
	Message string // human-readable message without code prefix
	Fields  map[string][]string
	Err     error
}

// Error renders the message with its machine-readable code prefix.
func (e *Error) Error() string {
	switch e.Kind {
	case KindAuth:
		if e.Message == "" || e.Message == NotAuthenticated {
			return NotAuthenticated
		}
		return NotAuthenticated + ": " + e.Message
	case KindValidation:
		return fmt.Sprintf("API_ERROR_%d: %s", e.Status, e.Message)
	case KindNetwork:
		return "NETWORK_ERROR: " + e.Message
	default:
		if e.Status != 0 {
			return fmt.Sprintf("API_ERROR_%d: %s", e.Status, e.Message)
		}
		return "UNKNOWN_ERROR: " + e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNotAuthenticated is returned when a call needs a credential that is not available.
var ErrNotAuthenticated = &Error{Kind: KindAuth, Status: 401, Message: NotAuthenticated}

// KindOf returns the kind of err. Errors that are not *Error are KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	return err != nil && KindOf(err) == KindAuth
}

// IsInvalidPage reports whether err is the API's answer to a list page past
// the last one: a 404 from the paginated listing.
func IsInvalidPage(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValidation && e.Status == 404
}

var codePrefix = regexp.MustCompile(`^(?:[A-Z][A-Z_]*_\d+|NETWORK_ERROR|UNKNOWN_ERROR):\s*`)

// DisplayMessage strips a leading error-code prefix such as "API_ERROR_400: "
// or "NETWORK_ERROR: " so the message can be shown to a person.
func DisplayMessage(msg string) string {
	return codePrefix.ReplaceAllString(msg, "")
}
