// Package exitcode defines exit codes for the CLI.
package exitcode

import "todo/internal/service"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid input, rejected by the API).
	UserError = 1

	// AuthError indicates a missing or expired session.
	AuthError = 2

	// BackendError indicates a network failure or an unexpected API error.
	BackendError = 3
)

// FromError maps a backend error to an exit code.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	switch service.KindOf(err) {
	case service.KindAuth:
		return AuthError
	case service.KindValidation:
		return UserError
	default:
		return BackendError
	}
}
