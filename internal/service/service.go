package service

import "context"

// Service defines the interface for the remote to-do backend.
// All HTTP calls go through this interface; commands never build requests.
//
// Authenticated methods return an *Error of KindAuth without touching the
// network when no valid access token is available.
type Service interface {
	// ListTasks returns one page of tasks with the server-reported count.
	ListTasks(ctx context.Context, q ListQuery) (TaskPage, error)

	// GetTask returns a single task by ID.
	GetTask(ctx context.Context, id string) (Task, error)

	// CreateTask creates a task and returns it as stored by the server.
	CreateTask(ctx context.Context, fields TaskFields) (Task, error)

	// UpdateTask applies a partial update and returns the updated task.
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task. Deletion is irreversible.
	DeleteTask(ctx context.Context, id string) error

	// Login exchanges credentials for tokens.
	Login(ctx context.Context, creds Credentials) (AuthTokens, error)

	// Register creates an account and returns tokens for it.
	Register(ctx context.Context, creds Credentials) (AuthTokens, error)

	// GoogleLogin exchanges a Google identity for tokens.
	GoogleLogin(ctx context.Context, id GoogleIdentity) (AuthTokens, error)

	// Me returns the signed-in user's profile.
	Me(ctx context.Context) (User, error)

	// UpdateMe applies a partial profile update.
	UpdateMe(ctx context.Context, patch UserPatch) error
}
