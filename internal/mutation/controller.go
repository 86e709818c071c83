// Package mutation runs task writes and routes their outcomes: success
// notifications and a list refresh, failure notifications with the code
// prefix stripped, or the session-expiry signal for auth failures.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"todo/internal/expiry"
	"todo/internal/logging"
	"todo/internal/service"
)

// DeletePrompt is the confirmation asked before a delete.
const DeletePrompt = "Are you sure you want to delete this task?"

// Kind is the class of a mutation outcome.
type Kind int

const (
	// Success means the server accepted the write.
	Success Kind = iota
	// Skipped means nothing was sent: a no-op, an unconfirmed delete or a
	// duplicate of an action already in flight.
	Skipped
	// ValidationFailure covers every non-auth failure. ErrKind tells
	// validation, network and unknown failures apart.
	ValidationFailure
	// AuthFailure means the session is missing or expired.
	AuthFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case ValidationFailure:
		return "failure"
	case AuthFailure:
		return "auth failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the result of one mutation.
type Outcome struct {
	Kind    Kind
	Task    service.Task      // the task as returned by the server, on Success
	Message string            // display message, on ValidationFailure
	ErrKind service.ErrorKind // on ValidationFailure
	Err     error             // the underlying error, on failures
}

// Mutator is the subset of service.Service the controller writes through.
type Mutator interface {
	CreateTask(ctx context.Context, fields service.TaskFields) (service.Task, error)
	UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Refresher reloads the list after a successful write.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Notifier shows confirmations and failures to the user.
type Notifier interface {
	Success(title, description string)
	Failure(title, description string)
}

// Confirmer asks the user to confirm an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Options configure a Controller. Nil fields are allowed; a nil Confirmer
// refuses every delete.
type Options struct {
	Bus       *expiry.Bus
	Notifier  Notifier
	Confirmer Confirmer
	Refresher Refresher
	Logger    *slog.Logger
}

// Controller runs task mutations.
type Controller struct {
	api       Mutator
	bus       *expiry.Bus
	notify    Notifier
	confirm   Confirmer
	refresher Refresher
	log       *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// New creates a controller writing through api.
func New(api Mutator, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	return &Controller{
		api:       api,
		bus:       opts.Bus,
		notify:    opts.Notifier,
		confirm:   opts.Confirmer,
		refresher: opts.Refresher,
		log:       opts.Logger,
		inflight:  make(map[string]bool),
	}
}

// SetRefresher replaces the list refreshed after successful writes.
func (c *Controller) SetRefresher(r Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresher = r
}

// Create creates a task. A blank title fails without a network call.
func (c *Controller) Create(ctx context.Context, fields service.TaskFields) Outcome {
	const failTitle = "Failed to create task"

	fields.Title = strings.TrimSpace(fields.Title)
	if fields.Title == "" {
		return c.reject(failTitle, "Title is required")
	}
	if fields.Status == "" {
		fields.Status = service.StatusNotStarted
	}
	if fields.Priority == "" {
		fields.Priority = service.PriorityMid
	}

	task, err := c.api.CreateTask(ctx, fields)
	if err != nil {
		return c.fail(failTitle, err)
	}
	c.succeed(ctx, "Task created successfully!",
		fmt.Sprintf("%q has been added to your task list.", task.Title))
	return Outcome{Kind: Success, Task: task}
}

// Update applies patch to task. An empty patch is skipped.
func (c *Controller) Update(ctx context.Context, task service.Task, patch service.TaskPatch) Outcome {
	const failTitle = "Failed to update task"

	if patch.IsEmpty() {
		return Outcome{Kind: Skipped}
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return c.reject(failTitle, "Title is required")
	}

	release, ok := c.acquire("update", task.ID)
	if !ok {
		return Outcome{Kind: Skipped}
	}
	defer release()

	updated, err := c.api.UpdateTask(ctx, task.ID, patch)
	if err != nil {
		return c.fail(failTitle, err)
	}
	c.succeed(ctx, "Task updated", fmt.Sprintf("Task %q has been updated.", task.Title))
	return Outcome{Kind: Success, Task: updated}
}

// SetStatus changes the status of task. Setting the current status is skipped.
// Only the status is sent; completed is left as is.
func (c *Controller) SetStatus(ctx context.Context, task service.Task, status service.Status) Outcome {
	if status == task.Status {
		return Outcome{Kind: Skipped}
	}
	if !status.Valid() {
		return c.reject("Failed to update status", fmt.Sprintf("invalid status: %s", status))
	}

	release, ok := c.acquire("status", task.ID)
	if !ok {
		return Outcome{Kind: Skipped}
	}
	defer release()

	updated, err := c.api.UpdateTask(ctx, task.ID, service.TaskPatch{Status: &status})
	if err != nil {
		return c.fail("Failed to update status", err)
	}
	c.succeed(ctx, "Task status updated", fmt.Sprintf("Status of task %q has been updated.", task.Title))
	return Outcome{Kind: Success, Task: updated}
}

// MarkComplete sets completed and the done status. A completed task is skipped.
func (c *Controller) MarkComplete(ctx context.Context, task service.Task) Outcome {
	if task.Completed {
		return Outcome{Kind: Skipped}
	}

	release, ok := c.acquire("complete", task.ID)
	if !ok {
		return Outcome{Kind: Skipped}
	}
	defer release()

	completed := true
	done := service.StatusDone
	updated, err := c.api.UpdateTask(ctx, task.ID, service.TaskPatch{Completed: &completed, Status: &done})
	if err != nil {
		return c.fail("Failed to complete task", err)
	}
	c.succeed(ctx, "Task completed", fmt.Sprintf("%q marked as complete.", task.Title))
	return Outcome{Kind: Success, Task: updated}
}

// Delete removes task after the user confirms. Without confirmation nothing is sent.
func (c *Controller) Delete(ctx context.Context, task service.Task) Outcome {
	if c.confirm == nil || !c.confirm.Confirm(ctx, DeletePrompt) {
		return Outcome{Kind: Skipped}
	}

	release, ok := c.acquire("delete", task.ID)
	if !ok {
		return Outcome{Kind: Skipped}
	}
	defer release()

	if err := c.api.DeleteTask(ctx, task.ID); err != nil {
		return c.fail("Failed to delete task", err)
	}
	c.succeed(ctx, "Task deleted", fmt.Sprintf("%q has been deleted.", task.Title))
	return Outcome{Kind: Success, Task: task}
}

// acquire marks action on id as in flight. It fails if the same action is
// already running for that task.
func (c *Controller) acquire(action, id string) (release func(), ok bool) {
	key := action + ":" + id
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[key] {
		c.log.Debug("duplicate action ignored", "action", action, "task", id)
		return nil, false
	}
	c.inflight[key] = true
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.inflight, key)
	}, true
}

func (c *Controller) succeed(ctx context.Context, title, description string) {
	c.notify.Success(title, description)

	c.mu.Lock()
	r := c.refresher
	c.mu.Unlock()
	if r == nil {
		return
	}
	if err := r.Refresh(ctx); err != nil {
		if service.IsAuth(err) {
			c.bus.Signal()
			return
		}
		c.log.Warn("list refresh failed", "error", err)
	}
}

// fail routes a failed call. Auth failures raise the expiry signal and show
// nothing else; everything else is shown with its code prefix stripped.
func (c *Controller) fail(title string, err error) Outcome {
	if service.IsAuth(err) {
		c.log.Debug("session expired during mutation", "error", err)
		c.bus.Signal()
		return Outcome{Kind: AuthFailure, Err: err}
	}

	kind := service.KindUnknown
	var apiErr *service.Error
	if errors.As(err, &apiErr) {
		kind = apiErr.Kind
	} else {
		c.log.Warn("unexpected mutation error", "error", err)
	}

	msg := service.DisplayMessage(err.Error())
	if kind == service.KindUnknown && apiErr == nil {
		msg = "An unexpected error occurred"
	}
	c.notify.Failure(title, msg)
	return Outcome{Kind: ValidationFailure, Message: msg, ErrKind: kind, Err: err}
}

func (c *Controller) reject(title, msg string) Outcome {
	c.notify.Failure(title, msg)
	return Outcome{Kind: ValidationFailure, Message: msg, ErrKind: service.KindValidation}
}

type discardNotifier struct{}

func (discardNotifier) Success(string, string) {}
func (discardNotifier) Failure(string, string) {}
