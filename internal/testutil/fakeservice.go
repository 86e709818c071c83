// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"todo/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// Tasks are kept in insertion order, which is also the list order.
type FakeService struct {
	mu    sync.RWMutex
	tasks []service.Task
	user  service.User
	now   func() time.Time

	// Accepted credentials for Login; Register accepts any new email.
	Email    string
	Password string

	// Error injection for testing
	ListTasksErr   error
	GetTaskErr     error
	CreateTaskErr  error
	UpdateTaskErr  error
	DeleteTaskErr  error
	LoginErr       error
	RegisterErr    error
	GoogleLoginErr error
	MeErr          error
	UpdateMeErr    error

	// Recorded calls
	Calls        map[string]int
	LastQuery    service.ListQuery
	LastPatch    service.TaskPatch
	LastUserEdit service.UserPatch
	LastGoogle   service.GoogleIdentity
}

// NewFakeService creates an empty FakeService with a signed-up user.
func NewFakeService() *FakeService {
	return &FakeService{
		user:     service.User{ID: 1, Email: "ada@example.com", FullName: "Ada Lovelace", Timezone: "UTC"},
		Email:    "ada@example.com",
		Password: "correct horse",
		now:      time.Now,
		Calls:    make(map[string]int),
	}
}

// SetClock sets the time used for created_at.
func (f *FakeService) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// AddTask appends a task. Missing fields get defaults.
func (f *FakeService) AddTask(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = service.StatusNotStarted
	}
	if t.Priority == "" {
		t.Priority = service.PriorityMid
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = f.now()
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of every task.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

// User returns the current profile.
func (f *FakeService) User() service.User {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.user
}

// CallCount returns how many times method was called.
func (f *FakeService) CallCount(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.Calls[method]
}

func (f *FakeService) record(method string) {
	f.Calls[method]++
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, q service.ListQuery) (service.TaskPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTasks")
	f.LastQuery = q
	if f.ListTasksErr != nil {
		return service.TaskPage{}, f.ListTasksErr
	}

	var matching []service.Task
	for _, t := range f.tasks {
		if q.Completed != nil && t.Completed != *q.Completed {
			continue
		}
		matching = append(matching, t)
	}

	size := q.PageSize
	if size < 1 {
		size = 10
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if page > 1 && start >= len(matching) {
		// The API rejects pages past the end; only page 1 may be empty.
		return service.TaskPage{}, &service.Error{Kind: service.KindValidation, Status: 404, Message: "Invalid page."}
	}
	results := []service.Task{}
	for i := start; i < start+size && i < len(matching); i++ {
		results = append(results, matching[i])
	}
	return service.TaskPage{Count: len(matching), Results: results}, nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, notFound()
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	f.mu.Lock()
	f.record("CreateTask")
	err := f.CreateTaskErr
	f.mu.Unlock()
	if err != nil {
		return service.Task{}, err
	}
	if fields.Title == "" {
		return service.Task{}, &service.Error{
			Kind: service.KindValidation, Status: 400, Message: "title: This field is required.",
			Fields: map[string][]string{"title": {"This field is required."}},
		}
	}
	return f.AddTask(service.Task{
		Title:       fields.Title,
		Description: fields.Description,
		Status:      fields.Status,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
	}), nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateTask")
	f.LastPatch = patch
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		t := &f.tasks[i]
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.DueDate != nil {
			due := *patch.DueDate
			t.DueDate = &due
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		return *t, nil
	}
	return service.Task{}, notFound()
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return notFound()
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (service.AuthTokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Login")
	if f.LoginErr != nil {
		return service.AuthTokens{}, f.LoginErr
	}
	if creds.Email != f.Email || creds.Password != f.Password {
		return service.AuthTokens{}, &service.Error{
			Kind: service.KindValidation, Status: 401, Message: "No active account found with the given credentials",
		}
	}
	return f.tokens(), nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, creds service.Credentials) (service.AuthTokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Register")
	if f.RegisterErr != nil {
		return service.AuthTokens{}, f.RegisterErr
	}
	if creds.Email == f.Email {
		return service.AuthTokens{}, &service.Error{
			Kind: service.KindValidation, Status: 400, Message: "email: user with this email already exists.",
		}
	}
	f.Email, f.Password = creds.Email, creds.Password
	f.user = service.User{ID: f.user.ID + 1, Email: creds.Email, Timezone: "UTC"}
	return f.tokens(), nil
}

// GoogleLogin implements service.Service.
func (f *FakeService) GoogleLogin(ctx context.Context, id service.GoogleIdentity) (service.AuthTokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GoogleLogin")
	f.LastGoogle = id
	if f.GoogleLoginErr != nil {
		return service.AuthTokens{}, f.GoogleLoginErr
	}
	if email, ok := id.UserInfo["email"].(string); ok {
		f.user.Email = email
	}
	return f.tokens(), nil
}

// Me implements service.Service.
func (f *FakeService) Me(ctx context.Context) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Me")
	if f.MeErr != nil {
		return service.User{}, f.MeErr
	}
	return f.user, nil
}

// UpdateMe implements service.Service.
func (f *FakeService) UpdateMe(ctx context.Context, patch service.UserPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateMe")
	f.LastUserEdit = patch
	if f.UpdateMeErr != nil {
		return f.UpdateMeErr
	}
	if patch.Name != nil {
		f.user.FullName = *patch.Name
	}
	if patch.Timezone != nil {
		f.user.Timezone = *patch.Timezone
	}
	if patch.Password != nil {
		f.Password = *patch.Password
	}
	return nil
}

// tokens returns opaque (non-JWT) tokens; sessions built from them use the default TTLs.
func (f *FakeService) tokens() service.AuthTokens {
	return service.AuthTokens{
		Access:  "access-" + uuid.NewString(),
		Refresh: "refresh-" + uuid.NewString(),
		User:    f.user,
	}
}

func notFound() error {
	return &service.Error{Kind: service.KindValidation, Status: 404, Message: "Not found."}
}
