package cli_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"todo/internal/backend/todoapi"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/testutil"
)

// testDispatcher creates a dispatcher backed by svc and an in-memory session store.
func testDispatcher(svc *testutil.FakeService, store *session.MemoryStore, input string) *cli.Dispatcher {
	factory := func(ctx context.Context, cfg *config.Config, _ session.Store, _ *slog.Logger) (service.Service, error) {
		return svc, nil
	}
	return cli.NewDispatcher(commands.DefaultRegistry, factory, cli.Options{
		Sessions: func(*config.Config) session.Store { return store },
		In:       strings.NewReader(input),
	})
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	t.Setenv("TODO_TIMEZONE", "UTC")
	var outBuf, errBuf bytes.Buffer
	args = append(args, "--config", t.TempDir())
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := testDispatcher(testutil.NewFakeService(), session.NewMemoryStore(nil), "")

	var stdout, stderr bytes.Buffer
	code := d.Run(context.Background(), []string{"unknowncmd"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	d := testDispatcher(testutil.NewFakeService(), session.NewMemoryStore(nil), "")

	var stdout, stderr bytes.Buffer
	code := d.Run(context.Background(), []string{"--quiet"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	d := testDispatcher(testutil.NewFakeService(), session.NewMemoryStore(nil), "")
	stdout, stderr, code := run(t, d, "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	d := testDispatcher(testutil.NewFakeService(), session.NewMemoryStore(nil), "")
	stdout, stderr, code := run(t, d, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todo 0.1.0\n" {
		t.Errorf("expected 'todo 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_FlagErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"help", "--unknown"}, "error: unknown flag: --unknown\n"},
		{[]string{"list", "--page"}, "error: flag needs an argument: --page\n"},
	}
	for _, tt := range tests {
		d := testDispatcher(testutil.NewFakeService(), session.NewMemoryStore(nil), "")
		var stdout, stderr bytes.Buffer
		code := d.Run(context.Background(), tt.args, &stdout, &stderr)

		if code != exitcode.UserError {
			t.Errorf("%v: expected exit code %d, got %d", tt.args, exitcode.UserError, code)
		}
		if stderr.String() != tt.want {
			t.Errorf("%v: expected %q, got %q", tt.args, tt.want, stderr.String())
		}
	}
}

func TestDispatcher_CommandHelpFlag(t *testing.T) {
	d := testDispatcher(testutil.NewFakeService(), session.NewMemoryStore(nil), "")
	stdout, _, code := run(t, d, "rm", "--help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "Delete tasks\n\nUsage:\n  todo rm [--yes] <ref...>\n" {
		t.Errorf("unexpected usage %q", stdout)
	}
}

func TestDispatcher_DefaultsToList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{Title: "Write report"})
	d := testDispatcher(svc, session.NewMemoryStore(nil), "")

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TODO_TIMEZONE", "UTC")
	var stdout, stderr bytes.Buffer
	code := d.Run(context.Background(), nil, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d (stderr %q)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Write report") || svc.CallCount("ListTasks") != 1 {
		t.Errorf("expected the task list, got %q", stdout.String())
	}
}

func TestDispatcher_SessionExpired(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = service.ErrNotAuthenticated
	store := session.NewMemoryStore(session.New("a", "r", service.User{Email: "ada@example.com"}, time.Now()))
	d := testDispatcher(svc, store, "")

	_, stderr, code := run(t, d, "list")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	want := "Session expired. Please log in again to continue.\nrun: todo login\n"
	if stderr != want {
		t.Errorf("expected %q, got %q", want, stderr)
	}
	if _, err := store.Get(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected the session to be cleared, got %v", err)
	}
}

func TestDispatcher_SessionExpiredDuringMutation(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "t1", Title: "Write report"})
	svc.UpdateTaskErr = service.ErrNotAuthenticated
	store := session.NewMemoryStore(session.New("a", "r", service.User{}, time.Now()))
	d := testDispatcher(svc, store, "")

	_, stderr, code := run(t, d, "done", "1")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if strings.Count(stderr, "Session expired.") != 1 || strings.Contains(stderr, "Failed") {
		t.Errorf("expected only the expiry message, got %q", stderr)
	}
}

func TestDispatcher_ValidationErrorKeepsSession(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = &service.Error{Kind: service.KindValidation, Status: 400, Message: "due_date: Date is in the past."}
	store := session.NewMemoryStore(session.New("a", "r", service.User{}, time.Now()))
	d := testDispatcher(svc, store, "")

	_, stderr, code := run(t, d, "add", "x")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: Failed to create task: due_date: Date is in the past.\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, err := store.Get(context.Background()); err != nil {
		t.Errorf("validation errors must keep the session, got %v", err)
	}
}

func TestDispatcher_FactoryError(t *testing.T) {
	factory := func(context.Context, *config.Config, session.Store, *slog.Logger) (service.Service, error) {
		return nil, errors.New("invalid api_url")
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, factory, cli.Options{
		Sessions: func(*config.Config) session.Store { return session.NewMemoryStore(nil) },
	})

	_, stderr, code := run(t, d, "list")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: invalid api_url\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_LogoutNeedsNoBackend(t *testing.T) {
	store := session.NewMemoryStore(session.New("a", "r", service.User{}, time.Now()))
	d := cli.NewDispatcher(commands.DefaultRegistry, nil, cli.Options{
		Sessions: func(*config.Config) session.Store { return store },
	})

	stdout, _, code := run(t, d, "logout")

	if code != exitcode.Success || stdout != "ok\n" {
		t.Errorf("expected ok, got %d %q", code, stdout)
	}
}

func TestDispatcher_WrongSessionKeyKeepsSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	signedIn := session.New("a", "r", service.User{Email: "ada@example.com"}, time.Now())
	if err := session.NewFileStore(path, "right-key").Set(ctx, signedIn); err != nil {
		t.Fatal(err)
	}

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	factory := func(_ context.Context, _ *config.Config, store session.Store, logger *slog.Logger) (service.Service, error) {
		return todoapi.NewWithHTTPClient(srv.URL, srv.Client(), store, logger)
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, factory, cli.Options{
		Sessions: func(*config.Config) session.Store { return session.NewFileStore(path, "typo-key") },
	})

	_, stderr, code := run(t, d, "list")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "error: cannot open sealed session: wrong TODO_SESSION_KEY\n") {
		t.Errorf("expected the key error, got %q", stderr)
	}
	if strings.Contains(stderr, "Session expired") {
		t.Errorf("a wrong key is not an expired session, got %q", stderr)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no request, got %d", hits.Load())
	}
	s, err := session.NewFileStore(path, "right-key").Get(ctx)
	if err != nil || s.User.Email != "ada@example.com" {
		t.Errorf("expected the session file to survive, got %+v (%v)", s, err)
	}
}
