package todoapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"todo/internal/backend/todoapi"
	"todo/internal/service"
	"todo/internal/session"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// newClient starts a test server with handler and returns a client signed in
// with a valid access token "tok".
func newClient(t *testing.T, handler http.HandlerFunc) (*todoapi.Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore(session.New("tok", "ref", service.User{ID: 1}, testNow))
	c, err := todoapi.NewWithHTTPClient(srv.URL+"/api", srv.Client(), store, nil)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	c.SetClock(func() time.Time { return testNow })
	return c, &hits
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListTasks_RequestAndCount(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/task/all/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("page_size") != "10" || q.Get("completed") != "true" {
			t.Errorf("unexpected query %v", q)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":    23,
			"next":     "http://x/task/all/?page=3",
			"previous": nil,
			"results": []map[string]any{
				{"id": "a1", "title": "Write report", "status": "in_progress", "priority": "high",
					"completed": false, "created_at": "2025-03-01T08:00:00Z", "due_date": "2025-03-12T00:00:00Z"},
			},
		})
	})

	done := true
	page, err := c.ListTasks(context.Background(), service.ListQuery{Page: 2, PageSize: 10, Completed: &done})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if page.Count != 23 {
		t.Errorf("expected server count 23, got %d", page.Count)
	}
	if page.Previous != "" {
		t.Errorf("expected empty previous, got %q", page.Previous)
	}
	if len(page.Results) != 1 {
		t.Fatalf("expected 1 task, got %d", len(page.Results))
	}
	task := page.Results[0]
	if task.Status != service.StatusInProgress || task.Priority != service.PriorityHigh {
		t.Errorf("unexpected task %+v", task)
	}
	if task.DueDate == nil || !task.DueDate.Equal(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected due date %v", task.DueDate)
	}
}

func TestListTasks_EmptyResultsNeverNil(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("completed") {
			t.Error("completed must be omitted when not requested")
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": 0, "results": nil})
	})

	page, err := c.ListTasks(context.Background(), service.ListQuery{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if page.Results == nil {
		t.Error("expected non-nil empty results")
	}
}

func TestAuth_NoSessionSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c, err := todoapi.NewWithHTTPClient(srv.URL, srv.Client(), session.NewMemoryStore(nil), nil)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}

	_, err = c.CreateTask(context.Background(), service.TaskFields{Title: "x"})
	if !service.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no request, got %d", hits.Load())
	}
}

func TestAuth_ExpiredTokenSkipsNetwork(t *testing.T) {
	c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {})
	c.SetClock(func() time.Time { return testNow.Add(session.AccessTTL + time.Second) })

	if err := c.DeleteTask(context.Background(), "a1"); !service.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no request, got %d", hits.Load())
	}
}

func TestErrors_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    service.ErrorKind
		message string
	}{
		{"unauthorized", 401, `{"detail":"Given token not valid for any token type"}`, service.KindAuth, "Given token not valid for any token type"},
		{"field errors", 400, `{"title":["This field is required."],"priority":["\"urgent\" is not a valid choice."]}`, service.KindValidation, `priority: "urgent" is not a valid choice.; title: This field is required.`},
		{"non field", 400, `{"non_field_errors":["Due date is in the past."]}`, service.KindValidation, "Due date is in the past."},
		{"not found", 404, `{"detail":"Not found."}`, service.KindValidation, "Not found."},
		{"list body", 400, `["Invalid payload"]`, service.KindValidation, "Invalid payload"},
		{"server error html", 500, `<html>oops</html>`, service.KindUnknown, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetTask(context.Background(), "a1")
			var apiErr *service.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *service.Error, got %T %v", err, err)
			}
			if apiErr.Kind != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, apiErr.Kind)
			}
			if apiErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, apiErr.Message)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
		})
	}
}

func TestLogin_UnauthorizedIsValidation(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send a bearer token")
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
	})

	_, err := c.Login(context.Background(), service.Credentials{Email: "a@b.c", Password: "wrongpass"})
	if service.IsAuth(err) {
		t.Fatal("bad credentials must not look like an expired session")
	}
	if service.KindOf(err) != service.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	store := session.NewMemoryStore(session.New("tok", "ref", service.User{}, time.Now()))
	c, err := todoapi.NewWithHTTPClient(url, &http.Client{}, store, nil)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}

	_, err = c.ListTasks(context.Background(), service.ListQuery{Page: 1})
	if service.KindOf(err) != service.KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "NETWORK_ERROR: ") {
		t.Errorf("expected NETWORK_ERROR prefix, got %q", err.Error())
	}
}

func TestMalformedResponseIsPlainError(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "{not json")
	})

	_, err := c.GetTask(context.Background(), "a1")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *service.Error
	if errors.As(err, &apiErr) {
		t.Errorf("malformed body should be an unexpected error, got tagged %v", apiErr)
	}
}

func TestCreateTask_Body(t *testing.T) {
	due := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/task/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type")
		}
		var got map[string]any
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := map[string]any{
			"title":    "Pay rent",
			"status":   "not_started",
			"priority": "mid",
			"due_date": "2025-04-01T09:00:00Z",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("body mismatch (-want +got):\n%s", diff)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": "new-id", "title": "Pay rent", "status": "not_started", "priority": "mid",
			"completed": false, "created_at": "2025-03-10T12:00:00Z",
		})
	})

	task, err := c.CreateTask(context.Background(), service.TaskFields{
		Title:    "Pay rent",
		Status:   service.StatusNotStarted,
		Priority: service.PriorityMid,
		DueDate:  &due,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID != "new-id" {
		t.Errorf("expected server-assigned id, got %q", task.ID)
	}
}

func TestUpdateTask_StatusOnlyPayload(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/task/a1/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if strings.TrimSpace(string(body)) != `{"status":"done"}` {
			t.Errorf("expected status-only payload, got %s", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "a1", "title": "t", "status": "done", "priority": "low"})
	})

	status := service.StatusDone
	task, err := c.UpdateTask(context.Background(), "a1", service.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if task.Status != service.StatusDone {
		t.Errorf("expected done, got %q", task.Status)
	}
}

func TestDeleteTask_NoContent(t *testing.T) {
	c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.EscapedPath() != "/api/task/a%2Fb/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DeleteTask(context.Background(), "a/b"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected one request, got %d", hits.Load())
	}
}

func TestMeAndUpdateMe(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"id": 1, "email": "u@example.com", "full_name": "Ana", "timezone": "Europe/Belgrade"})
		case http.MethodPatch:
			body, _ := io.ReadAll(r.Body)
			if strings.TrimSpace(string(body)) != `{"timezone":"Asia/Tokyo"}` {
				t.Errorf("unexpected patch body %s", body)
			}
			writeJSON(w, http.StatusOK, map[string]any{})
		}
	})

	me, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.FullName != "Ana" || me.Timezone != "Europe/Belgrade" {
		t.Errorf("unexpected profile %+v", me)
	}

	tz := "Asia/Tokyo"
	if err := c.UpdateMe(context.Background(), service.UserPatch{Timezone: &tz}); err != nil {
		t.Fatalf("UpdateMe: %v", err)
	}
}

func TestNewWithHTTPClient_InvalidURL(t *testing.T) {
	if _, err := todoapi.NewWithHTTPClient("not a url", http.DefaultClient, session.NewMemoryStore(nil), nil); err == nil {
		t.Error("expected error for invalid base url")
	}
}

// brokenStore fails every read, as a sealed file with the wrong key does.
type brokenStore struct {
	session.MemoryStore
	err error
}

func (b *brokenStore) Get(context.Context) (*session.Session, error) { return nil, b.err }

func TestAuth_UnreadableSessionIsNotExpiry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	readErr := errors.New("cannot open sealed session: wrong TODO_SESSION_KEY")
	c, err := todoapi.NewWithHTTPClient(srv.URL, srv.Client(), &brokenStore{err: readErr}, nil)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}

	_, err = c.ListTasks(context.Background(), service.ListQuery{Page: 1})
	if service.IsAuth(err) {
		t.Fatalf("an unreadable session must not look expired, got %v", err)
	}
	if !errors.Is(err, readErr) {
		t.Errorf("expected the store error to be wrapped, got %v", err)
	}
	if got := service.DisplayMessage(err.Error()); got != readErr.Error() {
		t.Errorf("expected message %q, got %q", readErr.Error(), got)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no request, got %d", hits.Load())
	}
}

func TestErrors_PlainBodyTruncatedOnRuneBoundary(t *testing.T) {
	body := "x" + strings.Repeat("é", 150) // byte 200 falls inside a rune
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, body)
	})

	_, err := c.GetTask(context.Background(), "a1")
	var apiErr *service.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected tagged error, got %v", err)
	}
	if !utf8.ValidString(apiErr.Message) {
		t.Errorf("message is not valid UTF-8: %q", apiErr.Message)
	}
	if want := "x" + strings.Repeat("é", 99); apiErr.Message != want {
		t.Errorf("expected %d bytes, got %d", len(want), len(apiErr.Message))
	}
}

func TestListTasks_PagePastEnd(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Invalid page."})
	})

	_, err := c.ListTasks(context.Background(), service.ListQuery{Page: 99, PageSize: 10})
	if !service.IsInvalidPage(err) {
		t.Fatalf("expected invalid page, got %v", err)
	}
	if got := service.DisplayMessage(err.Error()); got != "Invalid page." {
		t.Errorf("unexpected message %q", got)
	}
}
