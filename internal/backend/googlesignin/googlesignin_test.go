package googlesignin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// browser follows the printed authorization URL by calling the redirect URI
// the way Google would after consent.
type browser struct {
	t     *testing.T
	query func(state string) url.Values
}

func (b *browser) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))
	if !strings.Contains(line, "redirect_uri=") {
		return len(p), nil
	}
	u, err := url.Parse(line)
	if err != nil {
		b.t.Errorf("printed URL does not parse: %v", err)
		return len(p), nil
	}
	q := u.Query()
	if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		b.t.Errorf("expected PKCE challenge in %s", line)
	}
	redirect := q.Get("redirect_uri") + "?" + b.query(q.Get("state")).Encode()
	go func() {
		resp, err := http.Get(redirect)
		if err == nil {
			resp.Body.Close()
		}
	}()
	return len(p), nil
}

func loopback() (int, net.Listener, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, nil, err
	}
	return l.Addr().(*net.TCPAddr).Port, l, nil
}

func newTestFlow(t *testing.T, tokenURL string, q func(string) url.Values) *Flow {
	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "http://accounts.example/auth", TokenURL: tokenURL},
		Scopes:       Scopes,
	}
	f := New(cfg, &browser{t: t, query: q}, nil)
	f.listen = loopback
	f.timeout = 5 * time.Second
	return f
}

func TestRun_ExchangesCodeAndFetchesProfile(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
			return
		}
		if r.Form.Get("code") != "auth-code" {
			t.Errorf("expected auth-code, got %q", r.Form.Get("code"))
		}
		if r.Form.Get("code_verifier") == "" {
			t.Error("expected PKCE verifier on exchange")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"google-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer google-token" {
			t.Errorf("expected google bearer token, got %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/userinfo") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "1234", "email": "ada@example.com", "name": "Ada Lovelace", "verified_email": true,
		})
	}))
	defer apiSrv.Close()

	f := newTestFlow(t, tokenSrv.URL, func(state string) url.Values {
		return url.Values{"code": {"auth-code"}, "state": {state}}
	})
	f.userinfoEndpoint = apiSrv.URL + "/"

	id, err := f.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if id.AccessToken != "google-token" {
		t.Errorf("unexpected access token %q", id.AccessToken)
	}
	if id.UserInfo["email"] != "ada@example.com" || id.UserInfo["name"] != "Ada Lovelace" {
		t.Errorf("unexpected user info %v", id.UserInfo)
	}
}

func TestAuthorize_StateMismatch(t *testing.T) {
	f := newTestFlow(t, "http://unused.example/token", func(string) url.Values {
		return url.Values{"code": {"auth-code"}, "state": {"forged"}}
	})
	_, err := f.Authorize(context.Background())
	if err == nil || !strings.Contains(err.Error(), "state mismatch") {
		t.Fatalf("expected state mismatch, got %v", err)
	}
}

func TestAuthorize_Denied(t *testing.T) {
	f := newTestFlow(t, "http://unused.example/token", func(state string) url.Values {
		return url.Values{"error": {"access_denied"}, "state": {state}}
	})
	_, err := f.Authorize(context.Background())
	if err == nil || !strings.Contains(err.Error(), "access_denied") {
		t.Fatalf("expected access_denied error, got %v", err)
	}
}

func TestAuthorize_Cancelled(t *testing.T) {
	cfg := &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "http://accounts.example/auth"}}
	f := New(cfg, &strings.Builder{}, nil)
	f.listen = loopback

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Authorize(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.json")); !errors.Is(err, ErrNoClient) {
		t.Errorf("expected ErrNoClient, got %v", err)
	}

	path := filepath.Join(dir, "google_client.json")
	client := `{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(path, []byte(client), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ClientID != "id" || len(cfg.Scopes) != len(Scopes) {
		t.Errorf("unexpected config %+v", cfg)
	}

	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid client file")
	}
}
