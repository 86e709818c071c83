// Package googlesignin obtains a Google identity through the loopback OAuth
// flow so it can be exchanged for API tokens.
package googlesignin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"todo/internal/logging"
	"todo/internal/service"
)

const (
	// OAuth callback timeout
	callbackTimeout = 5 * time.Minute

	// Token exchange timeout
	exchangeTimeout = 30 * time.Second

	// Starting port for the callback server
	startPort = 8085

	// Max port attempts
	maxPortAttempts = 5
)

// Scopes requested from Google.
var Scopes = []string{oauth2api.OpenIDScope, oauth2api.UserinfoEmailScope, oauth2api.UserinfoProfileScope}

// ErrNoClient is returned when the Google client file is missing.
var ErrNoClient = errors.New("google client file not found")

// LoadConfig reads a Google "Desktop app" client file.
func LoadConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoClient
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read google client file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid google client file: %w", err)
	}
	return cfg, nil
}

// Flow runs the browser sign-in.
type Flow struct {
	config *oauth2.Config
	prompt io.Writer
	log    *slog.Logger

	// userinfoEndpoint overrides the Google API base URL.
	userinfoEndpoint string
	listen           func() (int, net.Listener, error)
	timeout          time.Duration
}

// New creates a flow. The authorization URL is printed to prompt.
func New(cfg *oauth2.Config, prompt io.Writer, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Flow{
		config:  cfg,
		prompt:  prompt,
		log:     logger,
		listen:  findAvailablePort,
		timeout: callbackTimeout,
	}
}

// Run signs in with Google and returns the identity to hand to the backend.
func (f *Flow) Run(ctx context.Context) (service.GoogleIdentity, error) {
	tok, err := f.Authorize(ctx)
	if err != nil {
		return service.GoogleIdentity{}, err
	}
	info, err := f.UserInfo(ctx, tok)
	if err != nil {
		return service.GoogleIdentity{}, err
	}
	return service.GoogleIdentity{AccessToken: tok.AccessToken, UserInfo: info}, nil
}

// Authorize runs the authorization code flow with PKCE over a loopback
// callback and returns Google's token.
func (f *Flow) Authorize(ctx context.Context) (*oauth2.Token, error) {
	port, listener, err := f.listen()
	if err != nil {
		return nil, fmt.Errorf("could not bind to local port for OAuth callback: %w", err)
	}
	defer listener.Close()

	cfg := *f.config
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	fmt.Fprintln(f.prompt, "Open this URL in your browser:")
	fmt.Fprintln(f.prompt, authURL)

	code, err := f.waitForCode(ctx, listener, state)
	if err != nil {
		return nil, err
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	tok, err := cfg.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	f.log.Debug("google token obtained", "expiry", tok.Expiry)
	return tok, nil
}

func (f *Flow) waitForCode(ctx context.Context, listener net.Listener, state string) (string, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, errors.New("oauth state mismatch"))
			return
		}
		if reason := q.Get("error"); reason != "" {
			http.Error(w, "Sign-in was not completed", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("google sign-in failed: %s", reason))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			sendErr(errCh, errors.New("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Signed in</h1><p>You may close this window and return to the terminal.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", err
	case <-timer.C:
		return "", errors.New("oauth callback timed out")
	case <-ctx.Done():
		return "", errors.New("cancelled")
	}
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// UserInfo fetches the signed-in Google profile as a JSON object.
func (f *Flow) UserInfo(ctx context.Context, tok *oauth2.Token) (map[string]any, error) {
	opts := []option.ClientOption{option.WithHTTPClient(f.config.Client(ctx, tok))}
	if f.userinfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(f.userinfoEndpoint))
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google profile: %w", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// findAvailablePort tries ports from startPort upward.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < maxPortAttempts; i++ {
		port := startPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, errors.New("no available port found")
}
