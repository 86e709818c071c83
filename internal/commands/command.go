// Package commands provides the command interface and implementations.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"todo/internal/config"
	"todo/internal/expiry"
	"todo/internal/logging"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/timezone"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAPI returns true if the command talks to the backend.
	// Commands like help, version, logout return false.
	NeedsAPI() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// env.Service is nil if NeedsAPI() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// GoogleSignIn runs the browser sign-in and returns the Google identity.
// Prompts (the URL to open) are written to prompt.
type GoogleSignIn func(ctx context.Context, cfg *config.Config, prompt io.Writer, logger *slog.Logger) (service.GoogleIdentity, error)

// Env is everything a command runs against.
type Env struct {
	Config       *config.Config
	Service      service.Service
	Session      session.Store
	Expiry       *expiry.Bus
	Logger       *slog.Logger
	In           io.Reader
	GoogleSignIn GoogleSignIn
	Clock        func() time.Time

	lines *bufio.Reader
}

// Now returns the current time.
func (e *Env) Now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// Log returns the logger, never nil.
func (e *Env) Log() *slog.Logger {
	if e.Logger == nil {
		return logging.Discard()
	}
	return e.Logger
}

// Quiet reports whether informational output is suppressed.
func (e *Env) Quiet() bool {
	return e.Config != nil && e.Config.Quiet
}

// ReadLine reads one line of input without the trailing newline.
// io.EOF is only returned when nothing was read.
func (e *Env) ReadLine() (string, error) {
	if e.lines == nil {
		if e.In == nil {
			return "", io.EOF
		}
		e.lines = bufio.NewReader(e.In)
	}
	line, err := e.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Prompt writes label to w and reads the answer.
func (e *Env) Prompt(w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := e.ReadLine()
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(w)
	}
	return line, err
}

// ReadPassword prompts for a secret. A terminal reads it without echo;
// piped input is read as a line.
func (e *Env) ReadPassword(w io.Writer, label string) (string, error) {
	f, ok := e.In.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return e.Prompt(w, label)
	}
	fmt.Fprint(w, label)
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// TimezoneName returns the zone used for dates: the signed-in user's
// timezone, then the configured one, then the system's.
func (e *Env) TimezoneName(ctx context.Context) string {
	if e.Session != nil {
		if s, err := e.Session.Get(ctx); err == nil && s.User.Timezone != "" {
			return s.User.Timezone
		}
	}
	if e.Config != nil && e.Config.Timezone != "" {
		return e.Config.Timezone
	}
	return timezone.Detect()
}

// Location resolves TimezoneName.
func (e *Env) Location(ctx context.Context) *time.Location {
	return timezone.Location(e.TimezoneName(ctx))
}
