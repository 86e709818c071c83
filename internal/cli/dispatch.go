// Package cli parses the command line and runs commands with the session
// expired dialog mounted.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/expiry"
	"todo/internal/logging"
	"todo/internal/service"
	"todo/internal/session"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, store session.Store, logger *slog.Logger) (service.Service, error)

// Options customize a Dispatcher. Zero values select the defaults.
type Options struct {
	// Sessions opens the session store. Defaults to the session file in the
	// config directory, sealed when a session key is configured.
	Sessions func(cfg *config.Config) session.Store

	// GoogleSignIn runs the browser sign-in for `login --google`.
	GoogleSignIn commands.GoogleSignIn

	// In is read by prompts and browse.
	In io.Reader

	// Clock overrides time.Now.
	Clock func() time.Time
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	opts     Options
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory, opts Options) *Dispatcher {
	if opts.Sessions == nil {
		opts.Sessions = func(cfg *config.Config) session.Store {
			return session.NewFileStore(cfg.SessionPath(), cfg.SessionKey)
		}
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		opts:     opts,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		args = []string{"list"}
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVarP(&quiet, "quiet", "q", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n", cmd.Synopsis(), cmd.Usage())
			return exitcode.Success
		}
		// pflag messages already read "unknown flag: --x",
		// "flag needs an argument: --x" or "invalid argument ...".
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	logger := logging.New(errOut, debug)
	logger.Debug("dispatch", "command", cmd.Name(), "config_dir", cfg.Dir, "api_url", cfg.APIURL)

	store := d.opts.Sessions(cfg)

	// The dialog is mounted for the whole command; any auth failure below
	// opens it exactly once.
	bus := expiry.NewBus()
	dialog := expiry.NewDialog(store, func() {
		fmt.Fprintf(errOut, "run: todo login\n")
	})
	unmount := dialog.Mount(bus)
	defer unmount()

	env := &commands.Env{
		Config:       cfg,
		Session:      store,
		Expiry:       bus,
		Logger:       logger,
		In:           d.opts.In,
		GoogleSignIn: d.opts.GoogleSignIn,
		Clock:        d.opts.Clock,
	}

	if cmd.NeedsAPI() {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.BackendError
		}
		env.Service, err = d.factory(ctx, cfg, store, logger)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.BackendError
		}
	}

	code := cmd.Run(ctx, env, fs.Args(), out, errOut)

	if dialog.Open() {
		fmt.Fprintln(errOut, "Session expired. Please log in again to continue.")
		if err := dialog.Acknowledge(ctx); err != nil {
			logger.Warn("failed to clear session", "error", err)
		}
		return exitcode.AuthError
	}
	return code
}
