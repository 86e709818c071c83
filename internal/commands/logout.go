package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/session"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Sign out" }
func (c *LogoutCmd) Usage() string     { return "todo logout" }
func (c *LogoutCmd) NeedsAPI() bool    { return false }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	_, err := env.Session.Get(ctx)
	if errors.Is(err, session.ErrNoSession) {
		if !env.Quiet() {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}
	// An unreadable session is removed all the same.
	if err != nil {
		env.Log().Warn("discarding unreadable session", "error", err)
	}

	if err := env.Session.Clear(ctx); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove session: %v\n", err)
		return exitcode.BackendError
	}
	if !env.Quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
