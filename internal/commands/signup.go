package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
)

func init() {
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	email string
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string     { return "todo signup [--email <email>]" }
func (c *SignupCmd) NeedsAPI() bool    { return true }

func (c *SignupCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.email, "email", "e", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	creds, err := readCredentials(env, errOut, c.email, true)
	if err != nil {
		return env.report(errOut, err)
	}
	tokens, err := env.Service.Register(ctx, creds)
	if err != nil {
		return reportLogin(env, errOut, err)
	}
	return storeSession(ctx, env, tokens, "Account created for", out, errOut)
}
