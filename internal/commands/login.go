package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todo/internal/backend/googlesignin"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email  string
	google bool
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in" }
func (c *LoginCmd) Usage() string     { return "todo login [--email <email>] [--google]" }
func (c *LoginCmd) NeedsAPI() bool    { return true }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.email, "email", "e", "", "")
	fs.BoolVar(&c.google, "google", false, "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	// Tokens are never renewed, so only a usable access token counts as signed in.
	if s, err := env.Session.Get(ctx); err == nil && s.AccessValid(env.Now()) {
		if !env.Quiet() {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	var tokens service.AuthTokens
	var err error
	if c.google {
		tokens, err = c.googleLogin(ctx, env, errOut)
	} else {
		tokens, err = c.passwordLogin(ctx, env, errOut)
	}
	if err != nil {
		return reportLogin(env, errOut, err)
	}
	return storeSession(ctx, env, tokens, "Logged in as", out, errOut)
}

func (c *LoginCmd) passwordLogin(ctx context.Context, env *Env, errOut io.Writer) (service.AuthTokens, error) {
	creds, err := readCredentials(env, errOut, c.email, false)
	if err != nil {
		return service.AuthTokens{}, err
	}
	return env.Service.Login(ctx, creds)
}

func (c *LoginCmd) googleLogin(ctx context.Context, env *Env, errOut io.Writer) (service.AuthTokens, error) {
	if env.GoogleSignIn == nil {
		return service.AuthTokens{}, userErrorf("google sign-in is not available")
	}
	id, err := env.GoogleSignIn(ctx, env.Config, errOut, env.Log())
	if errors.Is(err, googlesignin.ErrNoClient) {
		return service.AuthTokens{}, userErrorf("%s not found in %s (download a Desktop app OAuth client from the Google Cloud console)",
			config.GoogleClientFile, env.Config.Dir)
	}
	if err != nil {
		return service.AuthTokens{}, fmt.Errorf("google sign-in failed: %w", err)
	}
	return env.Service.GoogleLogin(ctx, id)
}

// readCredentials asks for whatever is missing. confirm asks for the
// password twice.
func readCredentials(env *Env, w io.Writer, email string, confirm bool) (service.Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		answer, err := env.Prompt(w, "Email: ")
		if err != nil {
			return service.Credentials{}, userErrorf("email required")
		}
		email = strings.TrimSpace(answer)
	}
	if email == "" {
		return service.Credentials{}, userErrorf("email required")
	}

	password, err := readPassword(env, w, "Password: ", confirm)
	if err != nil {
		return service.Credentials{}, err
	}
	return service.Credentials{Email: email, Password: password}, nil
}

// readPassword reads a non-empty password, twice when confirm is set.
func readPassword(env *Env, w io.Writer, label string, confirm bool) (string, error) {
	password, err := env.ReadPassword(w, label)
	if err != nil || password == "" {
		return "", userErrorf("password required")
	}
	if confirm {
		again, err := env.ReadPassword(w, "Confirm password: ")
		if err != nil || again != password {
			return "", userErrorf("passwords do not match")
		}
	}
	return password, nil
}

// reportLogin reports a failed login. Rejected credentials are the user's
// mistake, never an expired session.
func reportLogin(env *Env, errOut io.Writer, err error) int {
	if service.IsAuth(err) {
		fmt.Fprintf(errOut, "error: %s\n", service.DisplayMessage(err.Error()))
		return exitcode.AuthError
	}
	return env.report(errOut, err)
}

// storeSession saves freshly issued tokens.
func storeSession(ctx context.Context, env *Env, tokens service.AuthTokens, verb string, out, errOut io.Writer) int {
	if err := env.Config.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.BackendError
	}
	s := session.New(tokens.Access, tokens.Refresh, tokens.User, env.Now())
	if err := env.Session.Set(ctx, s); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.BackendError
	}
	env.Log().Debug("session stored", "user", tokens.User.Email, "access_expiry", s.Token.Expiry)
	if !env.Quiet() {
		fmt.Fprintf(out, "%s %s\n", verb, tokens.User.Email)
	}
	return exitcode.Success
}
