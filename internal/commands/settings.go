package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/timezone"
)

func init() {
	Register(&SettingsCmd{})
}

// SettingsCmd implements the settings command. Without flags it shows the
// profile; with flags it updates it.
type SettingsCmd struct {
	name     string
	timezone string
	password bool
	format   string

	flags *pflag.FlagSet
}

func (c *SettingsCmd) Name() string      { return "settings" }
func (c *SettingsCmd) Aliases() []string { return []string{"profile"} }
func (c *SettingsCmd) Synopsis() string  { return "Show or change your profile" }
func (c *SettingsCmd) Usage() string {
	return "todo settings [--name <name>] [--timezone <zone>] [--password] [--output <format>]"
}
func (c *SettingsCmd) NeedsAPI() bool { return true }

func (c *SettingsCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.flags = fs
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.timezone, "timezone", "", "")
	fs.BoolVar(&c.password, "password", false, "")
	fs.StringVarP(&c.format, "output", "o", "", "")
}

func (c *SettingsCmd) changed(name string) bool {
	return c.flags != nil && c.flags.Changed(name)
}

func (c *SettingsCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	var patch service.UserPatch
	if c.changed("name") {
		name := strings.TrimSpace(c.name)
		patch.Name = &name
	}
	if c.changed("timezone") {
		z, err := timezone.Lookup(c.timezone)
		if err != nil {
			return env.report(errOut, &usageError{msg: err.Error()})
		}
		patch.Timezone = &z.Name
	}
	if c.password {
		pw, err := readPassword(env, errOut, "New password: ", true)
		if err != nil {
			return env.report(errOut, err)
		}
		patch.Password = &pw
	}

	if patch.Name == nil && patch.Timezone == nil && patch.Password == nil {
		return c.show(ctx, env, out, errOut)
	}

	if err := env.Service.UpdateMe(ctx, patch); err != nil {
		return env.report(errOut, err)
	}
	user, err := env.Service.Me(ctx)
	if err != nil {
		return env.report(errOut, err)
	}
	c.cacheUser(ctx, env, user)

	output.NewNotifier(out, errOut, env.Quiet(), output.ColorEnabled(out)).
		Success("Settings updated", "Your settings have been updated successfully")
	return exitcode.Success
}

func (c *SettingsCmd) show(ctx context.Context, env *Env, out, errOut io.Writer) int {
	format, err := env.outputFormat(c.format)
	if err != nil {
		return env.report(errOut, err)
	}
	user, err := env.Service.Me(ctx)
	if err != nil {
		return env.report(errOut, err)
	}
	c.cacheUser(ctx, env, user)

	if format != output.FormatText {
		return writeFormatted(out, errOut, format, user)
	}
	label := ""
	if z, err := timezone.Lookup(user.Timezone); err == nil {
		label = z.Label
	}
	env.printer(ctx, out).Profile(user, label)
	return exitcode.Success
}

// cacheUser refreshes the profile kept with the session, which decides the
// timezone used for dates.
func (c *SettingsCmd) cacheUser(ctx context.Context, env *Env, user service.User) {
	s, err := env.Session.Get(ctx)
	if err != nil {
		return
	}
	s.User = user
	if err := env.Session.Set(ctx, s); err != nil {
		env.Log().Warn("failed to cache profile", "error", err)
	}
}
