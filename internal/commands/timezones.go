package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/timezone"
)

func init() {
	Register(&TimezonesCmd{})
}

// TimezonesCmd implements the timezones command.
type TimezonesCmd struct {
	format string
}

func (c *TimezonesCmd) Name() string      { return "timezones" }
func (c *TimezonesCmd) Aliases() []string { return nil }
func (c *TimezonesCmd) Synopsis() string  { return "List the timezones a profile can use" }
func (c *TimezonesCmd) Usage() string     { return "todo timezones [--output <format>]" }
func (c *TimezonesCmd) NeedsAPI() bool    { return false }

func (c *TimezonesCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.format, "output", "o", "", "")
}

func (c *TimezonesCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	format, err := env.outputFormat(c.format)
	if err != nil {
		return env.report(errOut, err)
	}
	if format != output.FormatText {
		return writeFormatted(out, errOut, format, timezone.Supported)
	}

	current := env.TimezoneName(ctx)
	for _, z := range timezone.Supported {
		mark := " "
		if z.Name == current {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-20s %s\n", mark, z.Name, z.Label)
	}
	return exitcode.Success
}
