package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todo help [command]" }
func (c *HelpCmd) NeedsAPI() bool    { return false }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		cmd, ok := DefaultRegistry.Find(args[0])
		if !ok {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
			return exitcode.UserError
		}
		fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n", cmd.Synopsis(), cmd.Usage())
		return exitcode.Success
	}
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  todo                                   List tasks (page 1)
  todo list [--page <n>] [--completed] [filters] [--sort <column> [--desc]]
  todo browse [--completed] [filters]    Page through tasks interactively
  todo show <ref>
  todo add [--description <text>] [--status <s>] [--priority <p>] [--due <date>] <title...>
  todo create ...                        Same as add
  todo edit [--title <text>] [--description <text>] [--priority <p>] [--due <date>] <ref>
  todo status <ref> <status>
  todo done <ref...>
  todo rm [--yes] <ref...>
  todo login [--email <email>] [--google]
  todo signup [--email <email>]
  todo logout
  todo settings [--name <name>] [--timezone <zone>] [--password]
  todo timezones
  todo help [command]
  todo version

References:
  <n>              task number as shown by list (add --completed for the completed listing)
  id:<id>          task ID

Filters:
  --title, -t <text>       title contains text (case-insensitive)
  --status, -s <status>    not_started, in_progress, done, cancelled
  --priority <priority>    low, mid, high
  --from <date>            due on or after date (YYYY-MM-DD)
  --to <date>              due on or before date (YYYY-MM-DD)
  Filters and sorting apply to the page being shown.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
  --output, -o     text, json or yaml (list, show, settings, timezones)
`
