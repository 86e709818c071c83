package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct {
	completed bool
	format    string
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show a task" }
func (c *ShowCmd) Usage() string     { return "todo show [--completed] [--output <format>] <ref>" }
func (c *ShowCmd) NeedsAPI() bool    { return true }

func (c *ShowCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.completed, "completed", "c", false, "")
	fs.StringVarP(&c.format, "output", "o", "", "")
}

func (c *ShowCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
	refs, err := ParseTaskRefs(args)
	if err != nil {
		return env.report(errOut, err)
	}
	format, err := env.outputFormat(c.format)
	if err != nil {
		return env.report(errOut, err)
	}

	task, err := newTaskLookup(env.Service, c.completed).Find(ctx, refs[0])
	if err != nil {
		return env.report(errOut, err)
	}

	if format != output.FormatText {
		return writeFormatted(out, errOut, format, task)
	}
	env.printer(ctx, out).TaskDetail(task)
	return exitcode.Success
}
