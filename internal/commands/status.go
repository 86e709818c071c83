package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/mutation"
	"todo/internal/service"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command.
type StatusCmd struct {
	completed bool
}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return nil }
func (c *StatusCmd) Synopsis() string  { return "Change a task's status" }
func (c *StatusCmd) Usage() string     { return "todo status <ref> <not_started|in_progress|done|cancelled>" }
func (c *StatusCmd) NeedsAPI() bool    { return true }

func (c *StatusCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.completed, "completed", "c", false, "")
}

func (c *StatusCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintf(errOut, "error: usage: %s\n", c.Usage())
		return exitcode.UserError
	}
	if len(args) > 2 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[2])
		return exitcode.UserError
	}
	ref, err := ParseTaskRef(args[0])
	if err != nil {
		return env.report(errOut, err)
	}
	status, err := service.ParseStatus(args[1])
	if err != nil {
		return env.report(errOut, &usageError{msg: err.Error()})
	}

	task, err := newTaskLookup(env.Service, c.completed).Find(ctx, ref)
	if err != nil {
		return env.report(errOut, err)
	}

	o := env.controller(out, errOut, nil, nil).SetStatus(ctx, task, status)
	if o.Kind == mutation.Skipped && !env.Quiet() {
		fmt.Fprintln(out, "status unchanged")
	}
	return outcomeCode(o)
}
