package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/mutation"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct {
	completed bool
}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string  { return "Mark tasks as completed" }
func (c *DoneCmd) Usage() string     { return "todo done <ref...>" }
func (c *DoneCmd) NeedsAPI() bool    { return true }

func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.completed, "completed", "c", false, "")
}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		return env.report(errOut, err)
	}
	tasks, err := newTaskLookup(env.Service, c.completed).FindAll(ctx, refs)
	if err != nil {
		return env.report(errOut, err)
	}

	ctrl := env.controller(out, errOut, nil, nil)
	code := exitcode.Success
	for _, task := range tasks {
		o := ctrl.MarkComplete(ctx, task)
		if o.Kind == mutation.Skipped && !env.Quiet() {
			fmt.Fprintf(out, "already completed: %s\n", task.Title)
		}
		code = worst(code, outcomeCode(o))
		if o.Kind == mutation.AuthFailure {
			break
		}
	}
	return code
}
