package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/mutation"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	completed bool
	yes       bool
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete tasks" }
func (c *RmCmd) Usage() string     { return "todo rm [--yes] <ref...>" }
func (c *RmCmd) NeedsAPI() bool    { return true }

func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.completed, "completed", "c", false, "")
	fs.BoolVarP(&c.yes, "yes", "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		return env.report(errOut, err)
	}
	tasks, err := newTaskLookup(env.Service, c.completed).FindAll(ctx, refs)
	if err != nil {
		return env.report(errOut, err)
	}

	var confirmer mutation.Confirmer = promptConfirmer{env: env, w: errOut}
	if c.yes {
		confirmer = assumeYes{}
	}
	ctrl := env.controller(out, errOut, nil, confirmer)

	code := exitcode.Success
	for _, task := range tasks {
		o := ctrl.Delete(ctx, task)
		code = worst(code, outcomeCode(o))
		if o.Kind == mutation.AuthFailure {
			break
		}
	}
	return code
}
