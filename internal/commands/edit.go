package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only flags given on the command
// line are sent.
type EditCmd struct {
	completed   bool
	title       string
	description string
	priority    string
	due         string

	flags *pflag.FlagSet
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "todo edit [--title <text>] [--description <text>] [--priority <priority>] [--due <date>] <ref>"
}
func (c *EditCmd) NeedsAPI() bool { return true }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.flags = fs
	fs.BoolVarP(&c.completed, "completed", "c", false, "")
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVarP(&c.description, "description", "d", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *EditCmd) changed(name string) bool {
	return c.flags != nil && c.flags.Changed(name)
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
	refs, err := ParseTaskRefs(args)
	if err != nil {
		return env.report(errOut, err)
	}

	var patch service.TaskPatch
	if c.changed("title") {
		patch.Title = &c.title
	}
	if c.changed("description") {
		patch.Description = &c.description
	}
	if c.changed("priority") {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			return env.report(errOut, &usageError{msg: err.Error()})
		}
		patch.Priority = &p
	}
	if c.changed("due") {
		due, err := parseDate("due", c.due, env.Location(ctx))
		if err != nil {
			return env.report(errOut, err)
		}
		patch.DueDate = &due
	}
	if patch.IsEmpty() {
		fmt.Fprintln(errOut, "error: nothing to update (use --title, --description, --priority or --due)")
		return exitcode.UserError
	}

	task, err := newTaskLookup(env.Service, c.completed).Find(ctx, refs[0])
	if err != nil {
		return env.report(errOut, err)
	}
	return outcomeCode(env.controller(out, errOut, nil, nil).Update(ctx, task, patch))
}
