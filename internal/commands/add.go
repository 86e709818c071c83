package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todo/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	status      string
	priority    string
	due         string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "todo add [--description <text>] [--status <status>] [--priority <priority>] [--due <date>] <title...>"
}
func (c *AddCmd) NeedsAPI() bool { return true }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.description, "description", "d", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fields := service.TaskFields{
		Title:       strings.Join(args, " "),
		Description: c.description,
	}

	if c.status != "" {
		st, err := service.ParseStatus(c.status)
		if err != nil {
			return env.report(errOut, &usageError{msg: err.Error()})
		}
		fields.Status = st
	}
	if c.priority != "" {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			return env.report(errOut, &usageError{msg: err.Error()})
		}
		fields.Priority = p
	}
	if c.due != "" {
		due, err := parseDate("due", c.due, env.Location(ctx))
		if err != nil {
			return env.report(errOut, err)
		}
		fields.DueDate = &due
	}

	// Blank titles are rejected by the controller before any call.
	return outcomeCode(env.controller(out, errOut, nil, nil).Create(ctx, fields))
}
