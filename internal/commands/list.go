package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/tasklist"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list [flags]`.
type ListCmd struct {
	page      int
	completed bool
	view      viewFlags
	format    string
}

// viewFlags are the client-side filters and sort shared by list and browse.
type viewFlags struct {
	title    string
	status   string
	priority string
	from     string
	to       string
	sortBy   string
	desc     bool
}

func (v *viewFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&v.title, "title", "t", "", "")
	fs.StringVarP(&v.status, "status", "s", "", "")
	fs.StringVar(&v.priority, "priority", "", "")
	fs.StringVar(&v.from, "from", "", "")
	fs.StringVar(&v.to, "to", "", "")
	fs.StringVar(&v.sortBy, "sort", "", "")
	fs.BoolVar(&v.desc, "desc", false, "")
}

// apply validates the flags and installs them on m.
func (v *viewFlags) apply(m *tasklist.Model) error {
	m.SetTitleFilter(v.title)

	if v.status != "" {
		st, err := service.ParseStatus(v.status)
		if err != nil {
			return &usageError{msg: err.Error()}
		}
		m.SetStatusFilter(&st)
	}
	if v.priority != "" {
		p, err := service.ParsePriority(v.priority)
		if err != nil {
			return &usageError{msg: err.Error()}
		}
		m.SetPriorityFilter(&p)
	}

	var r tasklist.DateRange
	var err error
	if v.from != "" {
		if r.From, err = parseDate("from", v.from, m.Location()); err != nil {
			return err
		}
	}
	if v.to != "" {
		if r.To, err = parseDate("to", v.to, m.Location()); err != nil {
			return err
		}
	}
	if !r.IsZero() {
		m.SetDueRange(&r)
	}

	if v.sortBy != "" {
		col, err := tasklist.ParseColumn(v.sortBy)
		if err != nil {
			return &usageError{msg: err.Error()}
		}
		m.SetSort(tasklist.Sort{Column: col, Desc: v.desc})
	} else if v.desc {
		return userErrorf("--desc requires --sort")
	}
	return nil
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "todo list [--page <n>] [--completed] [filters] [--sort <column> [--desc]] [--output <format>]"
}
func (c *ListCmd) NeedsAPI() bool { return true }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.page, "page", "p", 1, "")
	fs.BoolVarP(&c.completed, "completed", "c", false, "")
	fs.StringVarP(&c.format, "output", "o", "", "")
	c.view.register(fs)
}

// listResult is the machine-readable form of one page.
type listResult struct {
	Page        int            `json:"page" yaml:"page"`
	TotalPages  int            `json:"total_pages" yaml:"total_pages"`
	Count       int            `json:"count" yaml:"count"`
	HasPrevious bool           `json:"has_previous" yaml:"has_previous"`
	HasNext     bool           `json:"has_next" yaml:"has_next"`
	Tasks       []service.Task `json:"tasks" yaml:"tasks"`
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.page < 1 {
		fmt.Fprintf(errOut, "error: invalid page number: %d\n", c.page)
		return exitcode.UserError
	}
	format, err := env.outputFormat(c.format)
	if err != nil {
		return env.report(errOut, err)
	}

	m := tasklist.New(env.Service, tasklist.Options{
		CompletedOnly: c.completed,
		Location:      env.Location(ctx),
		Now:           env.Now,
	})
	if err := c.view.apply(m); err != nil {
		return env.report(errOut, err)
	}

	// A page past the end shows the last page instead.
	if err := m.SetPage(ctx, c.page); err != nil {
		return env.report(errOut, err)
	}

	rows := m.Rows()
	if format != output.FormatText {
		return writeFormatted(out, errOut, format, listResult{
			Page:        m.Page(),
			TotalPages:  m.TotalPages(),
			Count:       m.Count(),
			HasPrevious: m.HasPrevious(),
			HasNext:     m.HasNext(),
			Tasks:       rows,
		})
	}

	if m.Count() == 0 && env.Quiet() {
		return exitcode.Success
	}
	printPage(env.printer(ctx, out), m, out)
	return exitcode.Success
}

// printPage prints the visible rows numbered by list position, then the footer.
func printPage(p *output.Printer, m *tasklist.Model, out io.Writer) {
	if m.Count() == 0 {
		fmt.Fprintln(out, "no tasks found")
		return
	}
	rows := m.Rows()
	for _, t := range rows {
		p.TaskRow(m.Number(t), t)
	}
	if len(rows) == 0 && m.Count() > 0 {
		fmt.Fprintln(out, "no tasks on this page match the filters")
	}
	p.PageFooter(m.Page(), m.TotalPages(), m.Count())
}

// writeFormatted writes v as JSON or YAML.
func writeFormatted(out, errOut io.Writer, format string, v any) int {
	if err := output.Write(out, format, v); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
