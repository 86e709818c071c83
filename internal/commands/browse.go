package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"todo/internal/exitcode"
	"todo/internal/mutation"
	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/tasklist"
)

func init() {
	Register(&BrowseCmd{})
}

// BrowseCmd implements the browse command: an interactive pager over the
// task list that reads one instruction per line.
type BrowseCmd struct {
	completed bool
	view      viewFlags
}

func (c *BrowseCmd) Name() string      { return "browse" }
func (c *BrowseCmd) Aliases() []string { return []string{"b"} }
func (c *BrowseCmd) Synopsis() string  { return "Browse tasks interactively" }
func (c *BrowseCmd) Usage() string     { return "todo browse [--completed] [filters] [--sort <column> [--desc]]" }
func (c *BrowseCmd) NeedsAPI() bool    { return true }

func (c *BrowseCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.completed, "completed", "c", false, "")
	c.view.register(fs)
}

const browseHelp = `Commands:
  n, p              next / previous page
  g <page>          go to page
  r                 reload the page
  c                 toggle completed tasks only
  / [text]          filter by title (no text clears)
  status <s|all>    filter by status
  priority <p|all>  filter by priority
  due <from> [to]   filter by due date (YYYY-MM-DD, "-" leaves a bound open)
  due clear         remove the due date filter
  clear             remove every filter
  sort <column>     sort by column, again to reverse
  show <n>          show task n
  done <n>          mark task n completed
  set <n> <status>  change the status of task n
  rm <n>            delete task n
  h                 this help
  q                 quit
`

// browser is one browse session.
type browser struct {
	env     *Env
	model   *tasklist.Model
	reload  *pageReloader
	ctrl    *mutation.Controller
	printer *output.Printer
	out     io.Writer
	errOut  io.Writer
}

func (c *BrowseCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	m := tasklist.New(env.Service, tasklist.Options{
		CompletedOnly: c.completed,
		Location:      env.Location(ctx),
		Now:           env.Now,
	})
	if err := c.view.apply(m); err != nil {
		return env.report(errOut, err)
	}
	reload := &pageReloader{model: m}
	b := &browser{
		env:     env,
		model:   m,
		reload:  reload,
		ctrl:    env.controller(out, errOut, reload, promptConfirmer{env: env, w: out}),
		printer: env.printer(ctx, out),
		out:     out,
		errOut:  errOut,
	}

	if err := m.SetPage(ctx, 1); err != nil {
		return env.report(errOut, err)
	}
	b.render()

	for {
		fmt.Fprint(out, "> ")
		line, err := env.ReadLine()
		if err != nil {
			fmt.Fprintln(out)
			if errors.Is(err, io.EOF) {
				return exitcode.Success
			}
			return env.report(errOut, err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if code, done := b.exec(ctx, fields); done {
			return code
		}
	}
}

// exec runs one instruction. done is set when the session ends.
func (b *browser) exec(ctx context.Context, fields []string) (code int, done bool) {
	m := b.model
	cmd, rest := fields[0], fields[1:]

	switch cmd {
	case "q", "quit", "exit":
		return exitcode.Success, true
	case "h", "help", "?":
		fmt.Fprint(b.out, browseHelp)
		return 0, false
	case "n", "next":
		if !m.HasNext() {
			fmt.Fprintln(b.errOut, "already on the last page")
			return 0, false
		}
		return b.fetched(m.Next(ctx))
	case "p", "prev", "previous":
		if !m.HasPrevious() {
			fmt.Fprintln(b.errOut, "already on the first page")
			return 0, false
		}
		return b.fetched(m.Previous(ctx))
	case "g", "page":
		n, err := b.number(rest)
		if err != nil {
			return b.usage(err)
		}
		return b.fetched(m.SetPage(ctx, n))
	case "r", "reload":
		return b.fetched(m.Refresh(ctx))
	case "c", "completed":
		return b.fetched(m.SetCompletedOnly(ctx, !m.CompletedOnly()))
	case "/":
		m.SetTitleFilter(strings.Join(rest, " "))
	case "status":
		if len(rest) != 1 {
			return b.usage(userErrorf("usage: status <status|all>"))
		}
		if rest[0] == "all" {
			m.SetStatusFilter(nil)
			break
		}
		st, err := service.ParseStatus(rest[0])
		if err != nil {
			return b.usage(err)
		}
		m.SetStatusFilter(&st)
	case "priority":
		if len(rest) != 1 {
			return b.usage(userErrorf("usage: priority <priority|all>"))
		}
		if rest[0] == "all" {
			m.SetPriorityFilter(nil)
			break
		}
		p, err := service.ParsePriority(rest[0])
		if err != nil {
			return b.usage(err)
		}
		m.SetPriorityFilter(&p)
	case "due":
		r, err := b.dueRange(rest)
		if err != nil {
			return b.usage(err)
		}
		m.SetDueRange(r)
	case "clear":
		m.ClearFilters()
	case "sort":
		if len(rest) != 1 {
			return b.usage(userErrorf("usage: sort <column>"))
		}
		col, err := tasklist.ParseColumn(rest[0])
		if err != nil {
			return b.usage(err)
		}
		m.ToggleSort(col)
		fmt.Fprintf(b.out, "sorted by %s\n", m.Sort())
	case "show":
		t, err := b.task(rest)
		if err != nil {
			return b.usage(err)
		}
		b.printer.TaskDetail(t)
		return 0, false
	case "done":
		t, err := b.task(rest)
		if err != nil {
			return b.usage(err)
		}
		return b.mutated(b.ctrl.MarkComplete(ctx, t))
	case "set":
		if len(rest) != 2 {
			return b.usage(userErrorf("usage: set <n> <status>"))
		}
		t, err := b.task(rest[:1])
		if err != nil {
			return b.usage(err)
		}
		st, err := service.ParseStatus(rest[1])
		if err != nil {
			return b.usage(err)
		}
		return b.mutated(b.ctrl.SetStatus(ctx, t, st))
	case "rm", "delete":
		t, err := b.task(rest)
		if err != nil {
			return b.usage(err)
		}
		return b.mutated(b.ctrl.Delete(ctx, t))
	default:
		fmt.Fprintf(b.errOut, "unknown command: %s (h for help)\n", cmd)
		return 0, false
	}

	b.render()
	return 0, false
}

// pageReloader refreshes the page after a mutation and remembers whether the
// session was lost while doing so.
type pageReloader struct {
	model    *tasklist.Model
	authLost bool
}

func (r *pageReloader) Refresh(ctx context.Context) error {
	err := r.model.Refresh(ctx)
	if service.IsAuth(err) {
		r.authLost = true
	}
	return err
}

func (b *browser) render() {
	printPage(b.printer, b.model, b.out)
}

// fetched handles the result of a page fetch.
func (b *browser) fetched(err error) (int, bool) {
	switch {
	case err == nil:
		b.render()
	case errors.Is(err, tasklist.ErrStale):
		b.env.Log().Debug("stale page discarded")
	case service.IsAuth(err):
		return b.env.report(b.errOut, err), true
	default:
		fmt.Fprintf(b.errOut, "error: %s\n", service.DisplayMessage(err.Error()))
	}
	return 0, false
}

// mutated handles a mutation outcome. The controller has already refreshed
// the page on success.
func (b *browser) mutated(o mutation.Outcome) (int, bool) {
	if o.Kind == mutation.AuthFailure || b.reload.authLost {
		return exitcode.AuthError, true
	}
	if o.Kind == mutation.Success {
		b.render()
	}
	return 0, false
}

func (b *browser) usage(err error) (int, bool) {
	fmt.Fprintf(b.errOut, "error: %s\n", err)
	return 0, false
}

func (b *browser) number(args []string) (int, error) {
	if len(args) != 1 {
		return 0, userErrorf("a number is required")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, userErrorf("invalid number: %s", args[0])
	}
	return n, nil
}

// task returns the task numbered by args[0] on the current page.
func (b *browser) task(args []string) (service.Task, error) {
	if len(args) != 1 {
		return service.Task{}, userErrorf("a task number is required")
	}
	n, err := b.number(args[:1])
	if err != nil {
		return service.Task{}, err
	}
	t, ok := b.model.TaskAt(n)
	if !ok {
		return service.Task{}, userErrorf("no task %d on this page", n)
	}
	return t, nil
}

// dueRange parses "clear", "<from>" or "<from> <to>"; "-" leaves a bound open.
func (b *browser) dueRange(args []string) (*tasklist.DateRange, error) {
	if len(args) == 1 && args[0] == "clear" {
		return nil, nil
	}
	if len(args) < 1 || len(args) > 2 {
		return nil, userErrorf("usage: due <from> [to] | due clear")
	}
	loc := b.model.Location()
	var r tasklist.DateRange
	var err error
	if args[0] != "-" {
		if r.From, err = parseDate("from", args[0], loc); err != nil {
			return nil, err
		}
	}
	if len(args) == 2 && args[1] != "-" {
		if r.To, err = parseDate("to", args[1], loc); err != nil {
			return nil, err
		}
	}
	if r.IsZero() {
		return nil, nil
	}
	return &r, nil
}
