// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"todo/internal/service"
	"todo/internal/tasklist"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const dateLayout = "2006-01-02"

// Label turns an enum value such as "in_progress" into "In Progress".
func Label[T ~string](v T) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(v), "_", " "))
}

// Printer renders tasks as text.
type Printer struct {
	w     io.Writer
	color bool
	loc   *time.Location
	now   func() time.Time
}

// Options configure a Printer.
type Options struct {
	Color    bool
	Location *time.Location
	Now      func() time.Time
}

// NewPrinter creates a text printer writing to w.
func NewPrinter(w io.Writer, opts Options) *Printer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Printer{w: w, color: opts.Color, loc: opts.Location, now: opts.Now}
}

// TaskRow prints one list row.
// Format: "{N:>4}  [x] {STATUS:<11}  {PRIORITY:<4}  {TITLE}[  due {DATE} ({REL})]\n"
func (p *Printer) TaskRow(num int, t service.Task) {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	status := p.paint(fmt.Sprintf("%-11s", Label(t.Status)), tasklist.StatusColor(t.Status))
	priority := p.paint(fmt.Sprintf("%-4s", Label(t.Priority)), tasklist.PriorityColor(t.Priority))

	line := fmt.Sprintf("%4d  %s %s  %s  %s", num, check, status, priority, normalizeTitle(t.Title))
	if t.DueDate != nil {
		line += "  " + p.paint("due "+p.due(*t.DueDate), tasklist.UrgencyColor(p.urgency(t)))
	}
	fmt.Fprintln(p.w, line)
}

// TaskDetail prints every field of a task.
func (p *Printer) TaskDetail(t service.Task) {
	completed := "no"
	if t.Completed {
		completed = "yes"
	}
	fmt.Fprintf(p.w, "%-12s %s\n", "Title:", normalizeTitle(t.Title))
	fmt.Fprintf(p.w, "%-12s %s\n", "ID:", t.ID)
	fmt.Fprintf(p.w, "%-12s %s\n", "Status:", p.paint(Label(t.Status), tasklist.StatusColor(t.Status)))
	fmt.Fprintf(p.w, "%-12s %s\n", "Priority:", p.paint(Label(t.Priority), tasklist.PriorityColor(t.Priority)))
	fmt.Fprintf(p.w, "%-12s %s\n", "Completed:", completed)
	if t.DueDate != nil {
		fmt.Fprintf(p.w, "%-12s %s\n", "Due:", p.paint(p.due(*t.DueDate), tasklist.UrgencyColor(p.urgency(t))))
	} else {
		fmt.Fprintf(p.w, "%-12s %s\n", "Due:", "-")
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(p.w, "%-12s %s (%s)\n", "Created:",
			t.CreatedAt.In(p.loc).Format("2006-01-02 15:04"),
			humanize.RelTime(t.CreatedAt, p.now(), "ago", "from now"))
	}
	if desc := strings.TrimSpace(t.Description); desc != "" {
		fmt.Fprintln(p.w, "Description:")
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(p.w, "  %s\n", strings.TrimRight(line, "\r"))
		}
	}
}

// PageFooter prints the pagination line.
func (p *Printer) PageFooter(page, totalPages, count int) {
	noun := "tasks"
	if count == 1 {
		noun = "task"
	}
	fmt.Fprintf(p.w, "Page %d of %d (%s %s)\n", page, totalPages, humanize.Comma(int64(count)), noun)
}

// Profile prints the signed-in user.
func (p *Printer) Profile(u service.User, timezoneLabel string) {
	name := u.FullName
	if strings.TrimSpace(name) == "" {
		name = "-"
	}
	tz := u.Timezone
	if tz == "" {
		tz = "-"
	} else if timezoneLabel != "" {
		tz += " (" + timezoneLabel + ")"
	}
	fmt.Fprintf(p.w, "%-10s %s\n", "Name:", name)
	fmt.Fprintf(p.w, "%-10s %s\n", "Email:", u.Email)
	fmt.Fprintf(p.w, "%-10s %s\n", "Timezone:", tz)
}

func (p *Printer) due(d time.Time) string {
	return d.In(p.loc).Format(dateLayout) + " (" + relDay(tasklist.DaysBetween(p.now(), d, p.loc)) + ")"
}

func (p *Printer) urgency(t service.Task) tasklist.Urgency {
	return tasklist.UrgencyOf(t, p.now(), p.loc)
}

func (p *Printer) paint(s string, c tasklist.Color) string {
	if !p.color {
		return s
	}
	return Paint(s, c)
}

// relDay describes a calendar-day offset from today.
func relDay(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Write writes v in a structured format. Text is not structured and is rejected.
func Write(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, v)
	case FormatYAML:
		return WriteYAML(w, v)
	default:
		return fmt.Errorf("unsupported structured format: %s", format)
	}
}

// normalizeTitle normalizes a task title for display.
// Empty titles become "(untitled)"; newlines become spaces.
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
