package tasklist

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"todo/internal/service"
)

// Column is a sortable column.
type Column string

const (
	ColumnNone     Column = ""
	ColumnTitle    Column = "title"
	ColumnStatus   Column = "status"
	ColumnPriority Column = "priority"
	ColumnDue      Column = "due"
	ColumnCreated  Column = "created"
)

// Columns lists the sortable columns.
var Columns = []Column{ColumnTitle, ColumnStatus, ColumnPriority, ColumnDue, ColumnCreated}

// ParseColumn parses a column name. "due_date" and "created_at" are accepted.
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title":
		return ColumnTitle, nil
	case "status":
		return ColumnStatus, nil
	case "priority":
		return ColumnPriority, nil
	case "due", "due_date":
		return ColumnDue, nil
	case "created", "created_at":
		return ColumnCreated, nil
	}
	return ColumnNone, fmt.Errorf("invalid sort column: %s (valid: title, status, priority, due, created)", s)
}

// Sort is the active sort. The zero value keeps server order.
type Sort struct {
	Column Column
	Desc   bool
}

func (s Sort) String() string {
	if s.Column == ColumnNone {
		return "none"
	}
	if s.Desc {
		return string(s.Column) + " desc"
	}
	return string(s.Column) + " asc"
}

// Toggle flips direction on the active column; a new column starts ascending.
func (s Sort) Toggle(col Column) Sort {
	if s.Column == col {
		return Sort{Column: col, Desc: !s.Desc}
	}
	return Sort{Column: col}
}

// Apply sorts tasks in place. Ties keep their server order; tasks without a
// due date sort last in either direction.
func (s Sort) Apply(tasks []service.Task) {
	if s.Column == ColumnNone {
		return
	}

	var cmp func(a, b service.Task) int
	switch s.Column {
	case ColumnTitle:
		col := collate.New(language.English, collate.IgnoreCase)
		cmp = func(a, b service.Task) int { return col.CompareString(a.Title, b.Title) }
	case ColumnStatus:
		cmp = func(a, b service.Task) int { return statusRank(a.Status) - statusRank(b.Status) }
	case ColumnPriority:
		cmp = func(a, b service.Task) int { return priorityRank(a.Priority) - priorityRank(b.Priority) }
	case ColumnCreated:
		cmp = func(a, b service.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case ColumnDue:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].DueDate, tasks[j].DueDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			case s.Desc:
				return a.After(*b)
			default:
				return a.Before(*b)
			}
		})
		return
	default:
		return
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		c := cmp(tasks[i], tasks[j])
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}

func statusRank(s service.Status) int {
	for i, known := range service.Statuses {
		if s == known {
			return i
		}
	}
	return len(service.Statuses)
}

func priorityRank(p service.Priority) int {
	for i, known := range service.Priorities {
		if p == known {
			return i
		}
	}
	return len(service.Priorities)
}
