package tasklist

import (
	"strings"
	"time"

	"todo/internal/service"
)

// DateRange bounds a due date filter. A zero From or To is an open bound.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether due falls in the range. Bounds are whole days in loc:
// From is inclusive from its start of day, To is inclusive through 23:59:59.999.
func (r DateRange) Contains(due time.Time, loc *time.Location) bool {
	if !r.From.IsZero() && due.Before(StartOfDay(r.From, loc)) {
		return false
	}
	if !r.To.IsZero() && due.After(EndOfDay(r.To, loc)) {
		return false
	}
	return true
}

// Filters are view filters applied to the rows of the fetched page.
type Filters struct {
	Title    string
	Status   *service.Status
	Priority *service.Priority
	Due      *DateRange
}

// IsZero reports whether no filter is active.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.Title) == "" && f.Status == nil && f.Priority == nil &&
		(f.Due == nil || f.Due.IsZero())
}

// Matches reports whether t passes every active filter.
// A task without a due date fails an active date range.
func (f Filters) Matches(t service.Task, loc *time.Location) bool {
	if title := strings.TrimSpace(f.Title); title != "" &&
		!strings.Contains(strings.ToLower(t.Title), strings.ToLower(title)) {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Due != nil && !f.Due.IsZero() {
		if t.DueDate == nil || !f.Due.Contains(*t.DueDate, loc) {
			return false
		}
	}
	return true
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}
