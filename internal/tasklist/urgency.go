package tasklist

import (
	"time"

	"todo/internal/service"
)

// Urgency buckets a due date relative to today. Lower non-zero values are more urgent.
type Urgency int

const (
	UrgencyNone      Urgency = iota // completed or no due date
	UrgencyOverdue                  // overdue or due today
	UrgencyTomorrow                 // due tomorrow
	UrgencyThreeDays                // within 3 days
	UrgencyWeek                     // within 7 days
	UrgencyTwoWeeks                 // within 14 days
	UrgencyLater                    // beyond 14 days
)

func (u Urgency) String() string {
	switch u {
	case UrgencyOverdue:
		return "overdue"
	case UrgencyTomorrow:
		return "tomorrow"
	case UrgencyThreeDays:
		return "within 3 days"
	case UrgencyWeek:
		return "within a week"
	case UrgencyTwoWeeks:
		return "within 2 weeks"
	case UrgencyLater:
		return "later"
	default:
		return "none"
	}
}

// UrgencyOf buckets t by the number of calendar days in loc between now and its due date.
func UrgencyOf(t service.Task, now time.Time, loc *time.Location) Urgency {
	if t.Completed || t.DueDate == nil {
		return UrgencyNone
	}
	days := DaysBetween(now, *t.DueDate, loc)
	switch {
	case days <= 0:
		return UrgencyOverdue
	case days == 1:
		return UrgencyTomorrow
	case days <= 3:
		return UrgencyThreeDays
	case days <= 7:
		return UrgencyWeek
	case days <= 14:
		return UrgencyTwoWeeks
	default:
		return UrgencyLater
	}
}

// DaysBetween returns the calendar-day difference to - from in loc, ignoring time of day.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	fy, fm, fd := from.In(loc).Date()
	ty, tm, td := to.In(loc).Date()
	// Compare as UTC dates so DST shifts never produce a fractional day.
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
