package tasklist

import "todo/internal/service"

// Color names a badge color. The empty color renders neutrally.
type Color string

const (
	ColorNone    Color = ""
	ColorGray    Color = "gray"
	ColorBlue    Color = "blue"
	ColorGreen   Color = "green"
	ColorRed     Color = "red"
	ColorYellow  Color = "yellow"
	ColorMagenta Color = "magenta"
	ColorCyan    Color = "cyan"
)

// StatusColor returns the badge color for a status.
func StatusColor(s service.Status) Color {
	switch s {
	case service.StatusInProgress:
		return ColorBlue
	case service.StatusDone:
		return ColorGreen
	case service.StatusCancelled:
		return ColorRed
	default:
		return ColorGray
	}
}

// PriorityColor returns the badge color for a priority.
func PriorityColor(p service.Priority) Color {
	switch p {
	case service.PriorityHigh:
		return ColorRed
	case service.PriorityMid:
		return ColorYellow
	default:
		return ColorGray
	}
}

// UrgencyColor returns the due date color for an urgency bucket.
func UrgencyColor(u Urgency) Color {
	switch u {
	case UrgencyOverdue:
		return ColorRed
	case UrgencyTomorrow:
		return ColorMagenta
	case UrgencyThreeDays:
		return ColorYellow
	case UrgencyWeek:
		return ColorCyan
	case UrgencyTwoWeeks:
		return ColorBlue
	case UrgencyLater:
		return ColorGreen
	default:
		return ColorNone
	}
}
