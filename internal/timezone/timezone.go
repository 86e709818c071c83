// Package timezone lists the timezones a profile can be set to and resolves
// them to locations for calendar-day math.
package timezone

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // zone names resolve on systems without a zoneinfo database
)

// Default is used when no timezone is configured or detected.
const Default = "UTC"

// Zone is a selectable timezone.
type Zone struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
}

// Supported is the list offered in settings.
var Supported = []Zone{
	{"UTC", "UTC (Coordinated Universal Time)"},
	{"America/New_York", "Eastern Time (ET)"},
	{"America/Chicago", "Central Time (CT)"},
	{"America/Denver", "Mountain Time (MT)"},
	{"America/Los_Angeles", "Pacific Time (PT)"},
	{"Europe/London", "London (GMT/BST)"},
	{"Europe/Paris", "Paris (CET/CEST)"},
	{"Europe/Belgrade", "Belgrade (CET/CEST)"},
	{"Asia/Tokyo", "Tokyo (JST)"},
	{"Asia/Shanghai", "Shanghai (CST)"},
	{"Australia/Sydney", "Sydney (AEDT/AEST)"},
}

// Lookup finds a supported zone by name, case-insensitively.
func Lookup(name string) (Zone, error) {
	for _, z := range Supported {
		if strings.EqualFold(z.Name, strings.TrimSpace(name)) {
			return z, nil
		}
	}
	return Zone{}, fmt.Errorf("unsupported timezone: %s (run: todo timezones)", name)
}

// Location loads name, falling back to UTC if it cannot be resolved.
func Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Detect returns the system's IANA timezone name, or Default.
// It checks $TZ, /etc/timezone and the /etc/localtime symlink.
func Detect() string {
	return detect(os.Getenv("TZ"), "/etc/timezone", "/etc/localtime")
}

func detect(tz, timezoneFile, localtime string) string {
	if name := strings.TrimPrefix(strings.TrimSpace(tz), ":"); valid(name) {
		return name
	}
	if data, err := os.ReadFile(timezoneFile); err == nil {
		if name := strings.TrimSpace(string(data)); valid(name) {
			return name
		}
	}
	if target, err := filepath.EvalSymlinks(localtime); err == nil {
		if i := strings.Index(target, "zoneinfo/"); i >= 0 {
			if name := target[i+len("zoneinfo/"):]; valid(name) {
				return name
			}
		}
	}
	return Default
}

func valid(name string) bool {
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
