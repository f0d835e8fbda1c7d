package availability

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts a wall-clock "HH:MM" or "HH:MM:SS" string into
// minutes from midnight. Seconds are accepted and truncated. "24:00"
// is the end-of-day sentinel (1440), letting windows run to midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time: %q", clock)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("invalid clock time: %q", clock)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid clock time: %q", clock)
	}
	seconds := 0
	if len(parts) == 3 {
		seconds, err = strconv.Atoi(parts[2])
		if err != nil || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("invalid clock time: %q", clock)
		}
	}
	if hours == 24 && (minutes != 0 || seconds != 0) {
		return 0, fmt.Errorf("invalid clock time: %q", clock)
	}

	return hours*60 + minutes, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
