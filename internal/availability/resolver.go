package availability

import (
	"fmt"
	"sort"
	"time"

	"meetly/pkg/model"
)

const dateLayout = "2006-01-02"

// Window is an open booking window within a single day, in minutes
// from midnight. Half-open: a slot may end exactly at EndMin.
type Window struct {
	StartMin int
	EndMin   int
}

// ResolveWindows computes the effective open windows of a schedule for
// a "YYYY-MM-DD" date.
//
// A date override replaces the weekly pattern entirely, including the
// empty override that marks the date unavailable. Degenerate override
// windows (start == end) are skipped; an override consisting only of
// degenerate windows counts as no override at all and the weekly
// pattern applies.
func ResolveWindows(sc *model.Schedule, date string) ([]Window, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	if ov := sc.OverrideFor(date); ov != nil {
		if len(ov.Windows) == 0 {
			return nil, nil
		}
		windows, err := toWindows(ov.Windows)
		if err != nil {
			return nil, err
		}
		if len(windows) > 0 {
			return windows, nil
		}
	}

	windows, err := toWindows(sc.WeeklyFor(day.Weekday()))
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func toWindows(timeWindows []model.TimeWindow) ([]Window, error) {
	var windows []Window
	for _, tw := range timeWindows {
		start, err := ParseClock(tw.Start)
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(tw.End)
		if err != nil {
			return nil, err
		}
		if start == end {
			continue
		}
		windows = append(windows, Window{StartMin: start, EndMin: end})
	}

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].StartMin != windows[j].StartMin {
			return windows[i].StartMin < windows[j].StartMin
		}
		return windows[i].EndMin < windows[j].EndMin
	})
	return windows, nil
}
