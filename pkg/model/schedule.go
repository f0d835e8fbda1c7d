package model

import (
	"strings"
	"time"
)

// TimeWindow is a half-open window within a single day, expressed as
// wall-clock "HH:MM" strings in the owning schedule's time zone.
type TimeWindow struct {
	Start string `json:"start" bson:"start" validate:"required,valid_time"`
	End   string `json:"end" bson:"end" validate:"required,valid_time"`
}

type WeeklyWindow struct {
	Day        string `json:"day" bson:"day" validate:"required,valid_weekday"`
	TimeWindow `bson:",inline"`
}

// DateOverride replaces the weekly pattern entirely for one calendar
// date. An override with no windows marks the date unavailable.
type DateOverride struct {
	Date    string       `json:"date" bson:"date" validate:"required,valid_date"`
	Windows []TimeWindow `json:"windows" bson:"windows" validate:"dive"`
}

type Schedule struct {
	ID        string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string         `json:"name" bson:"name" validate:"required,min=2,max=100"`
	TimeZone  string         `json:"time_zone" bson:"time_zone" validate:"required,timezone"`
	Weekly    []WeeklyWindow `json:"weekly" bson:"weekly" validate:"omitempty,dive"`
	Overrides []DateOverride `json:"overrides,omitempty" bson:"overrides" validate:"omitempty,dive"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type ScheduleUpdate struct {
	Name     string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	TimeZone string `json:"time_zone,omitempty" validate:"omitempty,timezone"`
}

// OverrideFor returns the override for the given "YYYY-MM-DD" date, or
// nil when the date follows the weekly pattern.
func (s *Schedule) OverrideFor(date string) *DateOverride {
	for i := range s.Overrides {
		if s.Overrides[i].Date == date {
			return &s.Overrides[i]
		}
	}
	return nil
}

// WeeklyFor returns the weekly windows that apply on the given weekday.
func (s *Schedule) WeeklyFor(day time.Weekday) []TimeWindow {
	name := day.String()
	var windows []TimeWindow
	for _, w := range s.Weekly {
		if strings.EqualFold(w.Day, name) {
			windows = append(windows, w.TimeWindow)
		}
	}
	return windows
}
