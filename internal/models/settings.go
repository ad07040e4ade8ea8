package models

import "time"

// Default streak thresholds applied when settings carry non-positive values.
const (
	DefaultStreakMinLectures = 1
	DefaultStreakMinMinutes  = 30
)

// Settings holds planner caps and streak thresholds.
type Settings struct {
	MaxLecturesPerDay Limit        `db:"max_lectures_per_day" json:"max_lectures_per_day"`
	MaxMinutesPerDay  Limit        `db:"max_minutes_per_day" json:"max_minutes_per_day"`
	StreakMinLectures int          `db:"streak_min_lectures" json:"streak_min_lectures"`
	StreakMinMinutes  int          `db:"streak_min_minutes" json:"streak_min_minutes"`
	WeekStartsOn      time.Weekday `db:"week_starts_on" json:"week_starts_on"`
}

// DefaultSettings returns unbounded caps with the default streak thresholds.
func DefaultSettings() Settings {
	return Settings{
		MaxLecturesPerDay: Unbounded(),
		MaxMinutesPerDay:  Unbounded(),
		StreakMinLectures: DefaultStreakMinLectures,
		StreakMinMinutes:  DefaultStreakMinMinutes,
		WeekStartsOn:      time.Monday,
	}
}

// StreakThresholds returns the effective thresholds.
func (s Settings) StreakThresholds() (minLectures, minMinutes int) {
	minLectures, minMinutes = s.StreakMinLectures, s.StreakMinMinutes
	if minLectures <= 0 {
		minLectures = DefaultStreakMinLectures
	}
	if minMinutes <= 0 {
		minMinutes = DefaultStreakMinMinutes
	}
	return minLectures, minMinutes
}
