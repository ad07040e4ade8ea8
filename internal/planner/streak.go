package planner

import (
	"math"
	"time"

	"github.com/mramrohaleem/study/internal/models"
)

// ComputeStreak counts consecutive qualifying days ending today. A day
// qualifies when it meets either the lecture or the minute threshold.
func ComputeStreak(state models.State, today time.Time) models.StreakStats {
	minLectures, minMinutes := state.Settings.StreakThresholds()
	start := DateOf(today)
	stats := models.StreakStats{
		Today:       FormatDate(start),
		MinLectures: minLectures,
		MinMinutes:  minMinutes,
	}

	byDate := make(map[string]models.StudyDay, len(state.Calendar))
	for _, day := range state.Calendar {
		byDate[day.Date] = day
	}
	for cursor := start; stats.Days <= len(byDate); cursor = AddDays(cursor, -1) {
		day, ok := byDate[FormatDate(cursor)]
		if !ok || !qualifies(day, minLectures, minMinutes) {
			break
		}
		stats.Days++
	}
	return stats
}

func qualifies(day models.StudyDay, minLectures, minMinutes int) bool {
	return len(day.CompletedLectures) >= minLectures || day.CompletedMinutes >= minMinutes
}

// WeekStart returns the first day of the week containing today.
func WeekStart(today time.Time, startsOn time.Weekday) time.Time {
	date := DateOf(today)
	back := (int(date.Weekday()) - int(startsOn) + 7) % 7
	return AddDays(date, -back)
}

// ComputeWeekStats totals completions and adherence for [week start, today].
func ComputeWeekStats(state models.State, today time.Time) models.WeekStats {
	end := DateOf(today)
	start := WeekStart(end, state.Settings.WeekStartsOn)
	stats := models.WeekStats{
		StartDate:  FormatDate(start),
		EndDate:    FormatDate(end),
		PerSubject: make(map[string]int),
	}

	for _, day := range state.Calendar {
		if day.Date < stats.StartDate || day.Date > stats.EndDate {
			continue
		}
		stats.CompletedMinutes += day.CompletedMinutes
		stats.CompletedLectures += len(day.CompletedLectures)
		stats.ScheduledLectures += len(day.TargetLectures)
		for _, entry := range day.CompletedLectures {
			stats.PerSubject[entry.SubjectID]++
		}
	}

	best := 0
	for subjectID, count := range stats.PerSubject {
		if count > best || (count == best && subjectID < stats.TopSubjectID) {
			best = count
			stats.TopSubjectID = subjectID
		}
	}

	if stats.ScheduledLectures > 0 {
		ratio := math.Round(100 * float64(stats.CompletedLectures) / float64(stats.ScheduledLectures))
		stats.Adherence = int(math.Min(ratio, 100))
	}
	return stats
}
