package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/mramrohaleem/study/internal/models"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
)

// Warnings surfaced by PlanSubject. They are informational; planning still completes.
const (
	WarningExamImminent = "exam is very close: planner may overload upcoming days"
	WarningAllRestDays  = "every day before the revision cutoff is a rest day: planning on rest days anyway"
)

var blockLabels = []string{"morning", "afternoon", "evening"}

// PlanResult is the outcome of one scheduling run.
type PlanResult struct {
	State    models.State
	Change   models.PlanChange
	Warnings []string
}

// dayLoad tracks the running assignment count and minutes of one planning day.
type dayLoad struct {
	count   int
	minutes int
}

// PlanSubject redistributes the subject's pending lectures across the days
// between today and the revision cutoff. The input snapshot is never mutated.
func PlanSubject(state models.State, subjectID string, today time.Time) (*PlanResult, error) {
	subject, ok := state.FindSubject(subjectID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", subjectID))
	}

	pending := pendingLectures(state.Lectures, subjectID)
	result := &PlanResult{
		Change: models.PlanChange{
			SubjectID:       subjectID,
			PreviousAverage: previousAverage(state.Calendar, subjectID),
		},
		Warnings: []string{},
	}
	if len(pending) == 0 {
		result.State = state.Clone()
		return result, nil
	}

	start := DateOf(today)
	window, imminent := planningWindow(*subject, start)
	if imminent {
		result.Warnings = append(result.Warnings, WarningExamImminent)
	}

	next := state.Clone()
	store := newDayStore(&next)
	planning := make([]string, 0, len(window))
	for _, date := range window {
		idx := store.ensure(date)
		if !store.day(idx).IsRestDay {
			planning = append(planning, date)
		}
	}
	if len(planning) == 0 {
		result.Warnings = append(result.Warnings, WarningAllRestDays)
		planning = window
	}

	pendingIDs := make(map[string]bool, len(pending))
	for _, lecture := range pending {
		pendingIDs[lecture.ID] = true
	}
	minutes := lectureMinutes(next.Lectures)
	firstDate := FormatDate(start)
	touched := make(map[string]bool)
	for i := range next.Calendar {
		day := &next.Calendar[i]
		if day.Date < firstDate {
			continue
		}
		if stripSubject(day, subjectID, pendingIDs) {
			touched[day.Date] = true
		}
	}

	loads := make([]dayLoad, len(planning))
	for i, date := range planning {
		idx, _ := store.lookup(date)
		for _, entry := range store.day(idx).TargetLectures {
			if entry.IsRevision {
				continue
			}
			loads[i].count++
			loads[i].minutes += minutes[entry.LectureID]
		}
	}

	overloaded := imminent
	batches := make([][]models.Lecture, len(planning))
	for _, lecture := range pending {
		slot := -1
		for i := range loads {
			if fits(loads[i], lecture, next.Settings) {
				slot = i
				break
			}
		}
		if slot < 0 {
			slot = len(planning) - 1
			overloaded = true
		}
		loads[slot].count++
		loads[slot].minutes += lecture.EstimatedMinutes
		batches[slot] = append(batches[slot], lecture)
	}

	for i, date := range planning {
		idx, _ := store.lookup(date)
		day := store.day(idx)
		for pos, lecture := range batches[i] {
			day.TargetLectures = append(day.TargetLectures, models.PlannedLecture{
				SubjectID: subjectID,
				LectureID: lecture.ID,
				Block:     blockLabel(pos),
			})
		}
		touched[date] = true
	}

	for i := range next.Calendar {
		day := &next.Calendar[i]
		if !touched[day.Date] {
			continue
		}
		day.TargetMinutes = targetMinutes(*day, minutes)
		pruneCompleted(day)
	}
	store.sortDays()

	result.State = next
	result.Change.NewAverage = float64(len(pending)) / float64(maxInt(1, len(planning)))
	result.Change.Overloaded = overloaded
	return result, nil
}

// pendingLectures returns the subject's unfinished lectures ordered by Order,
// ties kept in collection order.
func pendingLectures(lectures []models.Lecture, subjectID string) []models.Lecture {
	pending := make([]models.Lecture, 0)
	for _, lecture := range lectures {
		if lecture.SubjectID == subjectID && lecture.Status != models.LectureStatusDone {
			pending = append(pending, lecture)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Order < pending[j].Order
	})
	return pending
}

// previousAverage averages the subject's non-revision targets over the days carrying any.
func previousAverage(days []models.StudyDay, subjectID string) float64 {
	total, qualifying := 0, 0
	for _, day := range days {
		count := 0
		for _, entry := range day.TargetLectures {
			if entry.SubjectID == subjectID && !entry.IsRevision {
				count++
			}
		}
		if count > 0 {
			total += count
			qualifying++
		}
	}
	if qualifying == 0 {
		return 0
	}
	return float64(total) / float64(qualifying)
}

// planningWindow lists the dates from start up to, but excluding, the first
// reserved revision day. When the cutoff is missing or not after start the
// window collapses to start alone and imminent is true.
func planningWindow(subject models.Subject, start time.Time) (dates []string, imminent bool) {
	exam, err := ParseDate(subject.ExamDate)
	if err != nil {
		return []string{FormatDate(start)}, true
	}
	cutoff := AddDays(exam, -subject.ReservedRevisionDays)
	span := DaysBetween(start, cutoff)
	if span <= 0 {
		return []string{FormatDate(start)}, true
	}
	dates = make([]string, 0, span)
	for i := 0; i < span; i++ {
		dates = append(dates, FormatDate(AddDays(start, i)))
	}
	return dates, false
}

// stripSubject removes the subject's prior non-revision targets from the day.
// Targets already completed on this day for a lecture that is no longer
// pending are history and stay put.
func stripSubject(day *models.StudyDay, subjectID string, pending map[string]bool) bool {
	kept := make(models.PlannedLectures, 0, len(day.TargetLectures))
	removed := false
	for _, entry := range day.TargetLectures {
		if entry.SubjectID == subjectID && !entry.IsRevision {
			if pending[entry.LectureID] || !isCompleted(*day, entry) {
				removed = true
				continue
			}
		}
		kept = append(kept, entry)
	}
	day.TargetLectures = kept
	return removed
}

// pruneCompleted drops non-revision completions whose target is gone.
func pruneCompleted(day *models.StudyDay) {
	targeted := make(map[string]bool, len(day.TargetLectures))
	for _, entry := range day.TargetLectures {
		targeted[entry.LectureID] = true
	}
	kept := make(models.PlannedLectures, 0, len(day.CompletedLectures))
	for _, entry := range day.CompletedLectures {
		if entry.IsRevision || targeted[entry.LectureID] {
			kept = append(kept, entry)
		}
	}
	day.CompletedLectures = kept
}

func isCompleted(day models.StudyDay, entry models.PlannedLecture) bool {
	for _, done := range day.CompletedLectures {
		if done.Matches(entry) {
			return true
		}
	}
	return false
}

func fits(load dayLoad, lecture models.Lecture, settings models.Settings) bool {
	return settings.MaxLecturesPerDay.Allows(load.count+1) &&
		settings.MaxMinutesPerDay.Allows(load.minutes+lecture.EstimatedMinutes)
}

func blockLabel(pos int) string {
	if pos < len(blockLabels) {
		return blockLabels[pos]
	}
	return fmt.Sprintf("slot-%d", pos+1)
}

func lectureMinutes(lectures []models.Lecture) map[string]int {
	result := make(map[string]int, len(lectures))
	for _, lecture := range lectures {
		result[lecture.ID] = lecture.EstimatedMinutes
	}
	return result
}

// targetMinutes sums first-pass estimates and revision contributions of the day.
func targetMinutes(day models.StudyDay, minutes map[string]int) int {
	total := 0
	for _, entry := range day.TargetLectures {
		if entry.IsRevision {
			total += RevisionMinutes(minutes[entry.LectureID])
			continue
		}
		total += minutes[entry.LectureID]
	}
	return total
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
