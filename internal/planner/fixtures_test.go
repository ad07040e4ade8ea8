package planner

import (
	"fmt"
	"testing"
	"time"

	"github.com/mramrohaleem/study/internal/models"
)

// testToday is a Monday.
var testToday = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

func dateAt(offset int) string {
	return FormatDate(AddDays(DateOf(testToday), offset))
}

func intPtr(v int) *int {
	return &v
}

func subjectFixture(id string, examOffset, reserved int) models.Subject {
	return models.Subject{
		ID:                   id,
		Name:                 "Subject " + id,
		ExamDate:             dateAt(examOffset),
		ReservedRevisionDays: reserved,
		Difficulty:           models.DifficultyMedium,
		Weight:               1,
	}
}

func lecturesFixture(subjectID string, count, minutes int, status models.LectureStatus) []models.Lecture {
	lectures := make([]models.Lecture, 0, count)
	for i := 0; i < count; i++ {
		lectures = append(lectures, models.Lecture{
			ID:               fmt.Sprintf("%s-l%d", subjectID, i+1),
			SubjectID:        subjectID,
			Title:            fmt.Sprintf("Lecture %d", i+1),
			Order:            i + 1,
			Type:             models.LectureTypeLecture,
			Status:           status,
			EstimatedMinutes: minutes,
			Priority:         models.PriorityNormal,
		})
	}
	return lectures
}

func stateFixture(subjects []models.Subject, lectures []models.Lecture, settings models.Settings) models.State {
	return models.State{
		Subjects: subjects,
		Lectures: lectures,
		Calendar: []models.StudyDay{},
		Settings: settings,
	}
}

func cappedSettings(lectures, minutes int) models.Settings {
	settings := models.DefaultSettings()
	settings.MaxLecturesPerDay = models.Bounded(lectures)
	settings.MaxMinutesPerDay = models.Bounded(minutes)
	return settings
}

// assignments maps date -> lecture ids of the subject's non-revision targets.
func assignments(state models.State, subjectID string) map[string][]string {
	result := make(map[string][]string)
	for _, d := range state.Calendar {
		for _, entry := range d.TargetLectures {
			if entry.SubjectID == subjectID && !entry.IsRevision {
				result[d.Date] = append(result[d.Date], entry.LectureID)
			}
		}
	}
	return result
}

func findDay(t *testing.T, state models.State, date string) models.StudyDay {
	t.Helper()
	for _, d := range state.Calendar {
		if d.Date == date {
			return d
		}
	}
	t.Fatalf("day %s not found in calendar", date)
	return models.StudyDay{}
}
