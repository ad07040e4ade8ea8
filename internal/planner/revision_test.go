package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mramrohaleem/study/internal/models"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
)

func revisionEntries(state models.State, subjectID string) map[string][]models.PlannedLecture {
	result := make(map[string][]models.PlannedLecture)
	for _, d := range state.Calendar {
		for _, entry := range d.TargetLectures {
			if entry.SubjectID == subjectID && entry.IsRevision {
				result[d.Date] = append(result[d.Date], entry)
			}
		}
	}
	return result
}

func beforeExamPass(offset, spread int) models.RevisionPass {
	return models.RevisionPass{
		ID:                   "p1",
		SubjectID:            "s1",
		Name:                 "Final sweep",
		Trigger:              models.TriggerBeforeExam,
		OffsetDaysBeforeExam: intPtr(offset),
		IncludeStatuses:      models.Statuses{models.LectureStatusDone},
		SpreadOverDays:       intPtr(spread),
	}
}

func TestScheduleRevisionPassRoundRobin(t *testing.T) {
	state := stateFixture(
		[]models.Subject{subjectFixture("s1", 10, 2)},
		lecturesFixture("s1", 4, 50, models.LectureStatusDone),
		models.DefaultSettings(),
	)

	result, err := ScheduleRevisionPass(state, beforeExamPass(5, 2), testToday)
	require.NoError(t, err)

	assert.Equal(t, dateAt(5), result.StartDate)
	assert.Equal(t, 2, result.SpreadDays)
	assert.Equal(t, 4, result.Scheduled)
	assert.Equal(t, "scheduled across 2 day(s) starting "+dateAt(5), result.Message)

	got := revisionEntries(result.State, "s1")
	assert.Equal(t, map[string][]models.PlannedLecture{
		dateAt(5): {
			{SubjectID: "s1", LectureID: "s1-l1", Block: "revision-1", IsRevision: true},
			{SubjectID: "s1", LectureID: "s1-l3", Block: "revision-1", IsRevision: true},
		},
		dateAt(6): {
			{SubjectID: "s1", LectureID: "s1-l2", Block: "revision-2", IsRevision: true},
			{SubjectID: "s1", LectureID: "s1-l4", Block: "revision-2", IsRevision: true},
		},
	}, got)
	assert.Equal(t, 50, findDay(t, result.State, dateAt(5)).TargetMinutes)
	assert.Equal(t, 50, findDay(t, result.State, dateAt(6)).TargetMinutes)
	assert.Empty(t, state.Calendar)
}

func TestScheduleRevisionPassIsIdempotent(t *testing.T) {
	state := stateFixture(
		[]models.Subject{subjectFixture("s1", 10, 2)},
		lecturesFixture("s1", 3, 30, models.LectureStatusDone),
		models.DefaultSettings(),
	)
	pass := beforeExamPass(4, 3)

	first, err := ScheduleRevisionPass(state, pass, testToday)
	require.NoError(t, err)
	second, err := ScheduleRevisionPass(first.State, pass, testToday)
	require.NoError(t, err)

	assert.Equal(t, 3, first.Scheduled)
	assert.Equal(t, 0, second.Scheduled)
	assert.Equal(t, first.State.Calendar, second.State.Calendar)
}

func TestScheduleRevisionPassKeepsExistingTargets(t *testing.T) {
	lectures := lecturesFixture("s1", 2, 30, models.LectureStatusDone)
	lectures = append(lectures, models.Lecture{ID: "s2-l1", SubjectID: "s2", Status: models.LectureStatusNotStarted, EstimatedMinutes: 45})
	state := stateFixture([]models.Subject{subjectFixture("s1", 10, 2), subjectFixture("s2", 12, 0)}, lectures, models.DefaultSettings())
	existing := models.PlannedLecture{SubjectID: "s2", LectureID: "s2-l1", Block: "morning"}
	state.Calendar = []models.StudyDay{{
		Date:             dateAt(6),
		TargetMinutes:    45,
		CompletedMinutes: 15,
		TargetLectures:   models.PlannedLectures{existing},
	}}

	result, err := ScheduleRevisionPass(state, beforeExamPass(4, 1), testToday)
	require.NoError(t, err)

	d := findDay(t, result.State, dateAt(6))
	require.Len(t, d.TargetLectures, 3)
	assert.Equal(t, existing, d.TargetLectures[0])
	assert.Equal(t, 45+20+20, d.TargetMinutes)
	assert.Equal(t, 15, d.CompletedMinutes)
}

func TestScheduleRevisionPassNoEligibleLectures(t *testing.T) {
	state := stateFixture(
		[]models.Subject{subjectFixture("s1", 10, 2)},
		lecturesFixture("s1", 3, 30, models.LectureStatusNotStarted),
		models.DefaultSettings(),
	)

	result, err := ScheduleRevisionPass(state, beforeExamPass(5, 2), testToday)
	require.NoError(t, err)
	assert.Equal(t, MessageNoEligible, result.Message)
	assert.Equal(t, 0, result.Scheduled)
	assert.Empty(t, result.State.Calendar)
}

func TestScheduleRevisionPassTagFilter(t *testing.T) {
	lectures := lecturesFixture("s1", 4, 30, models.LectureStatusDone)
	lectures[1].Tags = models.Tags{"proofs"}
	lectures[3].Tags = models.Tags{"proofs", "exam"}
	state := stateFixture([]models.Subject{subjectFixture("s1", 10, 2)}, lectures, models.DefaultSettings())
	pass := beforeExamPass(5, 1)
	pass.IncludeTags = models.Tags{"proofs"}

	result, err := ScheduleRevisionPass(state, pass, testToday)
	require.NoError(t, err)

	entries := revisionEntries(result.State, "s1")[dateAt(5)]
	require.Len(t, entries, 2)
	assert.Equal(t, "s1-l2", entries[0].LectureID)
	assert.Equal(t, "s1-l4", entries[1].LectureID)
}

func TestScheduleRevisionPassAfterFinishDefaults(t *testing.T) {
	lectures := lecturesFixture("s1", 5, 30, models.LectureStatusDone)
	lectures[4].Status = models.LectureStatusNeedsRevision
	state := stateFixture([]models.Subject{subjectFixture("s1", 10, 2)}, lectures, models.DefaultSettings())
	pass := models.RevisionPass{ID: "p2", SubjectID: "s1", Trigger: models.TriggerAfterFinish}

	result, err := ScheduleRevisionPass(state, pass, testToday)
	require.NoError(t, err)

	assert.Equal(t, dateAt(1), result.StartDate)
	assert.Equal(t, 3, result.SpreadDays)
	assert.Equal(t, 5, result.Scheduled)
	got := revisionEntries(result.State, "s1")
	assert.Len(t, got[dateAt(1)], 2)
	assert.Len(t, got[dateAt(2)], 2)
	assert.Len(t, got[dateAt(3)], 1)
}

func TestScheduleRevisionPassErrors(t *testing.T) {
	state := stateFixture(
		[]models.Subject{subjectFixture("s1", 10, 2)},
		lecturesFixture("s1", 2, 30, models.LectureStatusDone),
		models.DefaultSettings(),
	)

	missingOffset := beforeExamPass(0, 1)
	missingOffset.OffsetDaysBeforeExam = nil
	_, err := ScheduleRevisionPass(state, missingOffset, testToday)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	unknown := beforeExamPass(3, 1)
	unknown.Trigger = "whenever"
	_, err = ScheduleRevisionPass(state, unknown, testToday)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	orphan := beforeExamPass(3, 1)
	orphan.SubjectID = "ghost"
	_, err = ScheduleRevisionPass(state, orphan, testToday)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRevisionMinutes(t *testing.T) {
	assert.Equal(t, 20, RevisionMinutes(0))
	assert.Equal(t, 20, RevisionMinutes(39))
	assert.Equal(t, 20, RevisionMinutes(41))
	assert.Equal(t, 45, RevisionMinutes(90))
}
