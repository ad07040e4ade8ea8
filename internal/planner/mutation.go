package planner

import (
	"fmt"

	"github.com/mramrohaleem/study/internal/models"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
)

// SetLectureCompletion marks a planned lecture done (or undone) on date.
// Non-revision completions must reference a target of that day and move the
// lecture to done; undoing one moves it back to in_progress.
func SetLectureCompletion(state models.State, date string, entry models.PlannedLecture, completed bool) (models.State, models.CompletionChange, error) {
	if _, err := ParseDate(date); err != nil {
		return state, models.CompletionChange{}, err
	}
	if _, ok := state.FindLecture(entry.LectureID); !ok {
		return state, models.CompletionChange{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lecture %s not found", entry.LectureID))
	}

	next := state.Clone()
	lecture, _ := next.FindLecture(entry.LectureID)
	if entry.SubjectID == "" {
		entry.SubjectID = lecture.SubjectID
	}
	if entry.SubjectID != lecture.SubjectID {
		return state, models.CompletionChange{}, appErrors.Clone(appErrors.ErrValidation, "lecture does not belong to subject")
	}

	store := newDayStore(&next)
	day := store.day(store.ensure(date))
	if completed {
		target, scheduled := findTarget(*day, entry)
		if !scheduled && !entry.IsRevision {
			return state, models.CompletionChange{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lecture %s is not scheduled on %s", entry.LectureID, date))
		}
		if scheduled && entry.Block == "" {
			entry.Block = target.Block
		}
		if !isCompleted(*day, entry) {
			day.CompletedLectures = append(day.CompletedLectures, entry)
		}
		if !entry.IsRevision {
			lecture.Status = models.LectureStatusDone
		}
	} else {
		kept := make(models.PlannedLectures, 0, len(day.CompletedLectures))
		for _, done := range day.CompletedLectures {
			if !done.Matches(entry) {
				kept = append(kept, done)
			}
		}
		day.CompletedLectures = kept
		if !entry.IsRevision && lecture.Status == models.LectureStatusDone {
			lecture.Status = models.LectureStatusInProgress
		}
	}

	change := completionChange(*day)
	store.sortDays()
	return next, change, nil
}

// LogStudyMinutes adds focused minutes to the day's completed total.
func LogStudyMinutes(state models.State, date string, minutes int) (models.State, models.CompletionChange, error) {
	if _, err := ParseDate(date); err != nil {
		return state, models.CompletionChange{}, err
	}
	if minutes <= 0 {
		return state, models.CompletionChange{}, appErrors.Clone(appErrors.ErrValidation, "minutes must be positive")
	}
	next := state.Clone()
	store := newDayStore(&next)
	day := store.day(store.ensure(date))
	day.CompletedMinutes += minutes
	change := completionChange(*day)
	store.sortDays()
	return next, change, nil
}

// SetRestDay flags or clears a rest day.
func SetRestDay(state models.State, date string, rest bool) (models.State, models.StudyDay, error) {
	if _, err := ParseDate(date); err != nil {
		return state, models.StudyDay{}, err
	}
	next := state.Clone()
	store := newDayStore(&next)
	day := store.day(store.ensure(date))
	day.IsRestDay = rest
	updated := day.Clone()
	store.sortDays()
	return next, updated, nil
}

// UpdateExamDate moves a subject's exam.
func UpdateExamDate(state models.State, subjectID, examDate string) (models.State, models.ExamDateChange, error) {
	if _, err := ParseDate(examDate); err != nil {
		return state, models.ExamDateChange{}, err
	}
	next := state.Clone()
	subject, ok := next.FindSubject(subjectID)
	if !ok {
		return state, models.ExamDateChange{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", subjectID))
	}
	change := models.ExamDateChange{SubjectID: subjectID, OldExamDate: subject.ExamDate, NewExamDate: examDate}
	subject.ExamDate = examDate
	return next, change, nil
}

// UpsertSubject inserts the subject or replaces the stored one, keeping its
// revision passes and creation time.
func UpsertSubject(state models.State, subject models.Subject) (models.State, error) {
	if _, err := ParseDate(subject.ExamDate); err != nil {
		return state, err
	}
	next := state.Clone()
	if existing, ok := next.FindSubject(subject.ID); ok {
		subject.RevisionPasses = existing.RevisionPasses
		subject.CreatedAt = existing.CreatedAt
		*existing = subject
		return next, nil
	}
	if subject.RevisionPasses == nil {
		subject.RevisionPasses = []models.RevisionPass{}
	}
	next.Subjects = append(next.Subjects, subject)
	return next, nil
}

// UpsertLecture inserts the lecture or replaces the stored one.
func UpsertLecture(state models.State, lecture models.Lecture) (models.State, error) {
	if _, ok := state.FindSubject(lecture.SubjectID); !ok {
		return state, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", lecture.SubjectID))
	}
	next := state.Clone()
	if existing, ok := next.FindLecture(lecture.ID); ok {
		lecture.CreatedAt = existing.CreatedAt
		*existing = lecture
		return next, nil
	}
	next.Lectures = append(next.Lectures, lecture)
	return next, nil
}

// UpsertRevisionPass inserts the pass into its subject or replaces the stored one.
func UpsertRevisionPass(state models.State, pass models.RevisionPass) (models.State, error) {
	if pass.Trigger == models.TriggerBeforeExam && pass.OffsetDaysBeforeExam == nil {
		return state, appErrors.Clone(appErrors.ErrValidation, "offset_days_before_exam is required for before_exam passes")
	}
	next := state.Clone()
	subject, ok := next.FindSubject(pass.SubjectID)
	if !ok {
		return state, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", pass.SubjectID))
	}
	if existing, ok := subject.FindRevisionPass(pass.ID); ok {
		pass.CreatedAt = existing.CreatedAt
		*existing = pass
		return next, nil
	}
	subject.RevisionPasses = append(subject.RevisionPasses, pass)
	return next, nil
}

// DeleteRevisionPass removes a pass. Calendar entries it produced stay.
func DeleteRevisionPass(state models.State, passID string) (models.State, error) {
	next := state.Clone()
	for i := range next.Subjects {
		passes := next.Subjects[i].RevisionPasses
		for j := range passes {
			if passes[j].ID == passID {
				next.Subjects[i].RevisionPasses = append(passes[:j], passes[j+1:]...)
				return next, nil
			}
		}
	}
	return state, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("revision pass %s not found", passID))
}

// FindRevisionPass locates a pass across subjects.
func FindRevisionPass(state models.State, passID string) (models.RevisionPass, bool) {
	for _, subject := range state.Subjects {
		for _, pass := range subject.RevisionPasses {
			if pass.ID == passID {
				return pass, true
			}
		}
	}
	return models.RevisionPass{}, false
}

// UpdateSettings replaces the planner settings.
func UpdateSettings(state models.State, settings models.Settings) models.State {
	next := state.Clone()
	next.Settings = settings
	return next
}

func findTarget(day models.StudyDay, entry models.PlannedLecture) (models.PlannedLecture, bool) {
	for _, target := range day.TargetLectures {
		if target.Matches(entry) {
			return target, true
		}
	}
	return models.PlannedLecture{}, false
}

func completionChange(day models.StudyDay) models.CompletionChange {
	return models.CompletionChange{
		Date:                   day.Date,
		CompletedMinutes:       day.CompletedMinutes,
		CompletedLecturesCount: len(day.CompletedLectures),
	}
}
