package planner

import (
	"fmt"
	"time"

	"github.com/mramrohaleem/study/internal/models"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
)

// MessageNoEligible is reported when a pass matches no lecture.
const MessageNoEligible = "no eligible lectures"

const (
	defaultRevisionSpread = 3
	minRevisionMinutes    = 20
)

// RevisionResult is the outcome of scheduling one revision pass.
type RevisionResult struct {
	State      models.State
	Message    string
	StartDate  string
	SpreadDays int
	Scheduled  int
}

// RevisionMinutes estimates a revision sitting: half the first pass, at least 20 minutes.
func RevisionMinutes(estimated int) int {
	return maxInt(estimated/2, minRevisionMinutes)
}

// ScheduleRevisionPass round-robins the pass's eligible lectures onto the
// revision track of the calendar. Existing entries are never removed.
func ScheduleRevisionPass(state models.State, pass models.RevisionPass, today time.Time) (*RevisionResult, error) {
	subject, ok := state.FindSubject(pass.SubjectID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", pass.SubjectID))
	}

	eligible := eligibleLectures(state.LecturesOf(subject.ID), pass)
	if len(eligible) == 0 {
		return &RevisionResult{State: state.Clone(), Message: MessageNoEligible}, nil
	}

	start, err := revisionStart(*subject, pass, DateOf(today))
	if err != nil {
		return nil, err
	}
	spread := minInt(len(eligible), defaultRevisionSpread)
	if pass.SpreadOverDays != nil && *pass.SpreadOverDays > 0 {
		spread = *pass.SpreadOverDays
	}

	next := state.Clone()
	store := newDayStore(&next)
	scheduled := 0
	for i, lecture := range eligible {
		offset := i % spread
		idx := store.ensure(FormatDate(AddDays(start, offset)))
		day := store.day(idx)
		if day.HasTarget(subject.ID, lecture.ID) {
			continue
		}
		day.TargetLectures = append(day.TargetLectures, models.PlannedLecture{
			SubjectID:  subject.ID,
			LectureID:  lecture.ID,
			Block:      fmt.Sprintf("revision-%d", offset+1),
			IsRevision: true,
		})
		day.TargetMinutes += RevisionMinutes(lecture.EstimatedMinutes)
		scheduled++
	}
	store.sortDays()

	startDate := FormatDate(start)
	return &RevisionResult{
		State:      next,
		Message:    fmt.Sprintf("scheduled across %d day(s) starting %s", spread, startDate),
		StartDate:  startDate,
		SpreadDays: spread,
		Scheduled:  scheduled,
	}, nil
}

func eligibleLectures(lectures []models.Lecture, pass models.RevisionPass) []models.Lecture {
	statuses := pass.IncludeStatuses
	if len(statuses) == 0 {
		statuses = models.DefaultRevisionStatuses
	}
	result := make([]models.Lecture, 0, len(lectures))
	for _, lecture := range lectures {
		if !statuses.Has(lecture.Status) {
			continue
		}
		if len(pass.IncludeTags) > 0 && !lecture.Tags.Intersects(pass.IncludeTags) {
			continue
		}
		result = append(result, lecture)
	}
	return result
}

func revisionStart(subject models.Subject, pass models.RevisionPass, today time.Time) (time.Time, error) {
	switch pass.Trigger {
	case models.TriggerAfterFinish:
		return AddDays(today, 1), nil
	case models.TriggerBeforeExam:
		if pass.OffsetDaysBeforeExam == nil {
			return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "offset_days_before_exam is required for before_exam passes")
		}
		exam, err := ParseDate(subject.ExamDate)
		if err != nil {
			return time.Time{}, err
		}
		return AddDays(exam, -*pass.OffsetDaysBeforeExam), nil
	default:
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown revision trigger %q", pass.Trigger))
	}
}
