package planner

import (
	"math"
	"time"

	"github.com/mramrohaleem/study/internal/models"
)

// SubjectProgress counts completion states over the given lectures.
func SubjectProgress(lectures []models.Lecture) models.SubjectProgress {
	var progress models.SubjectProgress
	progress.Total = len(lectures)
	for _, lecture := range lectures {
		switch lecture.Status {
		case models.LectureStatusDone:
			progress.Done++
		case models.LectureStatusNeedsRevision:
			progress.NeedsRevision++
		case models.LectureStatusInProgress:
			progress.InProgress++
		}
	}
	progress.Remaining = progress.Total - progress.Done
	return progress
}

// SubjectOutlook compares remaining lectures against the days left before the
// revision cutoff and flags subjects whose required pace exceeds the caps.
func SubjectOutlook(subject models.Subject, lectures []models.Lecture, settings models.Settings, today time.Time) models.SubjectOutlook {
	progress := SubjectProgress(lectures)
	outlook := models.SubjectOutlook{SubjectID: subject.ID, Remaining: progress.Remaining}

	if exam, err := ParseDate(subject.ExamDate); err == nil {
		cutoff := AddDays(exam, -subject.ReservedRevisionDays)
		if days := DaysBetween(DateOf(today), cutoff); days > 0 {
			outlook.EffectiveDays = days
		}
	}
	if outlook.Remaining == 0 {
		return outlook
	}
	if outlook.EffectiveDays == 0 {
		outlook.RequiredPerDay = float64(outlook.Remaining)
		outlook.AtRisk = true
		return outlook
	}

	outlook.RequiredPerDay = math.Round(float64(outlook.Remaining)/float64(outlook.EffectiveDays)*100) / 100
	if maxLectures, ok := settings.MaxLecturesPerDay.Cap(); ok && outlook.RequiredPerDay > float64(maxLectures) {
		outlook.AtRisk = true
	}
	if maxMinutes, ok := settings.MaxMinutesPerDay.Cap(); ok {
		remainingMinutes := 0
		for _, lecture := range lectures {
			if lecture.Status != models.LectureStatusDone {
				remainingMinutes += lecture.EstimatedMinutes
			}
		}
		if float64(remainingMinutes)/float64(outlook.EffectiveDays) > float64(maxMinutes) {
			outlook.AtRisk = true
		}
	}
	return outlook
}
