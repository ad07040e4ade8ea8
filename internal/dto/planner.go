package dto

import "github.com/mramrohaleem/study/internal/models"

// SubjectRequest creates or replaces a subject.
type SubjectRequest struct {
	Name                 string  `json:"name" validate:"required,max=200"`
	ExamDate             string  `json:"exam_date" validate:"required,datetime=2006-01-02"`
	ReservedRevisionDays int     `json:"reserved_revision_days" validate:"min=0,max=365"`
	Difficulty           string  `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Weight               float64 `json:"weight" validate:"gte=0"`
	Archived             bool    `json:"archived"`
}

// ExamDateRequest moves a subject's exam.
type ExamDateRequest struct {
	ExamDate string `json:"exam_date" validate:"required,datetime=2006-01-02"`
}

// LectureRequest creates or replaces a lecture.
type LectureRequest struct {
	Title            string   `json:"title" validate:"required,max=300"`
	Order            int      `json:"order" validate:"min=0"`
	Type             string   `json:"type" validate:"omitempty,oneof=lecture lab tutorial reading other"`
	Status           string   `json:"status" validate:"omitempty,oneof=not_started in_progress done needs_revision"`
	EstimatedMinutes int      `json:"estimated_minutes" validate:"required,min=1,max=1440"`
	Tags             []string `json:"tags" validate:"omitempty,dive,required"`
	Priority         string   `json:"priority" validate:"omitempty,oneof=low normal high"`
}

// RevisionPassRequest creates or replaces a revision pass.
type RevisionPassRequest struct {
	Name                 string   `json:"name" validate:"required,max=200"`
	Trigger              string   `json:"trigger" validate:"required,oneof=after_finish before_exam"`
	OffsetDaysBeforeExam *int     `json:"offset_days_before_exam" validate:"omitempty,min=0"`
	IncludeTags          []string `json:"include_tags" validate:"omitempty,dive,required"`
	IncludeStatuses      []string `json:"include_statuses" validate:"omitempty,dive,oneof=not_started in_progress done needs_revision"`
	SpreadOverDays       *int     `json:"spread_over_days" validate:"omitempty,min=1"`
}

// RestDayRequest toggles the rest-day flag.
type RestDayRequest struct {
	IsRestDay *bool `json:"is_rest_day" validate:"required"`
}

// CompletionRequest marks a planned lecture done or undone.
type CompletionRequest struct {
	LectureID  string `json:"lecture_id" validate:"required"`
	SubjectID  string `json:"subject_id"`
	Block      string `json:"block"`
	IsRevision bool   `json:"is_revision"`
	Completed  *bool  `json:"completed" validate:"required"`
}

// MinutesRequest logs focused study minutes.
type MinutesRequest struct {
	Minutes int `json:"minutes" validate:"required,min=1,max=1440"`
}

// SettingsRequest replaces planner settings. A null cap means unbounded.
type SettingsRequest struct {
	MaxLecturesPerDay *int `json:"max_lectures_per_day" validate:"omitempty,min=1"`
	MaxMinutesPerDay  *int `json:"max_minutes_per_day" validate:"omitempty,min=1"`
	StreakMinLectures int  `json:"streak_min_lectures" validate:"min=0"`
	StreakMinMinutes  int  `json:"streak_min_minutes" validate:"min=0"`
	WeekStartsOn      *int `json:"week_starts_on" validate:"omitempty,min=0,max=6"`
}

// CalendarQuery bounds a calendar listing.
type CalendarQuery struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" validate:"required,datetime=2006-01-02"`
}

// ExportRequest enqueues a calendar export.
type ExportRequest struct {
	Format    string `json:"format" validate:"required,oneof=csv pdf xlsx"`
	From      string `json:"from" validate:"required,datetime=2006-01-02"`
	To        string `json:"to" validate:"required,datetime=2006-01-02"`
	SubjectID string `json:"subject_id"`
}

// PlanResponse reports a scheduling run.
type PlanResponse struct {
	Change   models.PlanChange `json:"change"`
	Warnings []string          `json:"warnings"`
	Calendar []models.StudyDay `json:"calendar"`
}

// RevisionScheduleResponse reports a revision pass run.
type RevisionScheduleResponse struct {
	PassID     string `json:"pass_id"`
	Message    string `json:"message,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	SpreadDays int    `json:"spread_days"`
	Scheduled  int    `json:"scheduled"`
}

// HealthStatus is returned by readiness probes.
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}
