package models

import "time"

// EventType names the notifications a caller emits after a state change.
type EventType string

const (
	EventPlanUpdated       EventType = "plan_updated"
	EventCompletionChanged EventType = "completion_changed"
	EventExamDateChanged   EventType = "exam_date_changed"
)

// PlanUpdatedPayload is emitted after a successful scheduling run.
type PlanUpdatedPayload struct {
	SubjectsAffected []string `json:"subjects_affected"`
	Overloaded       bool     `json:"overloaded"`
}

// CompletionChange is emitted after a lecture toggle or a minutes log.
type CompletionChange struct {
	Date                   string `json:"date"`
	CompletedMinutes       int    `json:"completed_minutes"`
	CompletedLecturesCount int    `json:"completed_lectures_count"`
}

// ExamDateChange is emitted after an exam date edit.
type ExamDateChange struct {
	SubjectID   string `json:"subject_id"`
	OldExamDate string `json:"old_exam_date"`
	NewExamDate string `json:"new_exam_date"`
}

// Event is the envelope published to the notification channel.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}
