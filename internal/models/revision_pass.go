package models

import (
	"database/sql/driver"
	"time"
)

// RevisionTrigger decides when a revision pass starts.
type RevisionTrigger string

const (
	TriggerAfterFinish RevisionTrigger = "after_finish"
	TriggerBeforeExam  RevisionTrigger = "before_exam"
)

// RevisionPass is a reusable policy for re-scheduling studied lectures.
type RevisionPass struct {
	ID                   string          `db:"id" json:"id"`
	SubjectID            string          `db:"subject_id" json:"subject_id"`
	Name                 string          `db:"name" json:"name"`
	Trigger              RevisionTrigger `db:"trigger_kind" json:"trigger"`
	OffsetDaysBeforeExam *int            `db:"offset_days_before_exam" json:"offset_days_before_exam,omitempty"`
	IncludeTags          Tags            `db:"include_tags" json:"include_tags"`
	IncludeStatuses      Statuses        `db:"include_statuses" json:"include_statuses"`
	SpreadOverDays       *int            `db:"spread_over_days" json:"spread_over_days,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// DefaultRevisionStatuses are used when a pass names no statuses.
var DefaultRevisionStatuses = Statuses{LectureStatusDone, LectureStatusNeedsRevision}

// Statuses is a set of lecture statuses stored as a JSON array.
type Statuses []LectureStatus

// Has reports whether status is in the set.
func (s Statuses) Has(status LectureStatus) bool {
	for _, item := range s {
		if item == status {
			return true
		}
	}
	return false
}

// Value marshals the set to JSON for persistence.
func (s Statuses) Value() (driver.Value, error) {
	values := make(Tags, 0, len(s))
	for _, status := range s {
		values = append(values, string(status))
	}
	return values.Value()
}

// Scan unmarshals a JSON array column.
func (s *Statuses) Scan(value interface{}) error {
	return scanJSON(value, s, "statuses")
}
