package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LectureType classifies study content.
type LectureType string

const (
	LectureTypeLecture  LectureType = "lecture"
	LectureTypeLab      LectureType = "lab"
	LectureTypeTutorial LectureType = "tutorial"
	LectureTypeReading  LectureType = "reading"
	LectureTypeOther    LectureType = "other"
)

// LectureStatus tracks how far a lecture has been studied.
type LectureStatus string

const (
	LectureStatusNotStarted    LectureStatus = "not_started"
	LectureStatusInProgress    LectureStatus = "in_progress"
	LectureStatusDone          LectureStatus = "done"
	LectureStatusNeedsRevision LectureStatus = "needs_revision"
)

// LecturePriority ranks lectures inside a subject.
type LecturePriority string

const (
	PriorityLow    LecturePriority = "low"
	PriorityNormal LecturePriority = "normal"
	PriorityHigh   LecturePriority = "high"
)

// Lecture is an atomic unit of study content belonging to one subject.
type Lecture struct {
	ID               string          `db:"id" json:"id"`
	SubjectID        string          `db:"subject_id" json:"subject_id"`
	Title            string          `db:"title" json:"title"`
	Order            int             `db:"sort_order" json:"order"`
	Type             LectureType     `db:"type" json:"type"`
	Status           LectureStatus   `db:"status" json:"status"`
	EstimatedMinutes int             `db:"estimated_minutes" json:"estimated_minutes"`
	Tags             Tags            `db:"tags" json:"tags"`
	Priority         LecturePriority `db:"priority" json:"priority"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Tags is a set of labels stored as a JSON array.
type Tags []string

// Has reports whether the tag is present.
func (t Tags) Has(tag string) bool {
	for _, item := range t {
		if item == tag {
			return true
		}
	}
	return false
}

// Intersects reports whether any tag in other is present.
func (t Tags) Intersects(other []string) bool {
	for _, tag := range other {
		if t.Has(tag) {
			return true
		}
	}
	return false
}

func (t Tags) clone() Tags {
	if t == nil {
		return nil
	}
	return append(make(Tags, 0, len(t)), t...)
}

// Value marshals the tags to JSON for persistence.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		t = Tags{}
	}
	data, err := json.Marshal([]string(t))
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array column.
func (t *Tags) Scan(value interface{}) error {
	return scanJSON(value, t, "tags")
}

func scanJSON(value interface{}, dest interface{}, label string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan %s: unsupported type %T", label, value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", label, err)
	}
	return nil
}
