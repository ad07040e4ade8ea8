package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PlannedLecture assigns a lecture to a block of a study day.
type PlannedLecture struct {
	SubjectID  string `json:"subject_id"`
	LectureID  string `json:"lecture_id"`
	Block      string `json:"block"`
	IsRevision bool   `json:"is_revision"`
}

// Matches reports whether both entries refer to the same lecture on the same track.
func (p PlannedLecture) Matches(other PlannedLecture) bool {
	return p.SubjectID == other.SubjectID && p.LectureID == other.LectureID && p.IsRevision == other.IsRevision
}

// PlannedLectures is an ordered assignment list stored as JSONB.
type PlannedLectures []PlannedLecture

// Value marshals the list to JSON for persistence.
func (p PlannedLectures) Value() (driver.Value, error) {
	if p == nil {
		p = PlannedLectures{}
	}
	data, err := json.Marshal([]PlannedLecture(p))
	if err != nil {
		return nil, fmt.Errorf("marshal planned lectures: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB column.
func (p *PlannedLectures) Scan(value interface{}) error {
	return scanJSON(value, p, "planned lectures")
}

// StudyDay records what was planned and completed on one calendar date.
type StudyDay struct {
	Date              string          `db:"date" json:"date"`
	IsRestDay         bool            `db:"is_rest_day" json:"is_rest_day"`
	TargetMinutes     int             `db:"target_minutes" json:"target_minutes"`
	CompletedMinutes  int             `db:"completed_minutes" json:"completed_minutes"`
	TargetLectures    PlannedLectures `db:"target_lectures" json:"target_lectures"`
	CompletedLectures PlannedLectures `db:"completed_lectures" json:"completed_lectures"`
}

// HasTarget reports whether the lecture of the subject is already targeted on this day.
func (d *StudyDay) HasTarget(subjectID, lectureID string) bool {
	for _, entry := range d.TargetLectures {
		if entry.SubjectID == subjectID && entry.LectureID == lectureID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the day.
func (d StudyDay) Clone() StudyDay {
	clone := d
	clone.TargetLectures = d.TargetLectures.clone()
	clone.CompletedLectures = d.CompletedLectures.clone()
	return clone
}

func (p PlannedLectures) clone() PlannedLectures {
	if p == nil {
		return nil
	}
	out := make(PlannedLectures, len(p))
	copy(out, p)
	return out
}
