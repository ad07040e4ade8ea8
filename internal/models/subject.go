package models

import "time"

// DateLayout is the calendar-date format used for exam dates and study days.
const DateLayout = "2006-01-02"

// Difficulty grades how demanding a subject is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Subject is a course or exam track with its own lectures and exam date.
type Subject struct {
	ID                   string         `db:"id" json:"id"`
	Name                 string         `db:"name" json:"name"`
	ExamDate             string         `db:"exam_date" json:"exam_date"`
	ReservedRevisionDays int            `db:"reserved_revision_days" json:"reserved_revision_days"`
	Difficulty           Difficulty     `db:"difficulty" json:"difficulty"`
	Weight               float64        `db:"weight" json:"weight"`
	Archived             bool           `db:"archived" json:"archived"`
	RevisionPasses       []RevisionPass `db:"-" json:"revision_passes"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// FindRevisionPass returns the pass with the given id.
func (s *Subject) FindRevisionPass(id string) (*RevisionPass, bool) {
	for i := range s.RevisionPasses {
		if s.RevisionPasses[i].ID == id {
			return &s.RevisionPasses[i], true
		}
	}
	return nil, false
}
