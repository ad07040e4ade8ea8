package models

// PlanChange reports the effect of a scheduling run on one subject.
type PlanChange struct {
	SubjectID       string  `json:"subject_id"`
	PreviousAverage float64 `json:"previous_average"`
	NewAverage      float64 `json:"new_average"`
	Overloaded      bool    `json:"overloaded"`
}

// SubjectProgress summarises lecture completion for a subject.
type SubjectProgress struct {
	Total         int `json:"total"`
	Done          int `json:"done"`
	Remaining     int `json:"remaining"`
	NeedsRevision int `json:"needs_revision"`
	InProgress    int `json:"in_progress"`
}

// SubjectOutlook compares the remaining workload with the days left before the revision cutoff.
type SubjectOutlook struct {
	SubjectID      string  `json:"subject_id"`
	Remaining      int     `json:"remaining"`
	EffectiveDays  int     `json:"effective_days"`
	RequiredPerDay float64 `json:"required_per_day"`
	AtRisk         bool    `json:"at_risk"`
}

// WeekStats aggregates study activity from the start of the week until today.
type WeekStats struct {
	StartDate         string         `json:"start_date"`
	EndDate           string         `json:"end_date"`
	CompletedMinutes  int            `json:"completed_minutes"`
	CompletedLectures int            `json:"completed_lectures"`
	ScheduledLectures int            `json:"scheduled_lectures"`
	Adherence         int            `json:"adherence"`
	TopSubjectID      string         `json:"top_subject_id,omitempty"`
	PerSubject        map[string]int `json:"per_subject"`
}

// StreakStats reports the consecutive qualifying days ending today.
type StreakStats struct {
	Days        int    `json:"days"`
	Today       string `json:"today"`
	MinLectures int    `json:"min_lectures"`
	MinMinutes  int    `json:"min_minutes"`
}
