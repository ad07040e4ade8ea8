package planner

import (
	"sort"

	"github.com/mramrohaleem/study/internal/models"
)

// dayStore indexes the calendar of a working snapshot by date. Indices stay
// valid until sortDays is called; pointers from day() must not outlive an ensure().
type dayStore struct {
	state *models.State
	index map[string]int
}

func newDayStore(state *models.State) *dayStore {
	store := &dayStore{state: state}
	store.reindex()
	return store
}

func (s *dayStore) reindex() {
	s.index = make(map[string]int, len(s.state.Calendar))
	for i, day := range s.state.Calendar {
		s.index[day.Date] = i
	}
}

func (s *dayStore) lookup(date string) (int, bool) {
	idx, ok := s.index[date]
	return idx, ok
}

// ensure returns the index of the day, creating an empty record when absent.
func (s *dayStore) ensure(date string) int {
	if idx, ok := s.index[date]; ok {
		return idx
	}
	s.state.Calendar = append(s.state.Calendar, models.StudyDay{
		Date:              date,
		TargetLectures:    models.PlannedLectures{},
		CompletedLectures: models.PlannedLectures{},
	})
	idx := len(s.state.Calendar) - 1
	s.index[date] = idx
	return idx
}

func (s *dayStore) day(idx int) *models.StudyDay {
	return &s.state.Calendar[idx]
}

func (s *dayStore) sortDays() {
	SortCalendar(s.state.Calendar)
	s.reindex()
}

// SortCalendar orders study days ascending by date.
func SortCalendar(days []models.StudyDay) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
}

// DaysInRange returns copies of the study days dated within [from, to].
// An empty bound is open.
func DaysInRange(state models.State, from, to string) []models.StudyDay {
	result := make([]models.StudyDay, 0)
	for _, day := range state.Calendar {
		if from != "" && day.Date < from {
			continue
		}
		if to != "" && day.Date > to {
			continue
		}
		result = append(result, day.Clone())
	}
	SortCalendar(result)
	return result
}

// FindDay returns a copy of the study day for date.
func FindDay(state models.State, date string) (models.StudyDay, bool) {
	for _, day := range state.Calendar {
		if day.Date == date {
			return day.Clone(), true
		}
	}
	return models.StudyDay{}, false
}
