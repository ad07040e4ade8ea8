package models

// State is the full planner snapshot consumed and produced by the core.
type State struct {
	Subjects []Subject  `json:"subjects"`
	Lectures []Lecture  `json:"lectures"`
	Calendar []StudyDay `json:"calendar"`
	Settings Settings   `json:"settings"`
}

// Clone returns a deep copy so transforms never alias the input snapshot.
func (s State) Clone() State {
	clone := State{Settings: s.Settings}
	clone.Subjects = make([]Subject, len(s.Subjects))
	for i, subject := range s.Subjects {
		passes := make([]RevisionPass, len(subject.RevisionPasses))
		for j, pass := range subject.RevisionPasses {
			passes[j] = pass.clone()
		}
		subject.RevisionPasses = passes
		clone.Subjects[i] = subject
	}
	clone.Lectures = make([]Lecture, len(s.Lectures))
	for i, lecture := range s.Lectures {
		lecture.Tags = lecture.Tags.clone()
		clone.Lectures[i] = lecture
	}
	clone.Calendar = make([]StudyDay, len(s.Calendar))
	for i, day := range s.Calendar {
		clone.Calendar[i] = day.Clone()
	}
	return clone
}

// FindSubject returns the subject with the given id.
func (s *State) FindSubject(id string) (*Subject, bool) {
	for i := range s.Subjects {
		if s.Subjects[i].ID == id {
			return &s.Subjects[i], true
		}
	}
	return nil, false
}

// FindLecture returns the lecture with the given id.
func (s *State) FindLecture(id string) (*Lecture, bool) {
	for i := range s.Lectures {
		if s.Lectures[i].ID == id {
			return &s.Lectures[i], true
		}
	}
	return nil, false
}

// LecturesOf returns the subject's lectures in collection order.
func (s *State) LecturesOf(subjectID string) []Lecture {
	var result []Lecture
	for _, lecture := range s.Lectures {
		if lecture.SubjectID == subjectID {
			result = append(result, lecture)
		}
	}
	return result
}

func (p RevisionPass) clone() RevisionPass {
	p.IncludeTags = p.IncludeTags.clone()
	if p.IncludeStatuses != nil {
		p.IncludeStatuses = append(make(Statuses, 0, len(p.IncludeStatuses)), p.IncludeStatuses...)
	}
	if p.OffsetDaysBeforeExam != nil {
		v := *p.OffsetDaysBeforeExam
		p.OffsetDaysBeforeExam = &v
	}
	if p.SpreadOverDays != nil {
		v := *p.SpreadOverDays
		p.SpreadOverDays = &v
	}
	return p
}
