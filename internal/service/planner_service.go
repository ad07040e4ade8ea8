package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mramrohaleem/study/internal/dto"
	"github.com/mramrohaleem/study/internal/models"
	"github.com/mramrohaleem/study/internal/planner"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
)

// StateStore loads and saves the whole planner snapshot.
type StateStore interface {
	Load(ctx context.Context) (models.State, error)
	Save(ctx context.Context, state models.State) error
}

// EventNotifier receives domain events after a successful save.
type EventNotifier interface {
	Dispatch(ctx context.Context, eventType models.EventType, payload interface{})
}

// PlannerServiceConfig tunes the planner shell.
type PlannerServiceConfig struct {
	Location *time.Location
	StatsTTL time.Duration
}

// runOutcome carries what a transform reports to metrics.
type runOutcome struct {
	overloaded bool
	warnings   int
}

type transform func(state models.State, today time.Time) (models.State, runOutcome, error)

// PlannerService runs planner transforms against the persisted snapshot.
// Mutations are serialized: at most one load, transform and save cycle runs
// at a time.
type PlannerService struct {
	store     StateStore
	cache     *CacheService
	metrics   *MetricsService
	notifier  EventNotifier
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PlannerServiceConfig
	now       func() time.Time
	newID     func() string

	mu sync.Mutex
}

// NewPlannerService constructs the planner service.
func NewPlannerService(store StateStore, cache *CacheService, metrics *MetricsService, notifier EventNotifier, validate *validator.Validate, logger *zap.Logger, cfg PlannerServiceConfig) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &PlannerService{
		store:     store,
		cache:     cache,
		metrics:   metrics,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Today returns the planner's current calendar date.
func (s *PlannerService) Today() time.Time {
	return planner.DateOf(s.now().In(s.cfg.Location))
}

// State returns the full snapshot.
func (s *PlannerService) State(ctx context.Context) (*models.State, error) {
	state, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// ListSubjects returns every subject with its revision passes.
func (s *PlannerService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	state, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if state.Subjects == nil {
		return []models.Subject{}, nil
	}
	return state.Subjects, nil
}

// GetSubject returns one subject.
func (s *PlannerService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	state, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	subject, ok := state.FindSubject(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return subject, nil
}

// CreateSubject adds a subject.
func (s *PlannerService) CreateSubject(ctx context.Context, req dto.SubjectRequest) (*models.Subject, error) {
	if err := s.validate(req, "invalid subject payload"); err != nil {
		return nil, err
	}
	subject := subjectFromRequest(s.newID(), req)
	next, err := s.mutate(ctx, "create_subject", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		next, err := planner.UpsertSubject(state, subject)
		return next, runOutcome{}, err
	})
	if err != nil {
		return nil, err
	}
	created, _ := next.FindSubject(subject.ID)
	return created, nil
}

// UpdateSubject replaces a subject's editable fields. A changed exam date
// emits the same event as UpdateExamDate.
func (s *PlannerService) UpdateSubject(ctx context.Context, id string, req dto.SubjectRequest) (*models.Subject, error) {
	if err := s.validate(req, "invalid subject payload"); err != nil {
		return nil, err
	}
	subject := subjectFromRequest(id, req)
	var change *models.ExamDateChange
	next, err := s.mutate(ctx, "update_subject", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		existing, ok := state.FindSubject(id)
		if !ok {
			return state, runOutcome{}, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		if existing.ExamDate != subject.ExamDate {
			change = &models.ExamDateChange{SubjectID: id, OldExamDate: existing.ExamDate, NewExamDate: subject.ExamDate}
		}
		next, err := planner.UpsertSubject(state, subject)
		return next, runOutcome{}, err
	})
	if err != nil {
		return nil, err
	}
	if change != nil {
		s.notify(ctx, models.EventExamDateChanged, *change)
	}
	updated, _ := next.FindSubject(id)
	return updated, nil
}

// UpdateExamDate moves a subject's exam without touching the calendar.
func (s *PlannerService) UpdateExamDate(ctx context.Context, id string, req dto.ExamDateRequest) (*models.ExamDateChange, error) {
	if err := s.validate(req, "invalid exam date payload"); err != nil {
		return nil, err
	}
	var change models.ExamDateChange
	if _, err := s.mutate(ctx, "update_exam_date", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		next, c, err := planner.UpdateExamDate(state, id, req.ExamDate)
		change = c
		return next, runOutcome{}, err
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, models.EventExamDateChanged, change)
	return &change, nil
}

// Progress summarises a subject's lecture statuses.
func (s *PlannerService) Progress(ctx context.Context, id string) (*models.SubjectProgress, error) {
	state, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := state.FindSubject(id); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	progress := planner.SubjectProgress(state.LecturesOf(id))
	return &progress, nil
}

// Outlook reports whether a subject can still be finished before its cutoff.
func (s *PlannerService) Outlook(ctx context.Context, id string) (*models.SubjectOutlook, error) {
	state, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	subject, ok := state.FindSubject(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	outlook := planner.SubjectOutlook(*subject, state.LecturesOf(id), state.Settings, s.Today())
	return &outlook, nil
}

// PlanSubject redistributes a subject's pending lectures from today on.
func (s *PlannerService) PlanSubject(ctx context.Context, id string) (*dto.PlanResponse, error) {
	var (
		result *planner.PlanResult
		runDay time.Time
	)
	next, err := s.mutate(ctx, "plan_subject", func(state models.State, today time.Time) (models.State, runOutcome, error) {
		runDay = today
		res, err := planner.PlanSubject(state, id, today)
		if err != nil {
			return state, runOutcome{}, err
		}
		result = res
		return res.State, runOutcome{overloaded: res.Change.Overloaded, warnings: len(res.Warnings)}, nil
	})
	if err != nil {
		return nil, err
	}
	for _, warning := range result.Warnings {
		s.logger.Warn("planner warning", zap.String("subject_id", id), zap.String("warning", warning))
	}
	s.notify(ctx, models.EventPlanUpdated, models.PlanUpdatedPayload{
		SubjectsAffected: []string{id},
		Overloaded:       result.Change.Overloaded,
	})
	return &dto.PlanResponse{
		Change:   result.Change,
		Warnings: result.Warnings,
		Calendar: planner.DaysInRange(next, planner.FormatDate(runDay), ""),
	}, nil
}

// ListLectures returns a subject's lectures.
func (s *PlannerService) ListLectures(ctx context.Context, subjectID string) ([]models.Lecture, error) {
	state, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := state.FindSubject(subjectID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	lectures := state.LecturesOf(subjectID)
	if lectures == nil {
		lectures = []models.Lecture{}
	}
	return lectures, nil
}

// CreateLecture adds a lecture to a subject.
func (s *PlannerService) CreateLecture(ctx context.Context, subjectID string, req dto.LectureRequest) (*models.Lecture, error) {
	if err := s.validate(req, "invalid lecture payload"); err != nil {
		return nil, err
	}
	lecture := lectureFromRequest(s.newID(), subjectID, req)
	next, err := s.mutate(ctx, "create_lecture", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		next, err := planner.UpsertLecture(state, lecture)
		return next, runOutcome{}, err
	})
	if err != nil {
		return nil, err
	}
	created, _ := next.FindLecture(lecture.ID)
	return created, nil
}

// UpdateLecture replaces a lecture's editable fields.
func (s *PlannerService) UpdateLecture(ctx context.Context, id string, req dto.LectureRequest) (*models.Lecture, error) {
	if err := s.validate(req, "invalid lecture payload"); err != nil {
		return nil, err
	}
	next, err := s.mutate(ctx, "update_lecture", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		existing, ok := state.FindLecture(id)
		if !ok {
			return state, runOutcome{}, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		next, err := planner.UpsertLecture(state, lectureFromRequest(id, existing.SubjectID, req))
		return next, runOutcome{}, err
	})
	if err != nil {
		return nil, err
	}
	updated, _ := next.FindLecture(id)
	return updated, nil
}

// ListRevisionPasses returns a subject's revision passes.
func (s *PlannerService) ListRevisionPasses(ctx context.Context, subjectID string) ([]models.RevisionPass, error) {
	subject, err := s.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subject.RevisionPasses == nil {
		return []models.RevisionPass{}, nil
	}
	return subject.RevisionPasses, nil
}

// CreateRevisionPass adds a revision pass to a subject.
func (s *PlannerService) CreateRevisionPass(ctx context.Context, subjectID string, req dto.RevisionPassRequest) (*models.RevisionPass, error) {
	if err := s.validate(req, "invalid revision pass payload"); err != nil {
		return nil, err
	}
	pass := passFromRequest(s.newID(), subjectID, req)
	next, err := s.mutate(ctx, "create_revision_pass", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		next, err := planner.UpsertRevisionPass(state, pass)
		return next, runOutcome{}, err
	})
	if err != nil {
		return nil, err
	}
	created, _ := planner.FindRevisionPass(next, pass.ID)
	return &created, nil
}

// UpdateRevisionPass replaces a pass's rules.
func (s *PlannerService) UpdateRevisionPass(ctx context.Context, id string, req dto.RevisionPassRequest) (*models.RevisionPass, error) {
	if err := s.validate(req, "invalid revision pass payload"); err != nil {
		return nil, err
	}
	next, err := s.mutate(ctx, "update_revision_pass", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		existing, ok := planner.FindRevisionPass(state, id)
		if !ok {
			return state, runOutcome{}, appErrors.Clone(appErrors.ErrNotFound, "revision pass not found")
		}
		next, err := planner.UpsertRevisionPass(state, passFromRequest(id, existing.SubjectID, req))
		return next, runOutcome{}, err
	})
	if err != nil {
		return nil, err
	}
	updated, _ := planner.FindRevisionPass(next, id)
	return &updated, nil
}

// DeleteRevisionPass removes a pass. Study days it scheduled are kept.
func (s *PlannerService) DeleteRevisionPass(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, "delete_revision_pass", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		next, err := planner.DeleteRevisionPass(state, id)
		return next, runOutcome{}, err
	})
	return err
}

// ScheduleRevisionPass places a pass's eligible lectures on the calendar.
func (s *PlannerService) ScheduleRevisionPass(ctx context.Context, id string) (*dto.RevisionScheduleResponse, error) {
	var (
		result    *planner.RevisionResult
		subjectID string
	)
	if _, err := s.mutate(ctx, "schedule_revision_pass", func(state models.State, today time.Time) (models.State, runOutcome, error) {
		pass, ok := planner.FindRevisionPass(state, id)
		if !ok {
			return state, runOutcome{}, appErrors.Clone(appErrors.ErrNotFound, "revision pass not found")
		}
		res, err := planner.ScheduleRevisionPass(state, pass, today)
		if err != nil {
			return state, runOutcome{}, err
		}
		result, subjectID = res, pass.SubjectID
		return res.State, runOutcome{}, nil
	}); err != nil {
		return nil, err
	}
	if result.Scheduled > 0 {
		s.notify(ctx, models.EventPlanUpdated, models.PlanUpdatedPayload{SubjectsAffected: []string{subjectID}})
	}
	return &dto.RevisionScheduleResponse{
		PassID:     id,
		Message:    result.Message,
		StartDate:  result.StartDate,
		SpreadDays: result.SpreadDays,
		Scheduled:  result.Scheduled,
	}, nil
}

// Calendar returns the study days dated within the query bounds.
func (s *PlannerService) Calendar(ctx context.Context, query dto.CalendarQuery) ([]models.StudyDay, error) {
	if err := s.validate(query, "invalid calendar range"); err != nil {
		return nil, err
	}
	if query.From > query.To {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	state, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return planner.DaysInRange(state, query.From, query.To), nil
}

// SetRestDay flags or clears a rest day. Existing targets are left for the
// next scheduling run to move.
func (s *PlannerService) SetRestDay(ctx context.Context, date string, req dto.RestDayRequest) (*models.StudyDay, error) {
	if err := s.validate(req, "invalid rest day payload"); err != nil {
		return nil, err
	}
	var day models.StudyDay
	if _, err := s.mutate(ctx, "set_rest_day", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		next, d, err := planner.SetRestDay(state, date, *req.IsRestDay)
		day = d
		return next, runOutcome{}, err
	}); err != nil {
		return nil, err
	}
	return &day, nil
}

// SetCompletion toggles a planned lecture on a study day.
func (s *PlannerService) SetCompletion(ctx context.Context, date string, req dto.CompletionRequest) (*models.CompletionChange, error) {
	if err := s.validate(req, "invalid completion payload"); err != nil {
		return nil, err
	}
	entry := models.PlannedLecture{
		SubjectID:  req.SubjectID,
		LectureID:  req.LectureID,
		Block:      req.Block,
		IsRevision: req.IsRevision,
	}
	var change models.CompletionChange
	if _, err := s.mutate(ctx, "set_completion", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		next, c, err := planner.SetLectureCompletion(state, date, entry, *req.Completed)
		change = c
		return next, runOutcome{}, err
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, models.EventCompletionChanged, change)
	return &change, nil
}

// LogMinutes adds focused minutes to a study day.
func (s *PlannerService) LogMinutes(ctx context.Context, date string, req dto.MinutesRequest) (*models.CompletionChange, error) {
	if err := s.validate(req, "invalid minutes payload"); err != nil {
		return nil, err
	}
	var change models.CompletionChange
	if _, err := s.mutate(ctx, "log_minutes", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		next, c, err := planner.LogStudyMinutes(state, date, req.Minutes)
		change = c
		return next, runOutcome{}, err
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, models.EventCompletionChanged, change)
	return &change, nil
}

// Streak returns the current streak. The flag reports a cache hit.
func (s *PlannerService) Streak(ctx context.Context) (*models.StreakStats, bool, error) {
	today := s.Today()
	key := streakCacheKey + planner.FormatDate(today)
	var cached models.StreakStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}
	state, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	stats := planner.ComputeStreak(state, today)
	_ = s.cache.Set(ctx, key, stats, s.cfg.StatsTTL)
	return &stats, false, nil
}

// Week returns this week's activity. The flag reports a cache hit.
func (s *PlannerService) Week(ctx context.Context) (*models.WeekStats, bool, error) {
	today := s.Today()
	key := weekCacheKey + planner.FormatDate(today)
	var cached models.WeekStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}
	state, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	stats := planner.ComputeWeekStats(state, today)
	_ = s.cache.Set(ctx, key, stats, s.cfg.StatsTTL)
	return &stats, false, nil
}

// Settings returns the planner settings.
func (s *PlannerService) Settings(ctx context.Context) (*models.Settings, error) {
	state, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &state.Settings, nil
}

// UpdateSettings replaces the planner settings.
func (s *PlannerService) UpdateSettings(ctx context.Context, req dto.SettingsRequest) (*models.Settings, error) {
	if err := s.validate(req, "invalid settings payload"); err != nil {
		return nil, err
	}
	settings := settingsFromRequest(req)
	if _, err := s.mutate(ctx, "update_settings", func(state models.State, _ time.Time) (models.State, runOutcome, error) {
		return planner.UpdateSettings(state, settings), runOutcome{}, nil
	}); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *PlannerService) validate(req interface{}, message string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

func (s *PlannerService) load(ctx context.Context) (models.State, error) {
	start := time.Now()
	state, err := s.store.Load(ctx)
	s.metrics.ObserveStateStore("load", time.Since(start))
	if err != nil {
		s.logger.Error("load planner state failed", zap.Error(err))
		return models.State{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planner state")
	}
	return state, nil
}

func (s *PlannerService) mutate(ctx context.Context, operation string, fn transform) (models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	state, err := s.load(ctx)
	if err != nil {
		return models.State{}, err
	}
	next, outcome, err := fn(state, s.Today())
	if err != nil {
		return models.State{}, err
	}

	saveStart := time.Now()
	err = s.store.Save(ctx, next)
	s.metrics.ObserveStateStore("save", time.Since(saveStart))
	if err != nil {
		s.logger.Error("save planner state failed", zap.String("operation", operation), zap.Error(err))
		return models.State{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save planner state")
	}

	if err := s.cache.Invalidate(ctx, StatsPattern); err != nil {
		s.logger.Warn("stats cache left stale until the next lookup", zap.String("operation", operation), zap.Error(err))
	}
	s.metrics.ObservePlannerRun(operation, outcome.overloaded, outcome.warnings, time.Since(start))
	s.logger.Debug("planner state saved", zap.String("operation", operation), zap.Duration("duration", time.Since(start)))
	return next, nil
}

func (s *PlannerService) notify(ctx context.Context, eventType models.EventType, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(ctx, eventType, payload)
}

func subjectFromRequest(id string, req dto.SubjectRequest) models.Subject {
	difficulty := models.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	weight := req.Weight
	if weight == 0 {
		weight = 1
	}
	return models.Subject{
		ID:                   id,
		Name:                 strings.TrimSpace(req.Name),
		ExamDate:             req.ExamDate,
		ReservedRevisionDays: req.ReservedRevisionDays,
		Difficulty:           difficulty,
		Weight:               weight,
		Archived:             req.Archived,
	}
}

func lectureFromRequest(id, subjectID string, req dto.LectureRequest) models.Lecture {
	lecture := models.Lecture{
		ID:               id,
		SubjectID:        subjectID,
		Title:            strings.TrimSpace(req.Title),
		Order:            req.Order,
		Type:             models.LectureType(req.Type),
		Status:           models.LectureStatus(req.Status),
		EstimatedMinutes: req.EstimatedMinutes,
		Tags:             models.Tags(req.Tags),
		Priority:         models.LecturePriority(req.Priority),
	}
	if lecture.Type == "" {
		lecture.Type = models.LectureTypeLecture
	}
	if lecture.Status == "" {
		lecture.Status = models.LectureStatusNotStarted
	}
	if lecture.Priority == "" {
		lecture.Priority = models.PriorityNormal
	}
	if lecture.Tags == nil {
		lecture.Tags = models.Tags{}
	}
	return lecture
}

func passFromRequest(id, subjectID string, req dto.RevisionPassRequest) models.RevisionPass {
	statuses := make(models.Statuses, 0, len(req.IncludeStatuses))
	for _, status := range req.IncludeStatuses {
		statuses = append(statuses, models.LectureStatus(status))
	}
	tags := models.Tags(req.IncludeTags)
	if tags == nil {
		tags = models.Tags{}
	}
	return models.RevisionPass{
		ID:                   id,
		SubjectID:            subjectID,
		Name:                 strings.TrimSpace(req.Name),
		Trigger:              models.RevisionTrigger(req.Trigger),
		OffsetDaysBeforeExam: req.OffsetDaysBeforeExam,
		IncludeTags:          tags,
		IncludeStatuses:      statuses,
		SpreadOverDays:       req.SpreadOverDays,
	}
}

func settingsFromRequest(req dto.SettingsRequest) models.Settings {
	settings := models.Settings{
		MaxLecturesPerDay: models.Unbounded(),
		MaxMinutesPerDay:  models.Unbounded(),
		StreakMinLectures: req.StreakMinLectures,
		StreakMinMinutes:  req.StreakMinMinutes,
		WeekStartsOn:      time.Monday,
	}
	if req.MaxLecturesPerDay != nil {
		settings.MaxLecturesPerDay = models.Bounded(*req.MaxLecturesPerDay)
	}
	if req.MaxMinutesPerDay != nil {
		settings.MaxMinutesPerDay = models.Bounded(*req.MaxMinutesPerDay)
	}
	if req.WeekStartsOn != nil {
		settings.WeekStartsOn = time.Weekday(*req.WeekStartsOn)
	}
	return settings
}
