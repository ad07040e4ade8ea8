package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mramrohaleem/study/internal/dto"
	"github.com/mramrohaleem/study/internal/models"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
)

type memoryStore struct {
	mu      sync.Mutex
	state   models.State
	saves   int
	loadErr error
	saveErr error
}

func (m *memoryStore) Load(context.Context) (models.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return models.State{}, m.loadErr
	}
	return m.state.Clone(), nil
}

func (m *memoryStore) Save(_ context.Context, state models.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state.Clone()
	m.saves++
	return nil
}

func (m *memoryStore) snapshot() models.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

type recordingNotifier struct {
	mu       sync.Mutex
	types    []models.EventType
	payloads []interface{}
}

func (n *recordingNotifier) Dispatch(_ context.Context, eventType models.EventType, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, eventType)
	n.payloads = append(n.payloads, payload)
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

var serviceToday = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newPlannerServiceForTest(t *testing.T, state models.State) (*PlannerService, *memoryStore, *recordingNotifier) {
	t.Helper()
	store := &memoryStore{state: state}
	notifier := &recordingNotifier{}
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCache(), metrics, time.Minute, zap.NewNop(), true)
	svc := NewPlannerService(store, cache, metrics, notifier, nil, zap.NewNop(), PlannerServiceConfig{StatsTTL: time.Minute})
	svc.now = func() time.Time { return serviceToday }
	var mu sync.Mutex
	ids := 0
	svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		ids++
		return fmt.Sprintf("id-%d", ids)
	}
	return svc, store, notifier
}

func seededState() models.State {
	return models.State{
		Subjects: []models.Subject{{
			ID:             "s1",
			Name:           "Algebra",
			ExamDate:       "2026-03-12",
			Difficulty:     models.DifficultyMedium,
			Weight:         1,
			RevisionPasses: []models.RevisionPass{},
		}},
		Lectures: []models.Lecture{
			{ID: "l1", SubjectID: "s1", Title: "Groups", Order: 1, Status: models.LectureStatusDone, EstimatedMinutes: 40, Tags: models.Tags{}},
			{ID: "l2", SubjectID: "s1", Title: "Rings", Order: 2, Status: models.LectureStatusNotStarted, EstimatedMinutes: 50, Tags: models.Tags{}},
		},
		Calendar: []models.StudyDay{{
			Date:           "2026-03-02",
			TargetMinutes:  50,
			TargetLectures: models.PlannedLectures{{SubjectID: "s1", LectureID: "l2", Block: "morning"}},
		}},
		Settings: models.DefaultSettings(),
	}
}

func requireCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, want), "got %v, want code %s", err, want.Code)
}

func boolPtr(v bool) *bool { return &v }

func TestPlannerServiceSubjectLifecycle(t *testing.T) {
	svc, store, notifier := newPlannerServiceForTest(t, models.State{Settings: models.DefaultSettings()})
	ctx := context.Background()

	subject, err := svc.CreateSubject(ctx, dto.SubjectRequest{Name: " Physics ", ExamDate: "2026-03-12", ReservedRevisionDays: 2})
	require.NoError(t, err)
	assert.Equal(t, "id-1", subject.ID)
	assert.Equal(t, "Physics", subject.Name)
	assert.Equal(t, models.DifficultyMedium, subject.Difficulty)
	assert.Equal(t, 1.0, subject.Weight)

	for i := 1; i <= 3; i++ {
		_, err := svc.CreateLecture(ctx, subject.ID, dto.LectureRequest{Title: fmt.Sprintf("Chapter %d", i), Order: i, EstimatedMinutes: 30})
		require.NoError(t, err)
	}
	lectures, err := svc.ListLectures(ctx, subject.ID)
	require.NoError(t, err)
	require.Len(t, lectures, 3)
	assert.Equal(t, models.LectureStatusNotStarted, lectures[0].Status)
	assert.Equal(t, models.Tags{}, lectures[0].Tags)

	plan, err := svc.PlanSubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, subject.ID, plan.Change.SubjectID)
	assert.False(t, plan.Change.Overloaded)
	assert.Empty(t, plan.Warnings)

	total := 0
	for _, day := range plan.Calendar {
		assert.GreaterOrEqual(t, day.Date, "2026-03-02")
		assert.Less(t, day.Date, "2026-03-10", "days inside the revision buffer stay free")
		total += len(day.TargetLectures)
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 5, store.saves)
	assert.Equal(t, []models.EventType{models.EventPlanUpdated}, notifier.types)
	assert.Equal(t, models.PlanUpdatedPayload{SubjectsAffected: []string{subject.ID}}, notifier.payloads[0])
}

func TestPlannerServiceRejectsInvalidPayloads(t *testing.T) {
	svc, store, _ := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	_, err := svc.CreateSubject(ctx, dto.SubjectRequest{Name: "Bad", ExamDate: "12/03/2026"})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.CreateLecture(ctx, "s1", dto.LectureRequest{Title: "x", Status: "finished", EstimatedMinutes: 30})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.CreateLecture(ctx, "s1", dto.LectureRequest{Title: "No estimate"})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateLecture(ctx, "l2", dto.LectureRequest{Title: "Zero estimate", EstimatedMinutes: 0})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.CreateRevisionPass(ctx, "s1", dto.RevisionPassRequest{Name: "Sweep", Trigger: "before_exam"})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.Calendar(ctx, dto.CalendarQuery{From: "2026-03-09", To: "2026-03-02"})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.LogMinutes(ctx, "2026-03-02", dto.MinutesRequest{Minutes: 0})
	requireCode(t, err, appErrors.ErrValidation)

	assert.Equal(t, 0, store.saves)
}

func TestPlannerServicePlanUsesRunDate(t *testing.T) {
	svc, _, _ := newPlannerServiceForTest(t, seededState())
	calls := 0
	svc.now = func() time.Time {
		calls++
		if calls == 1 {
			return serviceToday
		}
		return serviceToday.Add(24 * time.Hour)
	}

	plan, err := svc.PlanSubject(context.Background(), "s1")
	require.NoError(t, err)
	require.NotEmpty(t, plan.Calendar)
	assert.Equal(t, "2026-03-02", plan.Calendar[0].Date, "calendar starts at the date the run planned from")
}

func TestPlannerServiceNotFound(t *testing.T) {
	svc, store, notifier := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	_, err := svc.PlanSubject(ctx, "missing")
	requireCode(t, err, appErrors.ErrNotFound)
	_, err = svc.Progress(ctx, "missing")
	requireCode(t, err, appErrors.ErrNotFound)
	_, err = svc.UpdateLecture(ctx, "missing", dto.LectureRequest{Title: "x", EstimatedMinutes: 30})
	requireCode(t, err, appErrors.ErrNotFound)
	_, err = svc.ScheduleRevisionPass(ctx, "missing")
	requireCode(t, err, appErrors.ErrNotFound)
	requireCode(t, svc.DeleteRevisionPass(ctx, "missing"), appErrors.ErrNotFound)

	assert.Equal(t, 0, store.saves)
	assert.Empty(t, notifier.types)
}

func TestPlannerServiceExamDateEvents(t *testing.T) {
	svc, _, notifier := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	change, err := svc.UpdateExamDate(ctx, "s1", dto.ExamDateRequest{ExamDate: "2026-03-20"})
	require.NoError(t, err)
	assert.Equal(t, models.ExamDateChange{SubjectID: "s1", OldExamDate: "2026-03-12", NewExamDate: "2026-03-20"}, *change)

	_, err = svc.UpdateSubject(ctx, "s1", dto.SubjectRequest{Name: "Algebra II", ExamDate: "2026-03-20"})
	require.NoError(t, err)
	assert.Len(t, notifier.types, 1, "unchanged exam date emits nothing")

	updated, err := svc.UpdateSubject(ctx, "s1", dto.SubjectRequest{Name: "Algebra II", ExamDate: "2026-03-25"})
	require.NoError(t, err)
	assert.Equal(t, "Algebra II", updated.Name)
	assert.Equal(t, []models.EventType{models.EventExamDateChanged, models.EventExamDateChanged}, notifier.types)
}

func TestPlannerServiceCompletionFlow(t *testing.T) {
	svc, store, notifier := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	change, err := svc.SetCompletion(ctx, "2026-03-02", dto.CompletionRequest{LectureID: "l2", Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, change.CompletedLecturesCount)

	state := store.snapshot()
	lecture, _ := state.FindLecture("l2")
	assert.Equal(t, models.LectureStatusDone, lecture.Status)
	assert.Equal(t, "morning", state.Calendar[0].CompletedLectures[0].Block)

	change, err = svc.LogMinutes(ctx, "2026-03-02", dto.MinutesRequest{Minutes: 45})
	require.NoError(t, err)
	assert.Equal(t, 45, change.CompletedMinutes)

	streak, _, err := svc.Streak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.Days)
	assert.Equal(t, "2026-03-02", streak.Today)

	progress, err := svc.Progress(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Done)
	assert.Equal(t, 0, progress.Remaining)

	_, err = svc.SetCompletion(ctx, "2026-03-03", dto.CompletionRequest{LectureID: "l1", Completed: boolPtr(true)})
	requireCode(t, err, appErrors.ErrValidation)

	assert.Equal(t, []models.EventType{models.EventCompletionChanged, models.EventCompletionChanged}, notifier.types)
}

func TestPlannerServiceStatsCache(t *testing.T) {
	svc, _, _ := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	week, hit, err := svc.Week(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "2026-03-02", week.StartDate)
	assert.Equal(t, 1, week.ScheduledLectures)

	_, hit, err = svc.Week(ctx)
	require.NoError(t, err)
	assert.True(t, hit)

	_, err = svc.LogMinutes(ctx, "2026-03-02", dto.MinutesRequest{Minutes: 25})
	require.NoError(t, err)

	week, hit, err = svc.Week(ctx)
	require.NoError(t, err)
	assert.False(t, hit, "mutations drop cached stats")
	assert.Equal(t, 25, week.CompletedMinutes)
}

func TestPlannerServiceStoreFailures(t *testing.T) {
	svc, store, notifier := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	store.saveErr = errors.New("disk full")
	_, err := svc.LogMinutes(ctx, "2026-03-02", dto.MinutesRequest{Minutes: 10})
	requireCode(t, err, appErrors.ErrInternal)
	assert.Empty(t, notifier.types)

	store.loadErr = errors.New("connection refused")
	_, err = svc.ListSubjects(ctx)
	requireCode(t, err, appErrors.ErrInternal)
}

func TestPlannerServiceRevisionPasses(t *testing.T) {
	svc, store, notifier := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	pass, err := svc.CreateRevisionPass(ctx, "s1", dto.RevisionPassRequest{Name: " First sweep ", Trigger: "after_finish"})
	require.NoError(t, err)
	assert.Equal(t, "First sweep", pass.Name)
	assert.Equal(t, models.Tags{}, pass.IncludeTags)

	result, err := svc.ScheduleRevisionPass(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scheduled)
	assert.Equal(t, "2026-03-03", result.StartDate)

	again, err := svc.ScheduleRevisionPass(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Scheduled)
	assert.Len(t, notifier.types, 1, "empty runs emit nothing")

	offset := 3
	updated, err := svc.UpdateRevisionPass(ctx, pass.ID, dto.RevisionPassRequest{Name: "Final", Trigger: "before_exam", OffsetDaysBeforeExam: &offset})
	require.NoError(t, err)
	assert.Equal(t, models.TriggerBeforeExam, updated.Trigger)

	require.NoError(t, svc.DeleteRevisionPass(ctx, pass.ID))
	passes, err := svc.ListRevisionPasses(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, passes)

	state := store.snapshot()
	found := false
	for _, day := range state.Calendar {
		if day.Date == "2026-03-03" {
			found = len(day.TargetLectures) == 1 && day.TargetLectures[0].IsRevision
		}
	}
	assert.True(t, found, "revision targets survive pass deletion")
}

func TestPlannerServiceSettings(t *testing.T) {
	svc, _, _ := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	maxLectures := 2
	sunday := 0
	settings, err := svc.UpdateSettings(ctx, dto.SettingsRequest{MaxLecturesPerDay: &maxLectures, StreakMinMinutes: 60, WeekStartsOn: &sunday})
	require.NoError(t, err)
	assert.Equal(t, models.Bounded(2), settings.MaxLecturesPerDay)
	assert.False(t, settings.MaxMinutesPerDay.IsBounded())
	assert.Equal(t, time.Sunday, settings.WeekStartsOn)

	stored, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, *settings, *stored)

	zero := 0
	_, err = svc.UpdateSettings(ctx, dto.SettingsRequest{MaxMinutesPerDay: &zero})
	requireCode(t, err, appErrors.ErrValidation)
}

func TestPlannerServiceCalendarAndRestDays(t *testing.T) {
	svc, _, _ := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	day, err := svc.SetRestDay(ctx, "2026-03-04", dto.RestDayRequest{IsRestDay: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, day.IsRestDay)

	days, err := svc.Calendar(ctx, dto.CalendarQuery{From: "2026-03-01", To: "2026-03-31"})
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-03-02", days[0].Date)
	assert.Equal(t, "2026-03-04", days[1].Date)

	outlook, err := svc.Outlook(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 10, outlook.EffectiveDays)
	assert.False(t, outlook.AtRisk)
}

func TestPlannerServiceSerializesMutations(t *testing.T) {
	svc, store, _ := newPlannerServiceForTest(t, seededState())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LogMinutes(ctx, "2026-03-05", dto.MinutesRequest{Minutes: 5})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state := store.snapshot()
	var minutes int
	for _, day := range state.Calendar {
		if day.Date == "2026-03-05" {
			minutes = day.CompletedMinutes
		}
	}
	assert.Equal(t, 100, minutes)
	assert.Equal(t, 20, store.saves)
}
