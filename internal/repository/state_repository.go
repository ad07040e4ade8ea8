package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mramrohaleem/study/internal/models"
)

// Schema creates the planner tables when they are missing.
const Schema = `
CREATE TABLE IF NOT EXISTS subjects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    exam_date DATE NOT NULL,
    reserved_revision_days INTEGER NOT NULL DEFAULT 0,
    difficulty TEXT NOT NULL DEFAULT 'medium',
    weight DOUBLE PRECISION NOT NULL DEFAULT 1,
    archived BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS lectures (
    id TEXT PRIMARY KEY,
    subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    estimated_minutes INTEGER NOT NULL DEFAULT 0,
    tags JSONB NOT NULL DEFAULT '[]',
    priority TEXT NOT NULL DEFAULT 'normal',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS revision_passes (
    id TEXT PRIMARY KEY,
    subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    trigger_kind TEXT NOT NULL,
    offset_days_before_exam INTEGER,
    include_tags JSONB NOT NULL DEFAULT '[]',
    include_statuses JSONB NOT NULL DEFAULT '[]',
    spread_over_days INTEGER,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS study_days (
    date DATE PRIMARY KEY,
    is_rest_day BOOLEAN NOT NULL DEFAULT FALSE,
    target_minutes INTEGER NOT NULL DEFAULT 0,
    completed_minutes INTEGER NOT NULL DEFAULT 0,
    target_lectures JSONB NOT NULL DEFAULT '[]',
    completed_lectures JSONB NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS planner_settings (
    id SMALLINT PRIMARY KEY,
    max_lectures_per_day INTEGER,
    max_minutes_per_day INTEGER,
    streak_min_lectures INTEGER NOT NULL,
    streak_min_minutes INTEGER NOT NULL,
    week_starts_on SMALLINT NOT NULL
);`

const (
	selectSubjectsQuery = `SELECT id, name, to_char(exam_date, 'YYYY-MM-DD') AS exam_date, reserved_revision_days, difficulty, weight, archived, created_at, updated_at
FROM subjects ORDER BY created_at ASC, id ASC`
	selectLecturesQuery = `SELECT id, subject_id, title, sort_order, type, status, estimated_minutes, tags, priority, created_at, updated_at
FROM lectures ORDER BY subject_id ASC, sort_order ASC, id ASC`
	selectPassesQuery = `SELECT id, subject_id, name, trigger_kind, offset_days_before_exam, include_tags, include_statuses, spread_over_days, created_at, updated_at
FROM revision_passes ORDER BY created_at ASC, id ASC`
	selectDaysQuery = `SELECT to_char(date, 'YYYY-MM-DD') AS date, is_rest_day, target_minutes, completed_minutes, target_lectures, completed_lectures
FROM study_days ORDER BY date ASC`
	selectSettingsQuery = `SELECT max_lectures_per_day, max_minutes_per_day, streak_min_lectures, streak_min_minutes, week_starts_on
FROM planner_settings WHERE id = 1`

	upsertSettingsQuery = `INSERT INTO planner_settings (id, max_lectures_per_day, max_minutes_per_day, streak_min_lectures, streak_min_minutes, week_starts_on)
VALUES (1, :max_lectures_per_day, :max_minutes_per_day, :streak_min_lectures, :streak_min_minutes, :week_starts_on)
ON CONFLICT (id) DO UPDATE SET max_lectures_per_day = EXCLUDED.max_lectures_per_day, max_minutes_per_day = EXCLUDED.max_minutes_per_day,
    streak_min_lectures = EXCLUDED.streak_min_lectures, streak_min_minutes = EXCLUDED.streak_min_minutes, week_starts_on = EXCLUDED.week_starts_on`
	upsertSubjectQuery = `INSERT INTO subjects (id, name, exam_date, reserved_revision_days, difficulty, weight, archived, created_at, updated_at)
VALUES (:id, :name, :exam_date, :reserved_revision_days, :difficulty, :weight, :archived, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, exam_date = EXCLUDED.exam_date, reserved_revision_days = EXCLUDED.reserved_revision_days,
    difficulty = EXCLUDED.difficulty, weight = EXCLUDED.weight, archived = EXCLUDED.archived, updated_at = EXCLUDED.updated_at`
	upsertLectureQuery = `INSERT INTO lectures (id, subject_id, title, sort_order, type, status, estimated_minutes, tags, priority, created_at, updated_at)
VALUES (:id, :subject_id, :title, :sort_order, :type, :status, :estimated_minutes, :tags, :priority, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET subject_id = EXCLUDED.subject_id, title = EXCLUDED.title, sort_order = EXCLUDED.sort_order, type = EXCLUDED.type,
    status = EXCLUDED.status, estimated_minutes = EXCLUDED.estimated_minutes, tags = EXCLUDED.tags, priority = EXCLUDED.priority, updated_at = EXCLUDED.updated_at`
	upsertPassQuery = `INSERT INTO revision_passes (id, subject_id, name, trigger_kind, offset_days_before_exam, include_tags, include_statuses, spread_over_days, created_at, updated_at)
VALUES (:id, :subject_id, :name, :trigger_kind, :offset_days_before_exam, :include_tags, :include_statuses, :spread_over_days, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, trigger_kind = EXCLUDED.trigger_kind, offset_days_before_exam = EXCLUDED.offset_days_before_exam,
    include_tags = EXCLUDED.include_tags, include_statuses = EXCLUDED.include_statuses, spread_over_days = EXCLUDED.spread_over_days, updated_at = EXCLUDED.updated_at`
	upsertDayQuery = `INSERT INTO study_days (date, is_rest_day, target_minutes, completed_minutes, target_lectures, completed_lectures)
VALUES (:date, :is_rest_day, :target_minutes, :completed_minutes, :target_lectures, :completed_lectures)
ON CONFLICT (date) DO UPDATE SET is_rest_day = EXCLUDED.is_rest_day, target_minutes = EXCLUDED.target_minutes, completed_minutes = EXCLUDED.completed_minutes,
    target_lectures = EXCLUDED.target_lectures, completed_lectures = EXCLUDED.completed_lectures`

	pruneLecturesQuery = `DELETE FROM lectures WHERE id <> ALL($1)`
	prunePassesQuery   = `DELETE FROM revision_passes WHERE id <> ALL($1)`
	pruneSubjectsQuery = `DELETE FROM subjects WHERE id <> ALL($1)`
	pruneDaysQuery     = `DELETE FROM study_days WHERE date <> ALL($1::date[])`
)

// StateRepository persists the planner snapshot in PostgreSQL.
type StateRepository struct {
	db       *sqlx.DB
	defaults models.Settings
	now      func() time.Time
}

// NewStateRepository builds the repository. defaults are returned when no
// settings row has been stored yet.
func NewStateRepository(db *sqlx.DB, defaults models.Settings) *StateRepository {
	return &StateRepository{db: db, defaults: defaults, now: time.Now}
}

// EnsureSchema creates missing tables.
func (r *StateRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure planner schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *StateRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load reads the full snapshot.
func (r *StateRepository) Load(ctx context.Context) (models.State, error) {
	state := models.State{
		Subjects: []models.Subject{},
		Lectures: []models.Lecture{},
		Calendar: []models.StudyDay{},
	}

	if err := r.db.SelectContext(ctx, &state.Subjects, selectSubjectsQuery); err != nil {
		return models.State{}, fmt.Errorf("load subjects: %w", err)
	}
	if err := r.db.SelectContext(ctx, &state.Lectures, selectLecturesQuery); err != nil {
		return models.State{}, fmt.Errorf("load lectures: %w", err)
	}
	var passes []models.RevisionPass
	if err := r.db.SelectContext(ctx, &passes, selectPassesQuery); err != nil {
		return models.State{}, fmt.Errorf("load revision passes: %w", err)
	}
	if err := r.db.SelectContext(ctx, &state.Calendar, selectDaysQuery); err != nil {
		return models.State{}, fmt.Errorf("load study days: %w", err)
	}

	settings := r.defaults
	if err := r.db.GetContext(ctx, &settings, selectSettingsQuery); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.State{}, fmt.Errorf("load settings: %w", err)
		}
		settings = r.defaults
	}
	state.Settings = settings

	bySubject := make(map[string]int, len(state.Subjects))
	for i := range state.Subjects {
		state.Subjects[i].RevisionPasses = []models.RevisionPass{}
		bySubject[state.Subjects[i].ID] = i
	}
	for _, pass := range passes {
		if idx, ok := bySubject[pass.SubjectID]; ok {
			state.Subjects[idx].RevisionPasses = append(state.Subjects[idx].RevisionPasses, pass)
		}
	}
	return state, nil
}

// Save replaces the stored snapshot with state in one transaction. Rows
// absent from state are deleted.
func (r *StateRepository) Save(ctx context.Context, state models.State) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save state tx: %w", err)
	}
	if err := r.save(ctx, tx, state); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save state tx: %w", err)
	}
	return nil
}

func (r *StateRepository) save(ctx context.Context, tx *sqlx.Tx, state models.State) error {
	now := r.now().UTC()

	if _, err := tx.NamedExecContext(ctx, upsertSettingsQuery, state.Settings); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	subjectIDs := make([]string, 0, len(state.Subjects))
	passIDs := make([]string, 0)
	for _, subject := range state.Subjects {
		stampTimes(&subject.CreatedAt, &subject.UpdatedAt, now)
		if _, err := tx.NamedExecContext(ctx, upsertSubjectQuery, subject); err != nil {
			return fmt.Errorf("upsert subject %s: %w", subject.ID, err)
		}
		subjectIDs = append(subjectIDs, subject.ID)
	}

	lectureIDs := make([]string, 0, len(state.Lectures))
	for _, lecture := range state.Lectures {
		stampTimes(&lecture.CreatedAt, &lecture.UpdatedAt, now)
		if _, err := tx.NamedExecContext(ctx, upsertLectureQuery, lecture); err != nil {
			return fmt.Errorf("upsert lecture %s: %w", lecture.ID, err)
		}
		lectureIDs = append(lectureIDs, lecture.ID)
	}

	for _, subject := range state.Subjects {
		for _, pass := range subject.RevisionPasses {
			stampTimes(&pass.CreatedAt, &pass.UpdatedAt, now)
			if _, err := tx.NamedExecContext(ctx, upsertPassQuery, pass); err != nil {
				return fmt.Errorf("upsert revision pass %s: %w", pass.ID, err)
			}
			passIDs = append(passIDs, pass.ID)
		}
	}

	dates := make([]string, 0, len(state.Calendar))
	for _, day := range state.Calendar {
		if _, err := tx.NamedExecContext(ctx, upsertDayQuery, day); err != nil {
			return fmt.Errorf("upsert study day %s: %w", day.Date, err)
		}
		dates = append(dates, day.Date)
	}

	prunes := []struct {
		label string
		query string
		keep  []string
	}{
		{"revision passes", prunePassesQuery, passIDs},
		{"lectures", pruneLecturesQuery, lectureIDs},
		{"subjects", pruneSubjectsQuery, subjectIDs},
		{"study days", pruneDaysQuery, dates},
	}
	for _, p := range prunes {
		if _, err := tx.ExecContext(ctx, p.query, pq.Array(p.keep)); err != nil {
			return fmt.Errorf("prune %s: %w", p.label, err)
		}
	}
	return nil
}

func stampTimes(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}
