package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strconv"
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
	"github.com/mramrohaleem/study/pkg/export"
	"github.com/mramrohaleem/study/pkg/jobs"
	"github.com/mramrohaleem/study/pkg/storage"
)

const exportJobType = "calendar_export"

type stateReader interface {
	Load(ctx context.Context) (models.State, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (io.ReadSeekCloser, os.FileInfo, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled    bool
	APIPrefix  string
	Workers    int
	Retries    int
	RetryDelay time.Duration
	ResultTTL  time.Duration
}

// ExportFile is an opened export ready to stream.
type ExportFile struct {
	Name        string
	ContentType string
	ModTime     time.Time
	Content     io.ReadSeekCloser
}

// ExportService renders calendar ranges into CSV, PDF or XLSX files in the
// background and hands out signed download links.
type ExportService struct {
	store     stateReader
	storage   fileStorage
	signer    *storage.SignedURLSigner
	renderers map[string]export.Renderer
	queue     *jobs.Queue
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time

	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

// NewExportService constructs an ExportService. Call Start to process jobs.
func NewExportService(store stateReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	svc := &ExportService{
		store:     store,
		storage:   files,
		signer:    signer,
		renderers: export.Renderers(),
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		jobs:      make(map[string]*models.ExportJob),
	}
	svc.queue = jobs.NewQueue("exports", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			svc.fail(job.ID, err)
		},
	})
	return svc
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop halts the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Create registers and enqueues a calendar export.
func (s *ExportService) Create(ctx context.Context, req dto.ExportRequest) (*models.ExportJob, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrDisabled, "calendar exports are disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if req.From > req.To {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Format:    models.ExportFormat(req.Format),
		From:      req.From,
		To:        req.To,
		SubjectID: req.SubjectID,
		Status:    models.ExportStatusQueued,
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType}); err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	s.logger.Info("export queued", zap.String("job_id", job.ID), zap.String("format", req.Format))
	return s.snapshot(job.ID)
}

// Get returns the current job state.
func (s *ExportService) Get(_ context.Context, id string) (*models.ExportJob, error) {
	return s.snapshot(id)
}

// Download resolves a signed token into an open export file.
func (s *ExportService) Download(_ context.Context, token string) (*ExportFile, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	content, info, err := s.storage.Open(claims.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	contentType := "application/octet-stream"
	if renderer, ok := s.renderers[strings.TrimPrefix(path.Ext(claims.Path), ".")]; ok {
		contentType = renderer.ContentType()
	}
	return &ExportFile{
		Name:        path.Base(claims.Path),
		ContentType: contentType,
		ModTime:     info.ModTime(),
		Content:     content,
	}, nil
}

// Cleanup removes export files older than the result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

func (s *ExportService) handle(ctx context.Context, job jobs.Job) error {
	s.update(job.ID, func(j *models.ExportJob) { j.Status = models.ExportStatusProcessing })
	current, err := s.snapshot(job.ID)
	if err != nil {
		return err
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load planner state: %w", err)
	}
	renderer, ok := s.renderers[string(current.Format)]
	if !ok {
		return fmt.Errorf("unsupported export format %s", current.Format)
	}
	payload, err := renderer.Render(BuildCalendarDataset(state, current.From, current.To, current.SubjectID))
	if err != nil {
		return fmt.Errorf("render %s: %w", current.Format, err)
	}

	filename := fmt.Sprintf("calendar_%s_%s_%s.%s", current.From, current.To, current.ID[:8], renderer.Extension())
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return err
	}
	token, _, err := s.signer.Generate(current.ID, relPath)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/exports/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), url.QueryEscape(token))

	finished := s.now().UTC()
	s.update(job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportStatusFinished
		j.FilePath = relPath
		j.ResultURL = &link
		j.ErrorMessage = nil
		j.FinishedAt = &finished
	})
	s.metrics.RecordExport(string(current.Format), string(models.ExportStatusFinished))
	s.logger.Info("export finished", zap.String("job_id", current.ID), zap.String("file", relPath))
	return nil
}

func (s *ExportService) fail(id string, cause error) {
	message := cause.Error()
	finished := s.now().UTC()
	var format string
	s.update(id, func(j *models.ExportJob) {
		j.Status = models.ExportStatusFailed
		j.ErrorMessage = &message
		j.FinishedAt = &finished
		format = string(j.Format)
	})
	s.metrics.RecordExport(format, string(models.ExportStatusFailed))
	s.logger.Error("export failed", zap.String("job_id", id), zap.Error(cause))
}

func (s *ExportService) update(id string, fn func(*models.ExportJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

func (s *ExportService) snapshot(id string) (*models.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	copied := *job
	return &copied, nil
}

// BuildCalendarDataset flattens study days in [from, to] into one row per
// planned lecture. Days without targets still get a row.
func BuildCalendarDataset(state models.State, from, to, subjectID string) export.Dataset {
	subjects := make(map[string]string, len(state.Subjects))
	for _, subject := range state.Subjects {
		subjects[subject.ID] = subject.Name
	}
	lectures := make(map[string]string, len(state.Lectures))
	for _, lecture := range state.Lectures {
		lectures[lecture.ID] = lecture.Title
	}

	title := fmt.Sprintf("Study calendar %s to %s", from, to)
	if name, ok := subjects[subjectID]; ok {
		title = fmt.Sprintf("%s (%s)", title, name)
	}
	dataset := export.Dataset{
		Title:   title,
		Headers: []string{"Date", "Rest Day", "Subject", "Lecture", "Block", "Kind", "Done", "Target Minutes", "Completed Minutes"},
		Rows:    [][]string{},
	}

	for _, day := range planner.DaysInRange(state, from, to) {
		restDay := yesNo(day.IsRestDay)
		targetMinutes := strconv.Itoa(day.TargetMinutes)
		completedMinutes := strconv.Itoa(day.CompletedMinutes)

		targets := make(models.PlannedLectures, 0, len(day.TargetLectures))
		for _, entry := range day.TargetLectures {
			if subjectID == "" || entry.SubjectID == subjectID {
				targets = append(targets, entry)
			}
		}
		if len(targets) == 0 {
			if subjectID == "" {
				dataset.Rows = append(dataset.Rows, []string{day.Date, restDay, "", "", "", "", "", targetMinutes, completedMinutes})
			}
			continue
		}
		for _, entry := range targets {
			kind := "lecture"
			if entry.IsRevision {
				kind = "revision"
			}
			done := false
			for _, completed := range day.CompletedLectures {
				if completed.Matches(entry) {
					done = true
					break
				}
			}
			dataset.Rows = append(dataset.Rows, []string{
				day.Date,
				restDay,
				subjects[entry.SubjectID],
				lectures[entry.LectureID],
				entry.Block,
				kind,
				yesNo(done),
				targetMinutes,
				completedMinutes,
			})
		}
	}
	return dataset
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
