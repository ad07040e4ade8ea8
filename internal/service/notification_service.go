package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mramrohaleem/study/internal/models"
	"github.com/mramrohaleem/study/pkg/jobs"
)

const notificationJobType = "notification"

type eventPublisher interface {
	Publish(ctx context.Context, event models.Event) (int64, error)
}

// NotificationConfig tunes event dispatch.
type NotificationConfig struct {
	Enabled    bool
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// NotificationService publishes planner events from a background queue so
// mutations never wait on the broker.
type NotificationService struct {
	publisher eventPublisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
	enabled   bool
	now       func() time.Time
}

// NewNotificationService constructs the dispatcher. Call Start before Dispatch.
func NewNotificationService(publisher eventPublisher, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		enabled:   cfg.Enabled && publisher != nil,
		now:       time.Now,
	}
	svc.queue = jobs.NewQueue("notifications", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			if event, ok := job.Payload.(models.Event); ok {
				metrics.RecordEvent(string(event.Type), "dropped")
			}
		},
	})
	return svc
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	if !s.enabled {
		s.logger.Info("notifications disabled")
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch enqueues an event. Failures are logged, never returned.
func (s *NotificationService) Dispatch(ctx context.Context, eventType models.EventType, payload interface{}) {
	if !s.enabled {
		return
	}
	event := models.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Payload:    payload,
		OccurredAt: s.now().UTC(),
	}
	if err := s.queue.Enqueue(jobs.Job{ID: event.ID, Type: notificationJobType, Payload: event}); err != nil {
		s.metrics.RecordEvent(string(eventType), "rejected")
		s.logger.Warn("notification not queued", zap.String("type", string(eventType)), zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.Event)
	if !ok {
		return fmt.Errorf("notification job %s carries %T", job.ID, job.Payload)
	}
	receivers, err := s.publisher.Publish(ctx, event)
	if err != nil {
		s.metrics.RecordEvent(string(event.Type), "failed")
		return err
	}
	s.metrics.RecordEvent(string(event.Type), "published")
	s.logger.Debug("event published", zap.String("type", string(event.Type)), zap.String("event_id", event.ID), zap.Int64("receivers", receivers))
	return nil
}
