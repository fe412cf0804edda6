package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/grades-dashboard/internal/models"
	"github.com/noah-isme/grades-dashboard/pkg/jobs"
)

// Background job types.
const (
	JobTypeGradebookRefresh = "gradebook.refresh"
	JobTypeExportCleanup    = "exports.cleanup"
)

type gradebookReloader interface {
	Invalidate(ctx context.Context) error
	Reload(ctx context.Context) (*models.Gradebook, error)
}

type exportCleaner interface {
	Cleanup(ttl time.Duration) ([]string, error)
}

// RefreshConfig schedules background work. Zero intervals disable the schedule.
type RefreshConfig struct {
	RefreshInterval time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
}

// RefreshService revalidates the gradebook and prunes old exports on a job queue.
type RefreshService struct {
	queue     *jobs.Queue
	gradebook gradebookReloader
	exports   exportCleaner
	cfg       RefreshConfig
	logger    *zap.Logger
}

// NewRefreshService constructs the service. exports may be nil when exports are disabled.
func NewRefreshService(gradebook gradebookReloader, exports exportCleaner, cfg RefreshConfig, logger *zap.Logger) *RefreshService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	s := &RefreshService{gradebook: gradebook, exports: exports, cfg: cfg, logger: logger}
	s.queue = jobs.NewQueue("refresh", s.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 4,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start runs the worker and the periodic schedules.
func (s *RefreshService) Start(ctx context.Context) error {
	s.queue.Start(ctx)
	if s.cfg.RefreshInterval > 0 {
		if err := s.queue.Every(s.cfg.RefreshInterval, func() jobs.Job { return newJob(JobTypeGradebookRefresh) }); err != nil {
			return err
		}
	}
	if s.cfg.CleanupInterval > 0 && s.exports != nil {
		if err := s.queue.Every(s.cfg.CleanupInterval, func() jobs.Job { return newJob(JobTypeExportCleanup) }); err != nil {
			return err
		}
	}
	return nil
}

// Stop waits for in-flight jobs and schedules to finish.
func (s *RefreshService) Stop() {
	s.queue.Stop()
}

// RequestRefresh marks the gradebook stale, drops its shared snapshots and queues a revalidation.
// It reports false when one is already pending. The loaded gradebook is served until the reload succeeds.
func (s *RefreshService) RequestRefresh(ctx context.Context) (bool, error) {
	if err := s.gradebook.Invalidate(ctx); err != nil {
		s.logger.Warn("gradebook snapshot invalidation failed", zap.Error(err))
	}
	return s.queue.TryEnqueue(newJob(JobTypeGradebookRefresh))
}

func (s *RefreshService) handle(ctx context.Context, job jobs.Job) error {
	start := time.Now()
	switch job.Type {
	case JobTypeGradebookRefresh:
		book, err := s.gradebook.Reload(ctx)
		if err != nil {
			return err
		}
		s.logger.Info("gradebook refreshed",
			zap.String("job_id", job.ID),
			zap.Int("records", len(book.Records)),
			zap.Duration("elapsed", time.Since(start)),
		)
	case JobTypeExportCleanup:
		if s.exports == nil {
			return nil
		}
		if _, err := s.exports.Cleanup(0); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	return nil
}

func newJob(kind string) jobs.Job {
	return jobs.Job{ID: uuid.NewString(), Type: kind}
}
