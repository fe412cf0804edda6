package service

import (
	"context"
	"errors"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/noah-isme/grades-dashboard/internal/grading"
	"github.com/noah-isme/grades-dashboard/internal/models"
	"github.com/noah-isme/grades-dashboard/internal/repository"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
	"github.com/noah-isme/grades-dashboard/pkg/spreadsheet"
)

// GradeSource fetches the raw spreadsheet, conditionally when a previous version is known.
type GradeSource interface {
	Location() string
	Fetch(ctx context.Context, previous *models.SourceVersion) (*repository.SourcePayload, error)
}

// GradebookConfig tunes gradebook loading.
type GradebookConfig struct {
	Sheet string
	// RevalidateAfter is how long a loaded gradebook is served before the source is asked again.
	RevalidateAfter time.Duration
	SnapshotTTL     time.Duration
}

type loadedGradebook struct {
	book      *models.Gradebook
	checkedAt time.Time
}

// GradebookService loads, derives and memoises the gradebook.
type GradebookService struct {
	source    GradeSource
	snapshots *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       GradebookConfig

	mu     sync.Mutex
	loaded *gocache.Cache
	now    func() time.Time
}

// NewGradebookService constructs the gradebook service. snapshots and metrics may be nil.
func NewGradebookService(source GradeSource, snapshots *CacheService, metrics *MetricsService, cfg GradebookConfig, logger *zap.Logger) *GradebookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RevalidateAfter < 0 {
		cfg.RevalidateAfter = 0
	}
	return &GradebookService{
		source:    source,
		snapshots: snapshots,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		loaded:    gocache.New(gocache.NoExpiration, 0),
		now:       time.Now,
	}
}

// Load returns the current gradebook. The bool reports whether it came from memory without a re-parse.
//
// A fresh entry is served as is. A stale entry is revalidated against the source: unchanged sources keep
// the entry, changed sources replace it. If the source is unreachable a stale entry is still served.
func (s *GradebookService) Load(ctx context.Context) (*models.Gradebook, bool, error) {
	return s.load(ctx, false)
}

// Reload revalidates against the source regardless of the TTL. A failed fetch keeps the loaded
// gradebook and is still reported so background callers can retry.
func (s *GradebookService) Reload(ctx context.Context) (*models.Gradebook, error) {
	book, _, err := s.load(ctx, true)
	return book, err
}

func (s *GradebookService) load(ctx context.Context, force bool) (*models.Gradebook, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.source.Location()
	var current *loadedGradebook
	if item, ok := s.loaded.Get(key); ok {
		current = item.(*loadedGradebook)
		if !force && s.now().Sub(current.checkedAt) < s.cfg.RevalidateAfter {
			return current.book, true, nil
		}
	}

	var previous *models.SourceVersion
	if current != nil {
		previous = &current.book.Version
	}

	start := time.Now()
	payload, err := s.source.Fetch(ctx, previous)
	if err != nil {
		s.metrics.ObserveSourceFetch(FetchOutcomeError, time.Since(start))
		if current != nil {
			s.logger.Warn("grade source unreachable, serving previous gradebook",
				zap.String("location", key),
				zap.Time("loaded_at", current.book.LoadedAt),
				zap.Error(err),
			)
			if force {
				return current.book, true, err
			}
			return current.book, true, nil
		}
		return nil, false, err
	}

	if payload.NotModified && current != nil {
		s.metrics.ObserveSourceFetch(FetchOutcomeNotModified, time.Since(start))
		current.checkedAt = s.now()
		return current.book, true, nil
	}
	s.metrics.ObserveSourceFetch(FetchOutcomeFetched, time.Since(start))

	if current != nil {
		s.loaded.Delete(key)
		s.logger.Info("grade source changed, gradebook invalidated",
			zap.String("location", key),
			zap.String("previous", current.book.Version.Tag()),
			zap.String("current", payload.Version.Tag()),
		)
	}

	records, err := s.records(ctx, payload)
	if err != nil {
		return nil, false, err
	}

	book := &models.Gradebook{
		Records:  grading.Derive(records),
		Version:  payload.Version,
		LoadedAt: s.now().UTC(),
	}
	s.loaded.Set(key, &loadedGradebook{book: book, checkedAt: s.now()}, gocache.NoExpiration)
	s.metrics.SetGradebookRecords(len(book.Records))
	s.logger.Info("gradebook loaded",
		zap.String("location", key),
		zap.String("version", payload.Version.Tag()),
		zap.Int("records", len(book.Records)),
	)
	return book, false, nil
}

// Invalidate marks the loaded gradebook stale and drops the shared snapshots of this source.
// The stale gradebook keeps being served until the next successful revalidation replaces it.
func (s *GradebookService) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.source.Location()
	if item, ok := s.loaded.Get(key); ok {
		item.(*loadedGradebook).checkedAt = time.Time{}
	}
	if err := s.snapshots.Invalidate(ctx, CacheKey("gradebook", escapePattern(key), "*")); err != nil {
		return err
	}
	s.logger.Info("gradebook invalidated", zap.String("location", key))
	return nil
}

// Ready reports whether a gradebook is currently loaded.
func (s *GradebookService) Ready() bool {
	_, ok := s.loaded.Get(s.source.Location())
	return ok
}

// records resolves raw rows, from the shared snapshot when this source revision was already parsed.
func (s *GradebookService) records(ctx context.Context, payload *repository.SourcePayload) ([]models.StudentRecord, error) {
	var key string
	if tag := payload.Version.Tag(); tag != "" && s.snapshots.Enabled() {
		key = CacheKey("gradebook", payload.Version.Location, tag)
		var cached []models.StudentRecord
		if hit, err := s.snapshots.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	table, err := spreadsheet.Parse(payload.Data, payload.Format, s.cfg.Sheet)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrEmpty) {
			return nil, appErrors.Clone(appErrors.ErrSchema, "grade source has no header row")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrSchema.Code, appErrors.ErrSchema.Status, "grade source is not a readable spreadsheet")
	}
	records, err := grading.Records(table)
	if err != nil {
		return nil, err
	}

	if key != "" {
		_ = s.snapshots.Set(ctx, key, records, s.cfg.SnapshotTTL)
	}
	return records, nil
}
