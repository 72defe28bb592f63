package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/interfaces"
	"github.com/quaestor-ai/quaestor/internal/models"
	"github.com/quaestor-ai/quaestor/internal/services/pipeline"
)

// Scheduler sweeps pending documents through the processing pipeline on a
// cron schedule. Uploads normally process asynchronously at upload time; the
// sweep catches documents that were left behind by restarts or crashes.
type Scheduler struct {
	docs      interfaces.DocumentStorage
	processor *pipeline.Processor
	cron      *cron.Cron
	limit     int
	logger    arbor.ILogger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a processing sweep scheduler
func NewScheduler(docs interfaces.DocumentStorage, processor *pipeline.Processor, limit int, logger arbor.ILogger) *Scheduler {
	if limit <= 0 {
		limit = 25
	}
	return &Scheduler{
		docs:      docs,
		processor: processor,
		cron:      cron.New(cron.WithSeconds()),
		limit:     limit,
		logger:    logger,
	}
}

// Start begins the scheduled sweep
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: every 5 minutes
		schedule = "0 */5 * * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Int("limit", s.limit).
		Msg("Processing sweep scheduler started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Processing sweep scheduler stopped")
}

// RunNow triggers an immediate sweep
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("Triggering immediate processing sweep")
	go s.runSweep()
}

// runSweep processes pending documents oldest first. Overlapping runs are
// skipped rather than queued.
func (s *Scheduler) runSweep() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Debug().Msg("Sweep already running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pending, err := s.docs.ListByStatus(ctx, models.DocumentStatusPending, s.limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list pending documents")
		return
	}
	if len(pending) == 0 {
		return
	}

	s.logger.Info().
		Int("count", len(pending)).
		Msg("Starting processing sweep")

	processed, failed := 0, 0
	for _, doc := range pending {
		if ctx.Err() != nil {
			s.logger.Warn().Msg("Sweep timed out before completing")
			break
		}
		if _, err := s.processor.Process(ctx, doc.TenantID, doc.ID, false); err != nil {
			failed++
			s.logger.Error().
				Err(err).
				Str("document_id", doc.ID).
				Str("tenant_id", doc.TenantID).
				Msg("Sweep processing failed for document")
			continue
		}
		processed++
	}

	s.logger.Info().
		Int("processed", processed).
		Int("failed", failed).
		Msg("Processing sweep completed")
}
