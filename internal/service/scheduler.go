package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

// Scheduler is the periodic scanner: every tick it claims due posts,
// dispatches them, finalizes their status, and materializes the next
// occurrence of recurring ones. The Pending->Processing claim in the store
// is the only lock; everything after it runs unsynchronized.
type Scheduler struct {
	config     *config.SchedulerConfig
	logger     *zap.Logger
	store      PostStore
	dispatcher *Dispatcher
	ticker     *time.Ticker
	stopCh     chan struct{}
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, store PostStore, dispatcher *Dispatcher) *Scheduler {
	return &Scheduler{
		config:     cfg,
		logger:     logger,
		store:      store,
		dispatcher: dispatcher,
		stopCh:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	// Crash recovery first: Processing is only legitimate for the span of
	// one live publish attempt, so anything still in it belongs to a dead
	// process.
	reset, err := s.store.ResetProcessing(ctx)
	if err != nil {
		s.logger.Error("Startup recovery failed", zap.Error(err))
		return err
	}
	if reset > 0 {
		s.logger.Info("Recovery: reset stuck Processing posts to Pending", zap.Int64("count", reset))
	}

	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	interval, err := time.ParseDuration(s.config.Interval)
	if err != nil {
		s.logger.Error("Invalid scheduler interval", zap.String("interval", s.config.Interval), zap.Error(err))
		return err
	}

	s.logger.Info("Starting scheduler", zap.String("interval", s.config.Interval))

	s.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				if err := s.RunTick(ctx); err != nil {
					s.logger.Error("Scheduled tick failed", zap.Error(err))
				}
			case <-s.stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.logger.Info("Scheduler shutdown completed")
}

// RunTick performs one scan: claim every due post, then process the claimed
// ones concurrently. It returns once all posts claimed in this tick have
// been finalized, which lets the cron endpoint run it synchronously.
func (s *Scheduler) RunTick(ctx context.Context) error {
	start := time.Now()

	due, err := s.store.ListDue(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	s.logger.Info("Tick: due posts found", zap.Int("count", len(due)))

	var wg sync.WaitGroup
	for i := range due {
		post := due[i]

		if err := s.store.ClaimPending(ctx, post.ID); err != nil {
			if errors.Is(err, ErrLockConflict) {
				// Raced by another scanner or edited out from under us.
				s.logger.Debug("Skipping post, claim lost", zap.Uint("post_id", post.ID))
			} else {
				s.logger.Error("Failed to claim post", zap.Uint("post_id", post.ID), zap.Error(err))
			}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.processClaimed(ctx, &post)
		}()
	}
	wg.Wait()

	s.logger.Info("Tick completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// processClaimed runs the dispatch-finalize sequence for a post this tick
// claimed, then spawns the next occurrence if the post recurs. An occurrence
// counts as finalized whether it Published or Failed, so recurrence advances
// either way. Not wrapped in a transaction; a crash in here is what startup
// recovery exists for.
func (s *Scheduler) processClaimed(ctx context.Context, post *models.Post) {
	publishAndFinalize(ctx, s.store, s.dispatcher, s.logger, post)
	s.scheduleNextOccurrence(ctx, post)
}

func (s *Scheduler) scheduleNextOccurrence(ctx context.Context, post *models.Post) {
	if !post.IsRecurring {
		return
	}

	next, ok := post.NextOccurrence()
	if !ok {
		s.logger.Info("Recurrence finished", zap.Uint("post_id", post.ID))
		return
	}

	successor := post.Successor(next)
	if err := s.store.Insert(ctx, successor); err != nil {
		s.logger.Error("Failed to create recurring post",
			zap.Uint("post_id", post.ID),
			zap.Error(err))
		return
	}

	s.logger.Info("Scheduled next recurring post",
		zap.Uint("post_id", post.ID),
		zap.Uint("successor_id", successor.ID),
		zap.Time("scheduled_time", next))
}

// publishAndFinalize dispatches a claimed post and writes its terminal
// status. Shared between the scanner and the immediate-publish path.
func publishAndFinalize(ctx context.Context, store PostStore, dispatcher *Dispatcher, logger *zap.Logger, post *models.Post) models.Status {
	final := models.StatusPublished
	if _, err := dispatcher.DispatchAll(ctx, post); err != nil {
		logger.Error("Dispatch failed", zap.Uint("post_id", post.ID), zap.Error(err))
		final = models.StatusFailed
	}

	if err := store.UpdateFields(ctx, post.ID, map[string]any{"status": final}); err != nil {
		logger.Error("Failed to finalize post status",
			zap.Uint("post_id", post.ID),
			zap.String("status", string(final)),
			zap.Error(err))
	}

	return final
}
