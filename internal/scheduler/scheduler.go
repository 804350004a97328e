// Package scheduler drives the periodic full sync and the recurring keyword
// jobs.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1webtutor/social-content-aggregator/pkg/aggregate"
)

// Syncer triggers a full acquisition pass.
type Syncer interface {
	SyncAll(ctx context.Context, forceRefresh bool) error
}

// KeywordRunner executes the due keyword scheduler configs.
type KeywordRunner interface {
	RunDue(ctx context.Context) error
}

// Scheduler runs periodic sync and keyword-job ticks.
type Scheduler struct {
	syncer     Syncer
	keywords   KeywordRunner
	syncInt    time.Duration
	keywordInt time.Duration
	log        *logrus.Entry
}

// New creates a scheduler. Zero intervals fall back to hourly sync and
// half-hourly keyword runs.
func New(syncer Syncer, keywords KeywordRunner, syncInt, keywordInt time.Duration, log *logrus.Entry) *Scheduler {
	if syncInt == 0 {
		syncInt = time.Hour
	}
	if keywordInt == 0 {
		keywordInt = 30 * time.Minute
	}
	return &Scheduler{
		syncer:     syncer,
		keywords:   keywords,
		syncInt:    syncInt,
		keywordInt: keywordInt,
		log:        log,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	syncTicker := time.NewTicker(s.syncInt)
	keywordTicker := time.NewTicker(s.keywordInt)
	defer syncTicker.Stop()
	defer keywordTicker.Stop()

	// Run immediately on start.
	s.log.Info("initial sync")
	s.runSync(ctx)
	s.runKeywords(ctx)

	s.log.WithFields(logrus.Fields{
		"sync_interval":    s.syncInt.String(),
		"keyword_interval": s.keywordInt.String(),
	}).Info("scheduler running")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-syncTicker.C:
			s.runSync(ctx)
		case <-keywordTicker.C:
			s.runKeywords(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	err := s.syncer.SyncAll(ctx, false)
	if errors.Is(err, aggregate.ErrRateLimited) {
		s.log.Warn("sync tick throttled")
		return
	}
	if err != nil {
		s.log.WithError(err).Error("sync tick failed")
	}
}

func (s *Scheduler) runKeywords(ctx context.Context) {
	if s.keywords == nil {
		return
	}
	if err := s.keywords.RunDue(ctx); err != nil {
		s.log.WithError(err).Error("keyword tick failed")
	}
}
