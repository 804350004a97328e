// Package keyword runs saved recurring keyword jobs: fetch, verify,
// process, duplicate-check and publish, with an append-only run log.
package keyword

import (
	"context"
	"crypto/md5"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1webtutor/social-content-aggregator/internal/store"
	"github.com/1webtutor/social-content-aggregator/pkg/aggregate"
	"github.com/1webtutor/social-content-aggregator/pkg/hashtag"
	"github.com/1webtutor/social-content-aggregator/pkg/publish"
	"github.com/1webtutor/social-content-aggregator/pkg/record"
	"github.com/1webtutor/social-content-aggregator/pkg/textproc"
)

// Verifier is an optional content check applied before publishing. A nil
// Verifier accepts everything.
type Verifier func(ctx context.Context, rec record.Record, keyword string) bool

// Fetcher is the slice of the orchestrator the runner needs.
type Fetcher interface {
	FetchKeyword(ctx context.Context, keyword string, platforms []record.Platform, maxPosts, minEngagement int) ([]record.Record, error)
}

// Runner executes active keyword scheduler configs that are due.
type Runner struct {
	store    store.Store
	fetcher  Fetcher
	hashtags *hashtag.Engine
	verify   Verifier
	log      *logrus.Entry
	now      func() time.Time
}

// NewRunner creates a runner. verify may be nil.
func NewRunner(s store.Store, fetcher Fetcher, hashtags *hashtag.Engine, verify Verifier, log *logrus.Entry) *Runner {
	return &Runner{
		store:    s,
		fetcher:  fetcher,
		hashtags: hashtags,
		verify:   verify,
		log:      log,
		now:      time.Now,
	}
}

// RunDue executes every active config whose frequency interval has elapsed
// since its last run log.
func (r *Runner) RunDue(ctx context.Context) error {
	configs, err := r.store.ListActiveSchedulerConfigs(ctx)
	if err != nil {
		return fmt.Errorf("list scheduler configs: %w", err)
	}

	for _, cfg := range configs {
		lastRun, err := r.store.LastRunTime(ctx, cfg.Keyword)
		if err != nil {
			r.log.WithError(err).WithField("keyword", cfg.Keyword).Warn("last-run lookup failed")
			continue
		}
		if !publish.Due(lastRun, cfg.Frequency, r.now()) {
			continue
		}
		r.RunOne(ctx, cfg)
	}

	return nil
}

// RunOne executes a single scheduler config and appends a run log.
func (r *Runner) RunOne(ctx context.Context, cfg store.SchedulerConfig) {
	log := r.log.WithFields(logrus.Fields{"scheduler": cfg.ID, "keyword": cfg.Keyword})

	platforms := make([]record.Platform, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		platforms = append(platforms, record.Platform(p))
	}

	items, err := r.fetcher.FetchKeyword(ctx, cfg.Keyword, platforms, cfg.MaxPosts, cfg.MinEngagement)
	if err != nil {
		log.WithError(err).Warn("keyword fetch failed")
		r.insertLog(ctx, cfg, 0, 0, 0, "Fetch failed.")
		return
	}

	fetched := len(items)
	published := 0
	skipped := 0

	planner := publish.Planner{
		Mode:         cfg.PublishMode,
		PostType:     cfg.PostType,
		ScheduleTime: cfg.ScheduleTime,
		Frequency:    "", // per-config jobs always target the next single slot
		Now:          r.now,
	}

	for _, item := range items {
		if aggregate.RelevanceScore(item.Caption, cfg.Keyword) < 50 {
			skipped++
			continue
		}
		if r.verify != nil && !r.verify(ctx, item, cfg.Keyword) {
			skipped++
			continue
		}

		caption := textproc.CleanCaption(item.Caption)
		processed, err := r.ProcessHashtags(ctx, caption, cfg.Keyword)
		if err != nil {
			log.WithError(err).Warn("hashtag processing failed")
			processed = caption
		}

		contentHash := fmt.Sprintf("%x", md5.Sum([]byte(processed)))
		dup, err := r.store.HasDuplicateEntry(ctx, item.Permalink, contentHash, item.MediaURL)
		if err != nil {
			log.WithError(err).Warn("duplicate check failed")
		}
		if dup {
			skipped++
			continue
		}

		plan := planner.Build(processed, 0)
		item.Caption = processed
		if _, err := r.store.UpsertEntry(ctx, aggregate.EntryFromRecord(item, plan, cfg.Keyword)); err != nil {
			log.WithError(err).Warn("entry write failed")
			skipped++
			continue
		}
		published++
	}

	notes := fmt.Sprintf("Processed keyword scheduler ID %d.", cfg.ID)
	r.insertLog(ctx, cfg, fetched, published, skipped, notes)
	log.WithFields(logrus.Fields{"fetched": fetched, "published": published, "skipped": skipped}).Info("scheduler run complete")
}

var captionTagRe = regexp.MustCompile(`#(\w+)`)

// ProcessHashtags keeps only the caption's keyword-relevant hashtags, merges
// in the current trending set, and reattaches the merged tags at the end of
// the tag-stripped caption.
func (r *Runner) ProcessHashtags(ctx context.Context, caption, keyword string) (string, error) {
	var kept []string
	keywordWords := strings.Fields(strings.ToLower(keyword))

	for _, m := range captionTagRe.FindAllStringSubmatch(caption, -1) {
		tag := strings.ToLower(m[1])
		for _, word := range keywordWords {
			if strings.Contains(tag, word) {
				kept = append(kept, tag)
				break
			}
		}
	}

	trending, err := r.hashtags.Top(ctx, 5)
	if err != nil {
		return "", err
	}

	seen := make(map[string]bool)
	var merged []string
	for _, tag := range append(kept, trending...) {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		merged = append(merged, tag)
	}

	clean := captionTagRe.ReplaceAllString(caption, "")
	clean = strings.Join(strings.Fields(clean), " ")

	if len(merged) == 0 {
		return clean, nil
	}
	return strings.TrimSpace(clean + " #" + strings.Join(merged, " #")), nil
}

func (r *Runner) insertLog(ctx context.Context, cfg store.SchedulerConfig, fetched, published, skipped int, notes string) {
	err := r.store.InsertRunLog(ctx, &store.RunLog{
		Keyword:        cfg.Keyword,
		FetchedCount:   fetched,
		PublishedCount: published,
		SkippedCount:   skipped,
		LastRun:        r.now().UTC(),
		Notes:          notes,
	})
	if err != nil {
		r.log.WithError(err).Warn("run log insert failed")
	}
}
