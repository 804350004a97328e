// Package aggregate orchestrates acquisition across the API, feed and
// pooled-scraper channels, scores and deduplicates the results, and hands
// publishable records to the persistence port.
package aggregate

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1webtutor/social-content-aggregator/internal/cache"
	"github.com/1webtutor/social-content-aggregator/internal/store"
	"github.com/1webtutor/social-content-aggregator/pkg/hashtag"
	"github.com/1webtutor/social-content-aggregator/pkg/provider"
	"github.com/1webtutor/social-content-aggregator/pkg/publish"
	"github.com/1webtutor/social-content-aggregator/pkg/record"
	"github.com/1webtutor/social-content-aggregator/pkg/textproc"
)

// ErrRateLimited means the self-imposed sync throttle rejected this run.
var ErrRateLimited = errors.New("sync rate limited")

// ErrUnsupportedPlatform is returned for direct fetches naming a platform
// the pipeline does not know. No network call is made.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

const (
	keywordCacheTTL  = 15 * time.Minute
	feedCacheTTL     = time.Hour
	minPlatformTTL   = 300 * time.Second
	syncWindowLimit  = 10
	syncWindow       = time.Minute
	relevanceCutoff  = 50
	trendingTagCount = 5
)

// APIProvider is a first-party platform adapter that can report whether its
// credential pair is configured.
type APIProvider interface {
	provider.Provider
	HasCredentials() bool
}

// EntryWriter is the persistence collaborator's upsert contract. It must be
// idempotent by the record's dedupe key.
type EntryWriter interface {
	UpsertEntry(ctx context.Context, entry *store.Entry) (int64, error)
}

// Config carries the orchestrator's settings, resolved once at construction.
type Config struct {
	CacheTTL      time.Duration
	SyncLimit     int
	MinEngagement int
	Blacklist     []string
}

// Aggregator is the acquisition orchestrator.
type Aggregator struct {
	apis     map[record.Platform]APIProvider
	pool     *provider.Pool
	feed     *provider.Feed
	cache    *cache.Cache
	hashtags *hashtag.Engine
	planner  *publish.Planner
	writer   EntryWriter
	cfg      Config
	log      *logrus.Entry
	now      func() time.Time
}

// New wires the orchestrator. feed may be nil when feed ingest is disabled.
func New(
	apis map[record.Platform]APIProvider,
	pool *provider.Pool,
	feed *provider.Feed,
	c *cache.Cache,
	hashtags *hashtag.Engine,
	planner *publish.Planner,
	writer EntryWriter,
	cfg Config,
	log *logrus.Entry,
) *Aggregator {
	if cfg.CacheTTL < minPlatformTTL {
		cfg.CacheTTL = minPlatformTTL
	}
	if cfg.SyncLimit < 1 {
		cfg.SyncLimit = 25
	}
	if cfg.SyncLimit > 50 {
		cfg.SyncLimit = 50
	}
	return &Aggregator{
		apis:     apis,
		pool:     pool,
		feed:     feed,
		cache:    c,
		hashtags: hashtags,
		planner:  planner,
		writer:   writer,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// SyncAll fetches every configured platform plus the fallback feeds,
// deduplicates and engagement-filters the merged set, annotates each
// surviving record and hands it to the persistence port with its publish
// plan. A source failure never aborts the run.
func (a *Aggregator) SyncAll(ctx context.Context, forceRefresh bool) error {
	if !a.allowSync() {
		a.log.Warn("sync skipped due to rate limit")
		return ErrRateLimited
	}

	var merged []record.Record
	for _, platform := range record.SocialPlatforms() {
		records, err := a.FetchPlatform(ctx, platform, forceRefresh)
		if err != nil {
			a.log.WithError(err).WithField("platform", platform).Warn("platform fetch failed, skipping")
			continue
		}
		merged = append(merged, records...)
	}

	if a.feed != nil && a.feed.HasFeeds() {
		merged = append(merged, a.fetchFeeds(ctx, forceRefresh)...)
	}

	merged = record.Deduplicate(merged)
	merged = record.FilterByEngagement(merged, a.cfg.MinEngagement)

	for index, rec := range merged {
		if err := a.publishRecord(ctx, rec, index); err != nil {
			a.log.WithError(err).WithField("key", rec.DedupeKey()).Warn("record write failed, skipping")
		}
	}

	a.log.WithField("records", len(merged)).Info("sync complete")
	return nil
}

func (a *Aggregator) publishRecord(ctx context.Context, rec record.Record, index int) error {
	caption := textproc.CleanCaption(rec.Caption)

	tags := hashtag.Extract(caption, a.cfg.Blacklist)
	if err := a.hashtags.Record(ctx, tags, rec.EngagementScore); err != nil {
		a.log.WithError(err).Warn("hashtag stats update failed")
	}

	trending, err := a.hashtags.Top(ctx, trendingTagCount)
	if err != nil {
		a.log.WithError(err).Warn("trending hashtag lookup failed")
	}
	if len(trending) > 0 {
		caption = caption + " #" + strings.Join(trending, " #")
	}

	caption = textproc.EnforceLinkRemoval(caption)
	rec.Caption = caption
	rec.Hashtags = tags

	plan := a.planner.Build(caption, index)
	_, err = a.writer.UpsertEntry(ctx, EntryFromRecord(rec, plan, ""))
	return err
}

// FetchPlatform serves one platform through its cache. forceRefresh clears
// the cached value first. The scrape path's result is cached under the same
// key as the API path's.
func (a *Aggregator) FetchPlatform(ctx context.Context, platform record.Platform, forceRefresh bool) ([]record.Record, error) {
	if !record.Known(platform) || platform == record.PlatformExternal {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}

	key := "platform_" + string(platform)
	if forceRefresh {
		a.cache.Delete(key)
	}
	if cached, ok := a.cache.Get(key); ok {
		var records []record.Record
		if err := json.Unmarshal(cached, &records); err == nil {
			return records, nil
		}
	}

	var records []record.Record
	var err error
	if api, ok := a.apis[platform]; ok && api.HasCredentials() {
		records, err = api.Fetch(ctx, "", nil)
	} else {
		records = a.pool.FetchPooled(ctx, "", []record.Platform{platform}, a.cfg.SyncLimit)
	}
	if err != nil {
		return nil, err
	}

	if encoded, marshalErr := json.Marshal(records); marshalErr == nil {
		a.cache.Set(key, encoded, a.cfg.CacheTTL)
	}
	return records, nil
}

func (a *Aggregator) fetchFeeds(ctx context.Context, forceRefresh bool) []record.Record {
	const key = "feed_fallback"
	if forceRefresh {
		a.cache.Delete(key)
	}
	if cached, ok := a.cache.Get(key); ok {
		var records []record.Record
		if err := json.Unmarshal(cached, &records); err == nil {
			return records
		}
	}

	records, err := a.feed.Fetch(ctx, "", nil)
	if err != nil {
		a.log.WithError(err).Warn("feed ingest failed")
		return nil
	}

	if encoded, err := json.Marshal(records); err == nil {
		a.cache.Set(key, encoded, feedCacheTTL)
	}
	return records
}

// FetchKeyword searches the requested platforms for a keyword, API-first
// with pooled-scraper fallback, and returns up to maxPosts records ranked
// by combined relevance and engagement.
func (a *Aggregator) FetchKeyword(ctx context.Context, keyword string, platforms []record.Platform, maxPosts, minEngagement int) ([]record.Record, error) {
	keyword = strings.TrimSpace(keyword)
	platforms = uniquePlatforms(platforms)
	for _, p := range platforms {
		if !record.Known(p) || p == record.PlatformExternal {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
		}
	}

	if maxPosts < 1 {
		maxPosts = 1
	}
	if maxPosts > 50 {
		maxPosts = 50
	}

	cacheKey := keywordCacheKey(keyword, platforms, maxPosts, minEngagement)
	if cached, ok := a.cache.Get(cacheKey); ok {
		var records []record.Record
		if err := json.Unmarshal(cached, &records); err == nil {
			return records, nil
		}
	}

	var items []record.Record
	for _, platform := range platforms {
		records := a.fetchForKeyword(ctx, keyword, platform)

		for _, rec := range records {
			if !keywordMatch(rec.Caption, keyword) {
				continue
			}
			if rec.EngagementScore < minEngagement {
				continue
			}
			relevance := RelevanceScore(rec.Caption, keyword)
			if relevance < relevanceCutoff {
				continue
			}
			rec.RelevanceScore = relevance
			rec.FinalScore = float64(relevance)*0.6 + float64(rec.EngagementScore)*0.4
			items = append(items, rec)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].FinalScore > items[j].FinalScore
	})

	items = record.Deduplicate(items)
	if len(items) > maxPosts {
		items = items[:maxPosts]
	}

	if encoded, err := json.Marshal(items); err == nil {
		a.cache.Set(cacheKey, encoded, keywordCacheTTL)
	}
	return items, nil
}

// fetchForKeyword tries the platform API first and falls back to the
// scraper pool when the API is unavailable, empty or erroring.
func (a *Aggregator) fetchForKeyword(ctx context.Context, keyword string, platform record.Platform) []record.Record {
	var records []record.Record

	if api, ok := a.apis[platform]; ok && api.HasCredentials() {
		fetched, err := api.Fetch(ctx, keyword, nil)
		if err != nil {
			a.log.WithError(err).WithField("platform", platform).Warn("api fetch failed, trying scraper pool")
		} else {
			records = fetched
		}
	}

	if len(records) == 0 {
		records = a.pool.FetchPooled(ctx, keyword, []record.Platform{platform}, a.cfg.SyncLimit)
	}

	return records
}

// allowSync caps full-sync invocations to 10 per rolling 60-second window.
func (a *Aggregator) allowSync() bool {
	count := 0
	if raw, ok := a.cache.Get("sync_count"); ok {
		count, _ = strconv.Atoi(string(raw))
	}
	if count >= syncWindowLimit {
		return false
	}
	a.cache.Set("sync_count", []byte(strconv.Itoa(count+1)), syncWindow)
	return true
}

func keywordCacheKey(keyword string, platforms []record.Platform, maxPosts, minEngagement int) string {
	payload, _ := json.Marshal([]any{keyword, platforms, maxPosts, minEngagement})
	return fmt.Sprintf("kw_%x", md5.Sum(payload))
}

func uniquePlatforms(platforms []record.Platform) []record.Platform {
	seen := make(map[record.Platform]bool, len(platforms))
	var out []record.Platform
	for _, p := range platforms {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// EntryFromRecord maps a record and its write plan onto the persistence
// contract.
func EntryFromRecord(rec record.Record, plan publish.Plan, keyword string) *store.Entry {
	return &store.Entry{
		DedupeKey:       rec.DedupeKey(),
		ExternalID:      rec.ExternalID,
		Permalink:       rec.Permalink,
		Title:           plan.Title,
		Content:         plan.Content,
		Status:          plan.Status,
		PostType:        plan.PostType,
		ScheduledAt:     plan.ScheduledAt,
		MediaURL:        rec.MediaURL,
		Platform:        string(rec.Platform),
		IngestSource:    rec.IngestSource,
		EngagementScore: rec.EngagementScore,
		RelevanceScore:  rec.RelevanceScore,
		FinalScore:      rec.FinalScore,
		ContentHash:     fmt.Sprintf("%x", md5.Sum([]byte(plan.Content))),
		Keyword:         keyword,
	}
}
