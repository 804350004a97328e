package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// HashtagStat tracks usage and the running mean engagement of one hashtag.
type HashtagStat struct {
	Hashtag       string    `db:"hashtag"`
	UsageCount    int       `db:"usage_count"`
	AvgEngagement float64   `db:"avg_engagement"`
	LastSeen      time.Time `db:"last_seen"`
}

// ScraperUsage is the per-provider call counter for one calendar month.
type ScraperUsage struct {
	Provider  string `db:"provider"`
	Month     string `db:"month"` // YYYY-MM
	CallsMade int    `db:"calls_made"`
}

// SchedulerConfig is a saved recurring keyword job.
type SchedulerConfig struct {
	ID            int64     `db:"id" json:"id"`
	Keyword       string    `db:"keyword" json:"keyword"`
	PlatformsJSON string    `db:"platforms" json:"-"`
	Platforms     []string  `db:"-" json:"platforms"`
	PostType      string    `db:"post_type" json:"post_type"`
	PublishMode   string    `db:"publish_mode" json:"publish_mode"`
	ScheduleTime  string    `db:"schedule_time" json:"schedule_time"`
	MinEngagement int       `db:"min_engagement" json:"min_engagement"`
	MaxPosts      int       `db:"max_posts" json:"max_posts"`
	Frequency     string    `db:"frequency" json:"frequency"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// RunLog is one keyword scheduler execution record. Append-only.
type RunLog struct {
	ID             int64     `db:"id" json:"id"`
	Keyword        string    `db:"keyword" json:"keyword"`
	FetchedCount   int       `db:"fetched_count" json:"fetched_count"`
	PublishedCount int       `db:"published_count" json:"published_count"`
	SkippedCount   int       `db:"skipped_count" json:"skipped_count"`
	LastRun        time.Time `db:"last_run" json:"last_run"`
	Notes          string    `db:"notes" json:"notes"`
}

// Entry is a published (or queued) content entry, keyed by the record's
// dedupe key so repeated upserts update in place.
type Entry struct {
	ID              int64      `db:"id" json:"id"`
	DedupeKey       string     `db:"dedupe_key" json:"dedupe_key"`
	ExternalID      string     `db:"external_id" json:"external_id"`
	Permalink       string     `db:"permalink" json:"permalink"`
	Title           string     `db:"title" json:"title"`
	Content         string     `db:"content" json:"content"`
	Status          string     `db:"status" json:"status"`
	PostType        string     `db:"post_type" json:"post_type"`
	ScheduledAt     *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	MediaURL        string     `db:"media_url" json:"media_url"`
	Platform        string     `db:"platform" json:"platform"`
	IngestSource    string     `db:"ingest_source" json:"ingest_source"`
	EngagementScore int        `db:"engagement_score" json:"engagement_score"`
	RelevanceScore  int        `db:"relevance_score" json:"relevance_score"`
	FinalScore      float64    `db:"final_score" json:"final_score"`
	ContentHash     string     `db:"content_hash" json:"content_hash"`
	Keyword         string     `db:"keyword" json:"keyword"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Store is the persistence interface.
type Store interface {
	GetHashtagStat(ctx context.Context, hashtag string) (*HashtagStat, error)
	UpsertHashtagStat(ctx context.Context, stat *HashtagStat) error
	TopHashtags(ctx context.Context, limit int) ([]HashtagStat, error)

	GetScraperUsage(ctx context.Context, provider string) (*ScraperUsage, error)
	SetScraperUsage(ctx context.Context, usage ScraperUsage) error

	InsertSchedulerConfig(ctx context.Context, cfg *SchedulerConfig) error
	ListActiveSchedulerConfigs(ctx context.Context) ([]SchedulerConfig, error)
	SetSchedulerActive(ctx context.Context, id int64, active bool) error

	InsertRunLog(ctx context.Context, log *RunLog) error
	LastRunTime(ctx context.Context, keyword string) (*time.Time, error)

	UpsertEntry(ctx context.Context, entry *Entry) (int64, error)
	HasDuplicateEntry(ctx context.Context, permalink, contentHash, mediaURL string) (bool, error)
	ListEntries(ctx context.Context, limit int) ([]Entry, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetHashtagStat(ctx context.Context, hashtag string) (*HashtagStat, error) {
	var stat HashtagStat
	err := s.db.GetContext(ctx, &stat, "SELECT * FROM hashtag_stats WHERE hashtag = ?", hashtag)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hashtag %s: %w", hashtag, err)
	}
	return &stat, nil
}

func (s *SQLiteStore) UpsertHashtagStat(ctx context.Context, stat *HashtagStat) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hashtag_stats (hashtag, usage_count, avg_engagement, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hashtag) DO UPDATE SET
			usage_count = excluded.usage_count,
			avg_engagement = excluded.avg_engagement,
			last_seen = excluded.last_seen
	`, stat.Hashtag, stat.UsageCount, stat.AvgEngagement, stat.LastSeen)
	if err != nil {
		return fmt.Errorf("upsert hashtag %s: %w", stat.Hashtag, err)
	}
	return nil
}

func (s *SQLiteStore) TopHashtags(ctx context.Context, limit int) ([]HashtagStat, error) {
	var stats []HashtagStat
	err := s.db.SelectContext(ctx, &stats,
		"SELECT * FROM hashtag_stats ORDER BY avg_engagement DESC, usage_count DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("top hashtags: %w", err)
	}
	return stats, nil
}

func (s *SQLiteStore) GetScraperUsage(ctx context.Context, provider string) (*ScraperUsage, error) {
	var usage ScraperUsage
	err := s.db.GetContext(ctx, &usage, "SELECT * FROM scraper_usage WHERE provider = ?", provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scraper usage %s: %w", provider, err)
	}
	return &usage, nil
}

func (s *SQLiteStore) SetScraperUsage(ctx context.Context, usage ScraperUsage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scraper_usage (provider, month, calls_made)
		VALUES (?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			month = excluded.month,
			calls_made = excluded.calls_made
	`, usage.Provider, usage.Month, usage.CallsMade)
	if err != nil {
		return fmt.Errorf("set scraper usage %s: %w", usage.Provider, err)
	}
	return nil
}

func (s *SQLiteStore) InsertSchedulerConfig(ctx context.Context, cfg *SchedulerConfig) error {
	platformsJSON, _ := json.Marshal(cfg.Platforms)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO keyword_schedulers
			(keyword, platforms, post_type, publish_mode, schedule_time, min_engagement, max_posts, frequency, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, cfg.Keyword, string(platformsJSON), cfg.PostType, cfg.PublishMode, cfg.ScheduleTime,
		cfg.MinEngagement, cfg.MaxPosts, cfg.Frequency, cfg.IsActive, cfg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert scheduler config: %w", err)
	}
	cfg.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) ListActiveSchedulerConfigs(ctx context.Context) ([]SchedulerConfig, error) {
	var configs []SchedulerConfig
	err := s.db.SelectContext(ctx, &configs,
		"SELECT * FROM keyword_schedulers WHERE is_active = 1 ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list scheduler configs: %w", err)
	}
	for i := range configs {
		json.Unmarshal([]byte(configs[i].PlatformsJSON), &configs[i].Platforms)
	}
	return configs, nil
}

func (s *SQLiteStore) SetSchedulerActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx, "UPDATE keyword_schedulers SET is_active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("set scheduler %d active: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) InsertRunLog(ctx context.Context, log *RunLog) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO keyword_run_logs (keyword, fetched_count, published_count, skipped_count, last_run, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.Keyword, log.FetchedCount, log.PublishedCount, log.SkippedCount, log.LastRun, log.Notes)
	if err != nil {
		return fmt.Errorf("insert run log: %w", err)
	}
	log.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) LastRunTime(ctx context.Context, keyword string) (*time.Time, error) {
	var last time.Time
	err := s.db.GetContext(ctx, &last,
		"SELECT last_run FROM keyword_run_logs WHERE keyword = ? ORDER BY id DESC LIMIT 1", keyword)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last run %s: %w", keyword, err)
	}
	return &last, nil
}

func (s *SQLiteStore) UpsertEntry(ctx context.Context, entry *Entry) (int64, error) {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries
			(dedupe_key, external_id, permalink, title, content, status, post_type, scheduled_at,
			 media_url, platform, ingest_source, engagement_score, relevance_score, final_score,
			 content_hash, keyword, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedupe_key) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			status = excluded.status,
			post_type = excluded.post_type,
			scheduled_at = excluded.scheduled_at,
			media_url = excluded.media_url,
			engagement_score = excluded.engagement_score,
			relevance_score = excluded.relevance_score,
			final_score = excluded.final_score,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, entry.DedupeKey, entry.ExternalID, entry.Permalink, entry.Title, entry.Content,
		entry.Status, entry.PostType, entry.ScheduledAt, entry.MediaURL, entry.Platform,
		entry.IngestSource, entry.EngagementScore, entry.RelevanceScore, entry.FinalScore,
		entry.ContentHash, entry.Keyword, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("upsert entry %s: %w", entry.DedupeKey, err)
	}

	var id int64
	if err := s.db.GetContext(ctx, &id, "SELECT id FROM entries WHERE dedupe_key = ?", entry.DedupeKey); err != nil {
		return 0, fmt.Errorf("lookup entry %s: %w", entry.DedupeKey, err)
	}
	entry.ID = id
	return id, nil
}

func (s *SQLiteStore) HasDuplicateEntry(ctx context.Context, permalink, contentHash, mediaURL string) (bool, error) {
	query := "SELECT COUNT(*) FROM entries WHERE 0"
	var args []any
	if permalink != "" {
		query += " OR permalink = ?"
		args = append(args, permalink)
	}
	if contentHash != "" {
		query += " OR content_hash = ?"
		args = append(args, contentHash)
	}
	if mediaURL != "" {
		query += " OR media_url = ?"
		args = append(args, mediaURL)
	}
	if len(args) == 0 {
		return false, nil
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) ListEntries(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []Entry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM entries ORDER BY updated_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}
