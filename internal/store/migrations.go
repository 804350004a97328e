package store

const schema = `
CREATE TABLE IF NOT EXISTS hashtag_stats (
    hashtag        TEXT PRIMARY KEY,
    usage_count    INTEGER NOT NULL DEFAULT 0,
    avg_engagement REAL NOT NULL DEFAULT 0,
    last_seen      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hashtag_stats_avg ON hashtag_stats(avg_engagement);

CREATE TABLE IF NOT EXISTS scraper_usage (
    provider   TEXT PRIMARY KEY,
    month      TEXT NOT NULL,
    calls_made INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS keyword_schedulers (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    keyword        TEXT NOT NULL,
    platforms      TEXT NOT NULL DEFAULT '[]',
    post_type      TEXT NOT NULL DEFAULT 'social_posts',
    publish_mode   TEXT NOT NULL DEFAULT 'draft',
    schedule_time  TEXT NOT NULL DEFAULT '09:00',
    min_engagement INTEGER NOT NULL DEFAULT 0,
    max_posts      INTEGER NOT NULL DEFAULT 10,
    frequency      TEXT NOT NULL DEFAULT 'daily',
    is_active      BOOLEAN NOT NULL DEFAULT 1,
    created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS keyword_run_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    keyword         TEXT NOT NULL,
    fetched_count   INTEGER NOT NULL DEFAULT 0,
    published_count INTEGER NOT NULL DEFAULT 0,
    skipped_count   INTEGER NOT NULL DEFAULT 0,
    last_run        DATETIME NOT NULL,
    notes           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_run_logs_keyword ON keyword_run_logs(keyword);

CREATE TABLE IF NOT EXISTS entries (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    dedupe_key       TEXT NOT NULL UNIQUE,
    external_id      TEXT NOT NULL DEFAULT '',
    permalink        TEXT NOT NULL DEFAULT '',
    title            TEXT NOT NULL DEFAULT '',
    content          TEXT NOT NULL DEFAULT '',
    status           TEXT NOT NULL DEFAULT 'draft',
    post_type        TEXT NOT NULL DEFAULT 'social_posts',
    scheduled_at     DATETIME,
    media_url        TEXT NOT NULL DEFAULT '',
    platform         TEXT NOT NULL DEFAULT '',
    ingest_source    TEXT NOT NULL DEFAULT '',
    engagement_score INTEGER NOT NULL DEFAULT 0,
    relevance_score  INTEGER NOT NULL DEFAULT 0,
    final_score      REAL NOT NULL DEFAULT 0,
    content_hash     TEXT NOT NULL DEFAULT '',
    keyword          TEXT NOT NULL DEFAULT '',
    created_at       DATETIME NOT NULL,
    updated_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_permalink ON entries(permalink);
CREATE INDEX IF NOT EXISTS idx_entries_content_hash ON entries(content_hash);
CREATE INDEX IF NOT EXISTS idx_entries_status ON entries(status);
`
