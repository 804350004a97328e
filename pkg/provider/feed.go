package provider

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/1webtutor/social-content-aggregator/pkg/record"
	"github.com/1webtutor/social-content-aggregator/pkg/textproc"
)

// Feed ingests RSS/Atom feeds as a fallback acquisition channel. Feeds carry
// no engagement signal, so every record scores zero.
type Feed struct {
	client *http.Client
	parser *gofeed.Parser
	urls   []string
	limit  int
	log    *logrus.Entry
}

// NewFeed creates the feed adapter. raw is the newline-delimited URL list
// from settings; limit is the per-feed entry cap, clamped to [1,50].
func NewFeed(raw string, limit int, log *logrus.Entry) *Feed {
	return &Feed{
		client: &http.Client{Timeout: 15 * time.Second},
		parser: gofeed.NewParser(),
		urls:   ParseFeedURLs(raw),
		limit:  clampLimit(limit),
		log:    log,
	}
}

// ParseFeedURLs splits a newline-delimited URL list, trimming blanks and
// dropping duplicates.
func ParseFeedURLs(raw string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, line := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' }) {
		u := strings.TrimSpace(line)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

func (f *Feed) Name() string { return "feed" }

// HasFeeds reports whether any feed URLs are configured.
func (f *Feed) HasFeeds() bool { return len(f.urls) > 0 }

// Fetch reads every configured feed. A feed that errors is skipped; the
// batch never fails as a whole.
func (f *Feed) Fetch(ctx context.Context, _ string, _ []record.Platform) ([]record.Record, error) {
	var all []record.Record

	for _, feedURL := range f.urls {
		items, err := f.fetchFeed(ctx, feedURL)
		if err != nil {
			f.log.WithError(err).WithField("feed", feedURL).Warn("feed fetch failed, skipping")
			continue
		}
		all = append(all, items...)
	}

	return all, nil
}

func (f *Feed) fetchFeed(ctx context.Context, feedURL string) ([]record.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", feedURL, err)
	}
	req.Header.Set("User-Agent", "social-content-aggregator/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: feed %s status %d", ErrProvider, feedURL, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed %s: %v", ErrProvider, feedURL, err)
	}

	items := parsed.Items
	if len(items) > f.limit {
		items = items[:f.limit]
	}

	out := make([]record.Record, 0, len(items))
	for _, entry := range items {
		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}

		published := time.Now().UTC()
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}

		out = append(out, record.Record{
			// Feeds have no native external id.
			ExternalID:      fmt.Sprintf("%x", md5.Sum([]byte("feed|"+link))),
			Caption:         strings.TrimSpace(entry.Title + " " + textproc.StripMarkup(entry.Description)),
			Permalink:       link,
			Timestamp:       published.Format(time.RFC3339),
			EngagementScore: 0,
			Platform:        record.DetectPlatform(link),
			IngestSource:    "feed",
		})
	}

	return out, nil
}
