// Package hashtag extracts hashtags from captions and tracks per-tag
// engagement trends.
package hashtag

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/1webtutor/social-content-aggregator/internal/store"
)

var (
	tagRe = regexp.MustCompile(`#\w+`)
	// Tags that look like brand/account self-promotion are never counted.
	spamRe = regexp.MustCompile(`(official|admin|team)`)
)

// Extract returns the normalized hashtags found in caption: lowercased,
// without the leading '#', blacklist-filtered, first-seen order preserved.
func Extract(caption string, blacklist []string) []string {
	blocked := make(map[string]bool, len(blacklist))
	for _, b := range blacklist {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" {
			blocked[b] = true
		}
	}

	seen := make(map[string]bool)
	var tags []string
	for _, raw := range tagRe.FindAllString(caption, -1) {
		tag := strings.ToLower(strings.TrimPrefix(raw, "#"))
		if tag == "" || blocked[tag] || spamRe.MatchString(tag) {
			continue
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// ParseBlacklist splits a comma-separated blacklist setting into tags.
func ParseBlacklist(raw string) []string {
	parts := strings.Split(strings.ToLower(raw), ",")
	var tags []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// Engine persists hashtag usage statistics and serves trending tags.
type Engine struct {
	store store.Store
	now   func() time.Time
}

// NewEngine creates an engine over the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s, now: time.Now}
}

// Record updates the usage count and running mean engagement for each tag.
// A tag's new mean is ((old_avg * old_count) + engagement) / new_count, so
// avg_engagement is always the exact mean of every recorded value.
func (e *Engine) Record(ctx context.Context, hashtags []string, engagement int) error {
	for _, tag := range hashtags {
		stat, err := e.store.GetHashtagStat(ctx, tag)
		if err != nil {
			return fmt.Errorf("hashtag stat %s: %w", tag, err)
		}

		if stat == nil {
			stat = &store.HashtagStat{
				Hashtag:       tag,
				UsageCount:    1,
				AvgEngagement: float64(engagement),
			}
		} else {
			usage := stat.UsageCount + 1
			stat.AvgEngagement = ((stat.AvgEngagement * float64(stat.UsageCount)) + float64(engagement)) / float64(usage)
			stat.UsageCount = usage
		}
		stat.LastSeen = e.now().UTC()

		if err := e.store.UpsertHashtagStat(ctx, stat); err != nil {
			return err
		}
	}
	return nil
}

// Top returns up to n trending hashtags ordered by average engagement then
// usage count. n is clamped to [1,10].
func (e *Engine) Top(ctx context.Context, n int) ([]string, error) {
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}

	stats, err := e.store.TopHashtags(ctx, n)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(stats))
	for _, s := range stats {
		tags = append(tags, s.Hashtag)
	}
	return tags, nil
}
