package record

import (
	"net/url"
	"strings"
)

// Platform identifies which social network a record came from.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformPinterest Platform = "pinterest"
	PlatformExternal  Platform = "external"
)

// SocialPlatforms returns the platforms with first-party API adapters.
func SocialPlatforms() []Platform {
	return []Platform{PlatformInstagram, PlatformFacebook, PlatformPinterest}
}

// Known reports whether p names a platform the pipeline understands.
func Known(p Platform) bool {
	switch p {
	case PlatformInstagram, PlatformFacebook, PlatformPinterest, PlatformExternal:
		return true
	}
	return false
}

// Record is the canonical unit flowing through the pipeline. Every record
// carries at least one of Permalink or ExternalID.
type Record struct {
	ExternalID      string   `json:"external_id" db:"external_id"`
	Caption         string   `json:"caption" db:"caption"`
	MediaURL        string   `json:"media_url" db:"media_url"`
	Permalink       string   `json:"permalink" db:"permalink"`
	Timestamp       string   `json:"timestamp" db:"timestamp"`
	LikeCount       int      `json:"like_count" db:"like_count"`
	CommentsCount   int      `json:"comments_count" db:"comments_count"`
	EngagementScore int      `json:"engagement_score" db:"engagement_score"`
	Platform        Platform `json:"platform" db:"platform"`
	IngestSource    string   `json:"ingest_source" db:"ingest_source"`
	RelevanceScore  int      `json:"relevance_score,omitempty" db:"relevance_score"`
	FinalScore      float64  `json:"final_score,omitempty" db:"final_score"`
	Hashtags        []string `json:"hashtags,omitempty" db:"-"`
}

// DedupeKey returns the identity key: permalink when present, external id
// otherwise.
func (r Record) DedupeKey() string {
	if r.Permalink != "" {
		return "url:" + r.Permalink
	}
	return "id:" + r.ExternalID
}

// Deduplicate drops later occurrences of records sharing a dedupe key.
// First-seen wins and input order is preserved, so the operation is
// idempotent.
func Deduplicate(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	unique := make([]Record, 0, len(records))

	for _, rec := range records {
		key := rec.DedupeKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, rec)
	}

	return unique
}

// FilterByEngagement keeps records whose engagement score meets the floor.
func FilterByEngagement(records []Record, min int) []Record {
	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.EngagementScore >= min {
			kept = append(kept, rec)
		}
	}
	return kept
}

var hostPlatforms = []struct {
	needle   string
	platform Platform
}{
	{"instagram", PlatformInstagram},
	{"facebook", PlatformFacebook},
	{"pinterest", PlatformPinterest},
}

// DetectPlatform infers a platform from a link's host. Unknown hosts map to
// external.
func DetectPlatform(rawURL string) Platform {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PlatformExternal
	}
	host := u.Hostname()
	for _, hp := range hostPlatforms {
		if strings.Contains(host, hp.needle) {
			return hp.platform
		}
	}
	return PlatformExternal
}
