package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDedupeKey(t *testing.T) {
	withLink := Record{ExternalID: "123", Permalink: "https://instagram.com/p/abc"}
	require.Equal(t, "url:https://instagram.com/p/abc", withLink.DedupeKey())

	withoutLink := Record{ExternalID: "123"}
	require.Equal(t, "id:123", withoutLink.DedupeKey())
}

func TestDeduplicateFirstSeenWins(t *testing.T) {
	records := []Record{
		{ExternalID: "1", Permalink: "https://instagram.com/p/abc", Caption: "first"},
		{ExternalID: "2", Permalink: "https://facebook.com/posts/9", Caption: "second"},
		{ExternalID: "3", Permalink: "https://instagram.com/p/abc", Caption: "duplicate"},
	}

	unique := Deduplicate(records)
	require.Len(t, unique, 2)
	require.Equal(t, "first", unique[0].Caption)
	require.Equal(t, "second", unique[1].Caption)

	// A second pass changes nothing.
	require.Equal(t, unique, Deduplicate(unique))
}

func TestDeduplicateDistinctIDsNoPermalink(t *testing.T) {
	records := []Record{
		{ExternalID: "1"},
		{ExternalID: "2"},
		{ExternalID: "1"},
	}
	require.Len(t, Deduplicate(records), 2)
}

func TestFilterByEngagement(t *testing.T) {
	records := []Record{
		{ExternalID: "1", EngagementScore: 5},
		{ExternalID: "2", EngagementScore: 10},
		{ExternalID: "3", EngagementScore: 15},
	}

	kept := FilterByEngagement(records, 10)
	require.Len(t, kept, 2)
	require.Equal(t, "2", kept[0].ExternalID)
	require.Equal(t, "3", kept[1].ExternalID)

	// A floor equal to the score keeps the record.
	require.Len(t, FilterByEngagement(records, 15), 1)
	require.Empty(t, FilterByEngagement(records, 100))
}

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		url  string
		want Platform
	}{
		{"https://www.instagram.com/p/abc", PlatformInstagram},
		{"https://m.facebook.com/posts/9", PlatformFacebook},
		{"https://pinterest.com/pin/42", PlatformPinterest},
		{"https://example.com/post/1", PlatformExternal},
		{"not a url at all", PlatformExternal},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, DetectPlatform(tc.url), tc.url)
	}
}

func TestKnown(t *testing.T) {
	require.True(t, Known(PlatformInstagram))
	require.True(t, Known(PlatformExternal))
	require.False(t, Known(Platform("tiktok")))
}
