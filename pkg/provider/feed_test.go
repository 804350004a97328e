package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <item>
      <title>First post</title>
      <link>https://example.com/first</link>
      <description>&lt;p&gt;Body with &lt;b&gt;markup&lt;/b&gt;&lt;/p&gt;</description>
      <pubDate>Mon, 03 Aug 2026 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Second post</title>
      <link>https://example.com/second</link>
      <description>Plain body</description>
    </item>
  </channel>
</rss>`

func TestParseFeedURLs(t *testing.T) {
	urls := ParseFeedURLs("https://a.example/feed\n\n https://b.example/feed \nhttps://a.example/feed\n")
	require.Equal(t, []string{"https://a.example/feed", "https://b.example/feed"}, urls)

	require.Empty(t, ParseFeedURLs(""))
	require.False(t, NewFeed("", 10, testLogger()).HasFeeds())
}

func TestFeedFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	feed := NewFeed(srv.URL, 10, testLogger())
	got, err := feed.Fetch(context.Background(), "", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	rec := got[0]
	require.Equal(t, "First post Body with markup", rec.Caption)
	require.Equal(t, "https://example.com/first", rec.Permalink)
	require.Equal(t, record.PlatformExternal, rec.Platform)
	require.Equal(t, "feed", rec.IngestSource)
	require.Zero(t, rec.EngagementScore)
	require.NotEmpty(t, rec.ExternalID)
	require.Equal(t, "2026-08-03T10:00:00Z", rec.Timestamp)

	// Entries without a pubDate still carry a timestamp.
	require.NotEmpty(t, got[1].Timestamp)
}

func TestFeedFetchPerFeedLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	feed := NewFeed(srv.URL, 1, testLogger())
	got, err := feed.Fetch(context.Background(), "", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestFeedFetchSkipsFailingFeed(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	feed := NewFeed(bad.URL+"\n"+good.URL, 10, testLogger())
	got, err := feed.Fetch(context.Background(), "", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
}
