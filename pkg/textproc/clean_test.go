package textproc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanCaption(t *testing.T) {
	got := CleanCaption("Check this out http://x.co #Sale via @store")
	require.Equal(t, "Check this out #Sale", got)
}

func TestCleanCaptionStripsMentionsAndEmails(t *testing.T) {
	got := CleanCaption("New drop from @brandname! Questions: hello@shop.com")
	require.Equal(t, "New drop from ! Questions:", got)
}

func TestCleanCaptionStripsCreditPhrases(t *testing.T) {
	cases := map[string]string{
		"Great shot. Credit @photographer":  "Great shot.",
		"Amazing view, posted by traveler1": "Amazing view,",
	}
	for in, want := range cases {
		require.Equal(t, want, CleanCaption(in))
	}
}

func TestCleanCaptionUnwrapsAnchors(t *testing.T) {
	got := CleanCaption(`Shop the <a href="https://shop.example">summer range</a> today`)
	require.Equal(t, "Shop the summer range today", got)
}

func TestCleanCaptionStripsTrackingQueries(t *testing.T) {
	got := CleanCaption("Read more example.com/post?utm_source=ig&utm_campaign=sale now")
	require.Equal(t, "Read more example.com/post now", got)
}

func TestCleanCaptionCollapsesWhitespace(t *testing.T) {
	got := CleanCaption("too   many\n\nspaces\there")
	require.Equal(t, "too many spaces here", got)
}

func TestEnforceLinkRemoval(t *testing.T) {
	got := EnforceLinkRemoval("sale on now https://example.com/deal #sale utm_medium=social leftover")
	require.Equal(t, "sale on now #sale leftover", got)
}

func TestStripMarkup(t *testing.T) {
	require.Equal(t, "plain text", StripMarkup("plain text"))
	require.Equal(t, "bold move", StripMarkup("<b>bold</b> move"))
	require.NotContains(t, StripMarkup("<script>alert(1)</script>hello"), "alert")
}
