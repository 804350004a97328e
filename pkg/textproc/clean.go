// Package textproc cleans imported captions before they are republished.
package textproc

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	urlRe      = regexp.MustCompile(`(?i)https?://[^\s]+`)
	emailRe    = regexp.MustCompile(`\b[\w.%+-]+@[\w.-]+\.[A-Za-z]{2,}\b`)
	mentionRe  = regexp.MustCompile(`@\w+`)
	creditRe   = regexp.MustCompile(`(?i)\b(posted by|credit|via)\s+@?\w+`)
	utmQueryRe = regexp.MustCompile(`(?i)\?[^\s]*utm_[^\s]*`)
	utmParamRe = regexp.MustCompile(`(?i)\butm_[a-z_]+=[^&\s]+`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// CleanCaption strips links, markup, mentions, attribution phrases and
// tracking params from a raw caption. Anchor tags are unwrapped to their
// inner text before markup is removed so link labels survive.
func CleanCaption(caption string) string {
	clean := StripMarkup(caption)
	clean = urlRe.ReplaceAllString(clean, "")
	clean = emailRe.ReplaceAllString(clean, "")
	clean = creditRe.ReplaceAllString(clean, "")
	clean = mentionRe.ReplaceAllString(clean, "")
	clean = utmQueryRe.ReplaceAllString(clean, "")
	clean = spaceRe.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// EnforceLinkRemoval is a narrower second pass applied after hashtag
// augmentation, which can reintroduce link-like tokens.
func EnforceLinkRemoval(content string) string {
	clean := unwrapAnchors(content)
	clean = urlRe.ReplaceAllString(clean, "")
	clean = utmParamRe.ReplaceAllString(clean, "")
	clean = spaceRe.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// StripMarkup unwraps anchors and flattens all remaining markup to text.
func StripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml(sel.Text())
	})
	doc.Find("script, style").Remove()
	return doc.Text()
}

// unwrapAnchors replaces anchor tags with their inner text, leaving other
// markup untouched.
func unwrapAnchors(s string) string {
	if !strings.Contains(s, "<a") && !strings.Contains(s, "<A") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml(sel.Text())
	})
	if body := doc.Find("body"); body.Length() > 0 {
		if html, err := body.Html(); err == nil {
			return html
		}
	}
	return doc.Text()
}
