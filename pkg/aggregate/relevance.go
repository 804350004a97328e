package aggregate

import (
	"regexp"
	"strings"
)

var (
	contentCharsRe = regexp.MustCompile(`[^a-zA-Z0-9#\s]`)
	keywordCharsRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// RelevanceScore scores how well content matches a keyword. An exact phrase
// match contributes 50; each keyword token adds 20 for a bare substring hit,
// 10 when present as a hashtag, and 5 on a word-boundary match that also
// captures suffixed variants. No ceiling; floor 0.
//
// The weights and the caller-side threshold of 50 are a fixed contract.
func RelevanceScore(content, keyword string) int {
	text := strings.ToLower(contentCharsRe.ReplaceAllString(content, " "))
	keywordText := strings.ToLower(keywordCharsRe.ReplaceAllString(keyword, " "))
	words := strings.Fields(keywordText)

	score := 0
	if phrase := strings.TrimSpace(keywordText); phrase != "" && strings.Contains(text, phrase) {
		score += 50
	}

	for _, word := range words {
		if strings.Contains(text, word) {
			score += 20
		}
		if strings.Contains(text, "#"+word) {
			score += 10
		}
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `[a-z0-9]*\b`)
		if err == nil && re.MatchString(text) {
			score += 5
		}
	}

	if score < 0 {
		score = 0
	}
	return score
}

// keywordMatch is the loose containment pre-filter: the whole keyword or any
// whitespace-split token appearing as a case-insensitive substring.
func keywordMatch(content, keyword string) bool {
	content = strings.ToLower(content)
	keyword = strings.ToLower(keyword)

	if strings.Contains(content, keyword) {
		return true
	}
	for _, part := range strings.Fields(keyword) {
		if strings.Contains(content, part) {
			return true
		}
	}
	return false
}
