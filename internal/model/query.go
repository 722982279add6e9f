package model

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// interrogatives are stripped from the start of a question before vectorising.
var interrogatives = []string{
	"what is", "what's", "what are", "who is", "who was",
	"quel est", "quelle est", "qu'est-ce que", "que",
	"qué es", "que es",
	"cos'è", "che cos'è",
	"o que é",
}

var (
	trailingMarks = regexp.MustCompile(`[\s?!]+$`)
	leadingAsk    = compileInterrogatives(interrogatives)
)

// longest alternatives first, RE2 alternation is leftmost-first
func compileInterrogatives(words []string) *regexp.Regexp {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)^(?:` + strings.Join(quoted, "|") + `)\s+`)
}

// NormalizeQuery strips trailing question or exclamation marks and one
// leading interrogative such as "what is" or "qu'est-ce que".
func NormalizeQuery(query string) string {
	q := strings.TrimSpace(query)
	q = trailingMarks.ReplaceAllString(q, "")
	q = leadingAsk.ReplaceAllString(q, "")
	return strings.TrimSpace(q)
}
