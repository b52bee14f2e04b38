// Package command classifies inbound turn text as a system command or a
// content query. Pure functions, no side effects.
package command

import (
	"regexp"
	"strings"
)

// Kind discriminates classification results.
type Kind int

const (
	KindQuery Kind = iota
	KindHelp
	KindClear
)

// Result is the classification of one inbound text. Text carries the
// mention-stripped query for KindQuery and is empty for commands.
type Result struct {
	Kind Kind
	Text string
}

var (
	mentionPattern = regexp.MustCompile(`(?is)<at[^>]*>.*?</at>`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
)

// CleanText strips channel-mention artifacts and residual markup from raw
// activity text. Exported so the HTTP layer and tests apply the same
// normalization.
func CleanText(raw string) string {
	text := mentionPattern.ReplaceAllString(raw, "")
	text = tagPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Classify maps any input string to exactly one of help, clear or query.
// Unknown slash-prefixed tokens pass through as queries so legitimate text
// beginning with a slash is never rejected.
func Classify(raw string) Result {
	cleaned := CleanText(raw)
	if !strings.HasPrefix(cleaned, "/") {
		return Result{Kind: KindQuery, Text: cleaned}
	}

	token := cleaned
	if idx := strings.IndexAny(cleaned, " \t"); idx >= 0 {
		token = cleaned[:idx]
	}

	switch strings.ToLower(token) {
	case "/help":
		return Result{Kind: KindHelp}
	case "/clear":
		return Result{Kind: KindClear}
	default:
		return Result{Kind: KindQuery, Text: cleaned}
	}
}
