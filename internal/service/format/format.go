// Package format turns backend answers into channel-renderable cards and
// owns every fixed reply text. Pure functions; the channel-specific card
// schema stays in the external adapter.
package format

import (
	"fmt"
	"strings"

	"github.com/Actual-Reality/ai-master-engineer/internal/model/bot"
	ragmodel "github.com/Actual-Reality/ai-master-engineer/internal/model/rag"
	"github.com/Actual-Reality/ai-master-engineer/internal/model/reply"
	"github.com/Actual-Reality/ai-master-engineer/pkg/utils"
)

const (
	// PreviewLength bounds each rendered citation preview, in runes.
	PreviewLength = 280
	// MaxCitations bounds how many citation blocks a card renders.
	MaxCitations = 3

	truncationMarker = "… [truncated]"

	noAnswerText    = "No answer found. Please try rephrasing your question."
	clearedText     = "Conversation history cleared! Starting fresh."
	promptText      = "Please ask me a question about your documents!"
	unavailableText = "I'm having trouble connecting to the search service. Please try again."
	failureText     = "I couldn't process your request right now. Please try again later."
	errorText       = "I'm sorry, I encountered an error processing your request. Please try again."
)

// Format renders a backend answer into a card. Citation content is truncated
// only in the preview; the answer passed in is never modified.
func Format(answer ragmodel.Answer) reply.Card {
	card := reply.Card{Text: answer.Text}
	if card.Text == "" {
		card.Text = noAnswerText
	}

	count := len(answer.Citations)
	if count > MaxCitations {
		count = MaxCitations
	}
	for i := 0; i < count; i++ {
		citation := answer.Citations[i]
		title := citation.Title
		if title == "" {
			title = fmt.Sprintf("Source %d", i+1)
		}
		card.Citations = append(card.Citations, reply.CitationBlock{
			Title:     title,
			Preview:   preview(citation.Content),
			SourceRef: citation.SourceRef,
		})
	}
	return card
}

func preview(content string) string {
	truncated := utils.Truncate(content, PreviewLength)
	if truncated == content {
		return content
	}
	return truncated + truncationMarker
}

// HelpCard renders the static usage card from the bot profile.
func HelpCard(profile bot.Profile) reply.Card {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Help\n\n%s\n", profile.Name, profile.Description)

	if len(profile.ExampleQuestions) > 0 {
		b.WriteString("\nExample questions:\n")
		for _, question := range profile.ExampleQuestions {
			fmt.Fprintf(&b, "- %s\n", question)
		}
	}

	if len(profile.Commands) > 0 {
		b.WriteString("\nCommands:\n")
		for _, command := range profile.Commands {
			fmt.Fprintf(&b, "- %s\n", command)
		}
	}

	return reply.Card{Text: strings.TrimRight(b.String(), "\n")}
}

// ClearedCard confirms a history reset.
func ClearedCard() reply.Card {
	return reply.Card{Text: clearedText}
}

// PromptCard nudges the user after an empty query.
func PromptCard() reply.Card {
	return reply.Card{Text: promptText}
}

// UnavailableCard is the transient-failure reply for unreachable or
// erroring backends.
func UnavailableCard() reply.Card {
	return reply.Card{Text: unavailableText}
}

// FailureCard is the generic reply for a backend contract violation.
func FailureCard() reply.Card {
	return reply.Card{Text: failureText}
}

// ErrorCard is the last-resort reply when turn handling itself fails.
func ErrorCard() reply.Card {
	return reply.Card{Text: errorText}
}
