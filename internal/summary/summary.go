// Package summary turns stored conversation history into recaps and
// meeting notes, through the language-model API when a credential is
// configured and through deterministic templates otherwise.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/zebralog/zebralog/internal/llm"
	"github.com/zebralog/zebralog/internal/storage/entity"
)

const (
	// defaultLimit caps a summary with no explicit limit argument.
	defaultLimit = 50
	// transcriptBudget bounds the characters sent to the model.
	transcriptBudget = 8000

	chatTimeout = 30 * time.Second
)

const personaPreamble = `You are a successful influencer Zebra who loves to summarize Discord conversations in a fun, engaging way. You use emojis naturally (especially the zebra) and make everything sound exciting!`

// MessageSource loads recent channel messages, newest first.
type MessageSource interface {
	RecentMessages(ctx context.Context, channelID uint64, cutoff time.Time, limit int) ([]*entity.ChannelMessage, error)
}

// Result is the outcome of one summary request. Generated marks model
// output; otherwise Reason explains which fallback produced Text.
type Result struct {
	Text         string
	Generated    bool
	Reason       llm.Reason
	MessageCount int
	AuthorCount  int
}

type Generator struct {
	logger *zap.SugaredLogger
	source MessageSource
	llm    llm.Chatter // nil when no credential is configured
}

func NewGenerator(logger *zap.SugaredLogger, source MessageSource, chatter llm.Chatter) *Generator {
	return &Generator{logger: logger, source: source, llm: chatter}
}

// Summarize recaps the channel's recent conversation. hours bounds the
// window (zero means unbounded), limit caps the message count (zero
// means the default of 50).
func (g *Generator) Summarize(ctx context.Context, channelID uint64, hours, limit int) (*Result, error) {
	cutoff := time.Time{}
	if hours > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	messages, err := g.source.RecentMessages(ctx, channelID, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("couldn't load messages: %w", err)
	}
	if len(messages) == 0 {
		return &Result{Text: "**Hey there!** 👋 No messages found in this channel to summarize. Maybe try a different time range?"}, nil
	}

	transcript, authors := buildTranscript(messages)
	if transcript == "" {
		return &Result{
			Text:         "**Oops!** No text messages found to summarize. Everyone was just sharing images and files! 📸",
			MessageCount: len(messages),
			AuthorCount:  authors,
		}, nil
	}

	res := &Result{MessageCount: len(messages), AuthorCount: authors}
	if g.llm == nil {
		res.Reason = llm.ReasonNoKey
		res.Text = fallbackSummary(len(messages), authors, llm.ReasonNoKey)
		return res, nil
	}

	cctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()
	text, err := g.llm.Chat(cctx, personaPreamble, summaryPrompt(transcript, len(messages), authors))
	if err != nil {
		reason := llm.Classify(err)
		g.logger.Warnf("Summary generation failed (reason %d): %s.", reason, err)
		res.Reason = reason
		res.Text = fallbackSummary(len(messages), authors, reason)
		return res, nil
	}

	res.Generated = true
	res.Text = text
	return res, nil
}

// buildTranscript renders "[15:04] author: content" lines in
// chronological order, skipping empty bodies, and counts distinct
// authors across all messages.
func buildTranscript(messages []*entity.ChannelMessage) (string, int) {
	authors := make(map[string]struct{}, len(messages))
	lines := make([]string, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		authors[m.AuthorName] = struct{}{}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Format("15:04"), m.AuthorName, content))
	}
	return strings.Join(lines, "\n"), len(authors)
}

func summaryPrompt(transcript string, messageCount, authorCount int) string {
	return fmt.Sprintf(`Here's a Discord conversation from the last %d messages with %d people. Create a fun, engaging summary in the style of a successful influencer Zebra:

%s

Create a summary that's:
- 2-4 paragraphs long
- Engaging and fun to read
- Highlights key topics and interesting moments
- Ends with something encouraging or positive

Start with something catchy and energetic!`, messageCount, authorCount, truncate(transcript, transcriptBudget))
}

func fallbackSummary(messageCount, authorCount int, reason llm.Reason) string {
	base := fmt.Sprintf(`**Hey everyone!** 👋 Just caught up on the conversation and wow, there's been some action!

We had **%d messages** with **%d different people** chiming in. The conversation covered a bunch of topics - definitely some interesting discussions happening!`, messageCount, authorCount)

	switch reason {
	case llm.ReasonQuota:
		return base + "\n\n⚠️ **AI Summary Unavailable**: The language-model provider reported a quota or billing problem. Check the account's billing status and limits, or regenerate the API key."
	case llm.ReasonRequestFailed:
		return base + "\n\n⚠️ **AI Summary Unavailable**: Your API key is configured, but requests to the language-model API are failing. Check your network settings or the provider's status page."
	default:
		return base + "\n\nWant a more detailed AI-powered summary? Configure llm.auth and I'll give you the full influencer Zebra treatment! ✨"
	}
}

// truncate caps s at budget bytes, backing up so a multi-byte rune is
// never split.
func truncate(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	for budget > 0 && !utf8.RuneStart(s[budget]) {
		budget--
	}
	return s[:budget]
}
