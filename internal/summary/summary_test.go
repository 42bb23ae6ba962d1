package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zebralog/zebralog/internal/llm"
	"github.com/zebralog/zebralog/internal/storage/entity"
)

type fakeMessages struct {
	messages []*entity.ChannelMessage
	err      error
	limit    int
	cutoff   time.Time
}

func (f *fakeMessages) RecentMessages(_ context.Context, _ uint64, cutoff time.Time, limit int) ([]*entity.ChannelMessage, error) {
	f.limit = limit
	f.cutoff = cutoff
	return f.messages, f.err
}

type fakeChatter struct {
	reply string
	err   error
	calls int
	last  string
}

func (f *fakeChatter) Chat(_ context.Context, _, message string) (string, error) {
	f.calls++
	f.last = message
	return f.reply, f.err
}

func msg(author, content string, at time.Time) *entity.ChannelMessage {
	return &entity.ChannelMessage{Content: content, CreatedAt: at, AuthorName: author}
}

func TestSummarizeNoMessages(t *testing.T) {
	g := NewGenerator(zap.NewNop().Sugar(), &fakeMessages{}, &fakeChatter{})

	res, err := g.Summarize(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.False(t, res.Generated)
	assert.Contains(t, res.Text, "No messages found")
	assert.Zero(t, res.MessageCount)
}

func TestSummarizeMediaOnly(t *testing.T) {
	now := time.Now()
	source := &fakeMessages{messages: []*entity.ChannelMessage{
		msg("ana", "", now),
		msg("bob", "   ", now.Add(-time.Minute)),
	}}
	chatter := &fakeChatter{}
	g := NewGenerator(zap.NewNop().Sugar(), source, chatter)

	res, err := g.Summarize(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.False(t, res.Generated)
	assert.Contains(t, res.Text, "images and files")
	assert.Equal(t, 2, res.MessageCount)
	assert.Equal(t, 2, res.AuthorCount)
	assert.Zero(t, chatter.calls)
}

func TestSummarizeDefaultLimit(t *testing.T) {
	source := &fakeMessages{}
	g := NewGenerator(zap.NewNop().Sugar(), source, nil)

	_, err := g.Summarize(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, source.limit)
	assert.True(t, source.cutoff.IsZero())

	_, err = g.Summarize(context.Background(), 1, 24, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, source.limit)
	assert.False(t, source.cutoff.IsZero())
}

func TestSummarizeWithoutKey(t *testing.T) {
	now := time.Now()
	source := &fakeMessages{messages: []*entity.ChannelMessage{msg("ana", "hi", now)}}
	g := NewGenerator(zap.NewNop().Sugar(), source, nil)

	res, err := g.Summarize(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.False(t, res.Generated)
	assert.Equal(t, llm.ReasonNoKey, res.Reason)
	assert.Contains(t, res.Text, "llm.auth")
}

func TestSummarizeFallbackCounts(t *testing.T) {
	now := time.Now()
	source := &fakeMessages{messages: []*entity.ChannelMessage{
		msg("bob", "three", now),
		msg("ana", "two", now.Add(-time.Minute)),
		msg("ana", "one", now.Add(-2*time.Minute)),
	}}
	g := NewGenerator(zap.NewNop().Sugar(), source, nil)

	res, err := g.Summarize(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "**3 messages**")
	assert.Contains(t, res.Text, "**2 different people**")
}

func TestSummarizeQuotaFallback(t *testing.T) {
	now := time.Now()
	source := &fakeMessages{messages: []*entity.ChannelMessage{msg("ana", "hi", now)}}
	chatter := &fakeChatter{err: errors.New("monthly quota exceeded")}
	g := NewGenerator(zap.NewNop().Sugar(), source, chatter)

	res, err := g.Summarize(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.False(t, res.Generated)
	assert.Equal(t, llm.ReasonQuota, res.Reason)
	assert.Contains(t, res.Text, "quota or billing")
}

func TestSummarizeRequestFailedFallback(t *testing.T) {
	now := time.Now()
	source := &fakeMessages{messages: []*entity.ChannelMessage{msg("ana", "hi", now)}}
	chatter := &fakeChatter{err: errors.New("connection refused")}
	g := NewGenerator(zap.NewNop().Sugar(), source, chatter)

	res, err := g.Summarize(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, llm.ReasonRequestFailed, res.Reason)
	assert.Contains(t, res.Text, "requests to the language-model API are failing")
}

func TestSummarizeGenerated(t *testing.T) {
	now := time.Now()
	source := &fakeMessages{messages: []*entity.ChannelMessage{
		msg("cara", "third", now),
		msg("bob", "second", now.Add(-time.Minute)),
		msg("ana", "first", now.Add(-2*time.Minute)),
	}}
	chatter := &fakeChatter{reply: "what a chat!"}
	g := NewGenerator(zap.NewNop().Sugar(), source, chatter)

	res, err := g.Summarize(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.True(t, res.Generated)
	assert.Equal(t, llm.ReasonNone, res.Reason)
	assert.Equal(t, "what a chat!", res.Text)
	assert.Equal(t, 3, res.MessageCount)
	assert.Equal(t, 3, res.AuthorCount)
	assert.Equal(t, 1, chatter.calls)
	assert.Contains(t, chatter.last, "3 messages")
	assert.Contains(t, chatter.last, "3 people")

	// chronological order in the prompt
	assert.Less(t, strings.Index(chatter.last, "first"), strings.Index(chatter.last, "third"))
}

func TestSummarizeSourceError(t *testing.T) {
	source := &fakeMessages{err: errors.New("boom")}
	g := NewGenerator(zap.NewNop().Sugar(), source, nil)

	_, err := g.Summarize(context.Background(), 1, 0, 0)
	assert.Error(t, err)
}

func TestBuildTranscript(t *testing.T) {
	at := time.Date(2024, 3, 1, 15, 4, 0, 0, time.UTC)
	transcript, authors := buildTranscript([]*entity.ChannelMessage{
		msg("bob", "later", at.Add(time.Minute)),
		msg("ana", "hello", at),
	})
	assert.Equal(t, 2, authors)
	assert.Equal(t, "[15:04] ana: hello\n[15:05] bob: later", transcript)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestTruncateRuneBoundary(t *testing.T) {
	s := strings.Repeat("🦓", 10) // 4 bytes each

	for _, budget := range []int{38, 39, 40, 41} {
		out := truncate(s, budget)
		assert.True(t, utf8.ValidString(out), "budget %d", budget)
		assert.LessOrEqual(t, len(out), budget)
	}
	assert.Equal(t, strings.Repeat("🦓", 9), truncate(s, 39))
}
