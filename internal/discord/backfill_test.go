package discord

import (
	"errors"
	"strconv"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePager struct {
	pages  [][]*discordgo.Message
	afters []string
	err    error
}

func (f *fakePager) ChannelMessages(_ string, _ int, _, afterID, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.afters = append(f.afters, afterID)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) == 0 {
		return nil, nil
	}
	p := f.pages[0]
	f.pages = f.pages[1:]
	return p, nil
}

func historyMsg(id uint64, bot bool) *discordgo.Message {
	return &discordgo.Message{
		ID:     strconv.FormatUint(id, 10),
		Author: &discordgo.User{ID: "1", Bot: bot},
	}
}

func fullPage(start uint64) []*discordgo.Message {
	page := make([]*discordgo.Message, fetchPageSize)
	for i := range page {
		page[i] = historyMsg(start+uint64(i), false)
	}
	return page
}

func collecting() (*[]string, func(*discordgo.Message) error) {
	var ids []string
	return &ids, func(m *discordgo.Message) error {
		ids = append(ids, m.ID)
		return nil
	}
}

func TestChannelBackfillCursorAdvance(t *testing.T) {
	pager := &fakePager{pages: [][]*discordgo.Message{
		fullPage(1000),
		{historyMsg(2000, false)},
	}}
	ids, store := collecting()
	b := &channelBackfill{pager: pager, store: store}

	stored, err := b.run("9", 500)
	require.NoError(t, err)
	assert.Equal(t, fetchPageSize+1, stored)
	assert.Len(t, *ids, fetchPageSize+1)

	// second request resumes past the first batch's max id,
	// the short second page ends the walk
	require.Len(t, pager.afters, 2)
	assert.Equal(t, "500", pager.afters[0])
	assert.Equal(t, strconv.Itoa(1000+fetchPageSize-1), pager.afters[1])
}

func TestChannelBackfillSkipsBotsAndKnown(t *testing.T) {
	pager := &fakePager{pages: [][]*discordgo.Message{{
		historyMsg(10, true),
		historyMsg(11, false),
		historyMsg(12, false),
	}}}
	ids, store := collecting()
	b := &channelBackfill{
		pager: pager,
		store: store,
		known: map[uint64]struct{}{11: {}},
	}

	stored, err := b.run("9", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	assert.Equal(t, []string{"12"}, *ids)
}

func TestChannelBackfillLimit(t *testing.T) {
	pager := &fakePager{pages: [][]*discordgo.Message{{
		historyMsg(10, false),
		historyMsg(11, true), // skipped, doesn't count against the limit
		historyMsg(12, false),
		historyMsg(13, false),
	}}}
	ids, store := collecting()
	b := &channelBackfill{pager: pager, store: store, limit: 2}

	stored, err := b.run("9", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	assert.Equal(t, []string{"10", "12"}, *ids)
}

func TestChannelBackfillEmptyHistory(t *testing.T) {
	pager := &fakePager{}
	ids, store := collecting()
	b := &channelBackfill{pager: pager, store: store}

	stored, err := b.run("9", 0)
	require.NoError(t, err)
	assert.Zero(t, stored)
	assert.Empty(t, *ids)
	assert.Len(t, pager.afters, 1)
}

func TestChannelBackfillPagerError(t *testing.T) {
	pager := &fakePager{err: errors.New("boom")}
	_, store := collecting()
	b := &channelBackfill{pager: pager, store: store}

	_, err := b.run("9", 0)
	assert.Error(t, err)
}

func TestChannelBackfillStoreError(t *testing.T) {
	pager := &fakePager{pages: [][]*discordgo.Message{{historyMsg(10, false)}}}
	b := &channelBackfill{
		pager: pager,
		store: func(*discordgo.Message) error { return errors.New("storage down") },
	}

	stored, err := b.run("9", 0)
	assert.Error(t, err)
	assert.Zero(t, stored)
}
