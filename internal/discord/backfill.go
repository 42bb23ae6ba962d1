package discord

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v4"

	"github.com/zebralog/zebralog/internal/storage/entity"
	"github.com/zebralog/zebralog/internal/util"
)

const fetchPageSize = 100

// storeDelay spaces out writes so a large backfill doesn't hog the pool.
const storeDelay = 100 * time.Millisecond

// historyPager is the slice of the gateway session the backfill drives.
type historyPager interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

type BackfillOptions struct {
	Lookback     time.Duration // how far back to fetch
	Limit        int           // max messages per channel, zero = unbounded
	ChannelID    uint64        // restrict to one channel, zero = all text channels
	GuildID      uint64        // restrict channel enumeration to one guild
	SkipExisting bool          // skip channels that already hold messages in the window
}

type BackfillReport struct {
	Channels map[string]int // channel name → messages stored
	Total    int
	Skipped  int
}

// Backfill fetches channel history back to the lookback cutoff and
// stores it through the same path as live events. Already stored
// messages and bot messages are skipped.
func (d *Discord) Backfill(opts BackfillOptions) (*BackfillReport, error) {
	cutoff := time.Now().UTC().Add(-opts.Lookback)

	channels, err := d.backfillTargets(opts)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, errors.New("no stored text channels to backfill; let the listener sync the guild first")
	}

	report := &BackfillReport{Channels: make(map[string]int, len(channels))}
	for _, ch := range channels {
		if opts.SkipExisting {
			var has bool
			if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
				var err error
				has, err = entity.ChannelHasMessagesSince(d.ctx, tx, ch.ID, cutoff)
				return err
			}); err != nil {
				return nil, err
			}
			if has {
				d.logger.Infof("Skipping #%s: already has messages in the window.", ch.Name)
				report.Skipped++
				continue
			}
		}

		stored, err := d.backfillChannel(ch, cutoff, opts.Limit)
		if err != nil {
			var rerr *discordgo.RESTError
			if errors.As(err, &rerr) && rerr.Response != nil &&
				(rerr.Response.StatusCode == http.StatusForbidden || rerr.Response.StatusCode == http.StatusNotFound) {
				d.logger.Warnf("Skipping #%s: %s.", ch.Name, err)
				report.Skipped++
				continue
			}
			return nil, fmt.Errorf("couldn't backfill #%s: %w", ch.Name, err)
		}
		report.Channels[ch.Name] = stored
		report.Total += stored
	}
	return report, nil
}

func (d *Discord) backfillTargets(opts BackfillOptions) ([]*entity.Channel, error) {
	var channels []*entity.Channel
	err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		if opts.ChannelID != 0 {
			ch, err := entity.FindChannel(d.ctx, tx, opts.ChannelID)
			if err != nil {
				return err
			}
			if ch == nil {
				return fmt.Errorf("channel %d is not stored", opts.ChannelID)
			}
			channels = []*entity.Channel{ch}
			return nil
		}
		var err error
		channels, err = entity.TextChannels(d.ctx, tx, opts.GuildID)
		return err
	})
	return channels, err
}

func (d *Discord) backfillChannel(ch *entity.Channel, cutoff time.Time, limit int) (int, error) {
	d.logger.Infof("Backfilling #%s.", ch.Name)

	var known map[uint64]struct{}
	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		var err error
		known, err = entity.ChannelMessageIDs(d.ctx, tx, ch.ID)
		return err
	}); err != nil {
		return 0, err
	}

	guildID := util.FormatSnowflake(ch.GuildID)
	b := &channelBackfill{
		pager: d.session,
		known: known,
		limit: limit,
		delay: storeDelay,
		store: func(m *discordgo.Message) error {
			if err := d.ctx.Err(); err != nil {
				return err
			}
			m.GuildID = guildID
			return d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
				_, err := d.storeMessageTx(tx, m)
				return err
			})
		},
	}
	stored, err := b.run(util.FormatSnowflake(ch.ID), util.SnowflakeAt(cutoff))
	if err != nil {
		return stored, err
	}

	d.logger.Infof("Stored %d messages from #%s.", stored, ch.Name)
	return stored, nil
}

// channelBackfill walks one channel's history forward from an
// after-cursor, storing eligible messages.
type channelBackfill struct {
	pager historyPager
	store func(*discordgo.Message) error
	known map[uint64]struct{}
	limit int // zero = unbounded
	delay time.Duration
}

// run pages from the after cursor until history, or the per-channel
// limit, is exhausted. Bot messages and already known ids are skipped
// without counting against the limit. Returns the number stored.
func (b *channelBackfill) run(channelID string, after uint64) (int, error) {
	stored := 0
	for {
		batch, err := b.pager.ChannelMessages(channelID, fetchPageSize, "", util.FormatSnowflake(after), "")
		if err != nil {
			return stored, err
		}
		if len(batch) == 0 {
			return stored, nil
		}

		// the cursor moves past the whole batch regardless of skips
		for _, m := range batch {
			if id := util.MustParseSnowflake(m.ID); id > after {
				after = id
			}
		}

		for _, m := range batch {
			if m.Author == nil || m.Author.Bot {
				continue
			}
			if _, ok := b.known[util.MustParseSnowflake(m.ID)]; ok {
				continue
			}
			if b.limit > 0 && stored >= b.limit {
				return stored, nil
			}
			if err := b.store(m); err != nil {
				return stored, err
			}
			stored++
			if b.delay > 0 {
				time.Sleep(b.delay)
			}
		}

		if len(batch) < fetchPageSize {
			return stored, nil
		}
	}
}
