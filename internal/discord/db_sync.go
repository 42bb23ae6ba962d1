package discord

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v4"

	"github.com/zebralog/zebralog/internal/storage/entity"
	"github.com/zebralog/zebralog/internal/util"
)

func (d *Discord) shouldLogError(err error) bool {
	return !(err == nil || errors.Is(err, context.Canceled))
}

func channelKind(t discordgo.ChannelType) string {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return "text"
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return "voice"
	case discordgo.ChannelTypeGuildCategory:
		return "category"
	case discordgo.ChannelTypeGuildNewsThread, discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread:
		return "thread"
	default:
		return "other"
	}
}

func userEntity(u *discordgo.User, nick string) *entity.User {
	display := nick
	if display == "" {
		display = u.GlobalName
	}
	return entity.NewUser(util.MustParseSnowflake(u.ID), u.Username, display, u.AvatarURL(""), u.Bot)
}

func messageEntity(m *discordgo.Message) *entity.Message {
	edited := sql.NullTime{}
	if m.EditedTimestamp != nil {
		edited = sql.NullTime{Time: *m.EditedTimestamp, Valid: true}
	}
	return &entity.Message{
		ID:              util.MustParseSnowflake(m.ID),
		ChannelID:       util.MustParseSnowflake(m.ChannelID),
		AuthorID:        util.MustParseSnowflake(m.Author.ID),
		Content:         m.Content,
		CreatedAt:       m.Timestamp.UTC(),
		EditedAt:        edited,
		Pinned:          m.Pinned,
		AttachmentCount: len(m.Attachments),
		EmbedCount:      len(m.Embeds),
	}
}

func reactionEntity(messageID uint64, r *discordgo.MessageReactions) *entity.Reaction {
	e := &entity.Reaction{MessageID: messageID, EmojiName: r.Emoji.Name, Count: r.Count}
	if r.Emoji.ID != "" {
		e.EmojiID = sql.NullInt64{Int64: int64(util.MustParseSnowflake(r.Emoji.ID)), Valid: true}
	}
	return e
}

// syncGuild refreshes the guild, its channels, and its members in one
// transaction. Fires on every GuildCreate, so drifted names converge.
func (d *Discord) syncGuild(g *discordgo.Guild) {
	d.logger.Infof("Synchronizing guild %s.", g.ID)
	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		gid := util.MustParseSnowflake(g.ID)
		if err := entity.UpsertGuild(d.ctx, tx, entity.NewGuild(gid, g.Name)); err != nil {
			return fmt.Errorf("couldn't upsert guild: %w", err)
		}
		for _, ch := range g.Channels {
			c := entity.NewChannel(util.MustParseSnowflake(ch.ID), gid, ch.Name, channelKind(ch.Type))
			if err := entity.UpsertChannel(d.ctx, tx, c); err != nil {
				return fmt.Errorf("couldn't upsert channel %s: %w", ch.ID, err)
			}
		}
		for _, m := range g.Members {
			if err := entity.UpsertUser(d.ctx, tx, userEntity(m.User, m.Nick)); err != nil {
				return fmt.Errorf("couldn't upsert user %s: %w", m.User.ID, err)
			}
		}
		return nil
	}); err != nil {
		if d.shouldLogError(err) {
			d.logger.Errorf("Failed to synchronize guild %s: %s.", g.ID, err)
		}
	}
}

// ensureParents creates guild/channel/user rows a message references
// before any explicit sync reached them. Channel metadata comes from
// the state cache when available; a bare row otherwise.
func (d *Discord) ensureParents(tx pgx.Tx, m *discordgo.Message) error {
	gid := util.MustParseSnowflake(m.GuildID)
	if g, err := d.session.State.Guild(m.GuildID); err == nil {
		if err := entity.UpsertGuild(d.ctx, tx, entity.NewGuild(gid, g.Name)); err != nil {
			return fmt.Errorf("couldn't upsert guild: %w", err)
		}
	} else if err := entity.EnsureGuild(d.ctx, tx, gid); err != nil {
		return fmt.Errorf("couldn't ensure guild: %w", err)
	}

	cid := util.MustParseSnowflake(m.ChannelID)
	if ch, err := d.session.State.Channel(m.ChannelID); err == nil {
		if err := entity.UpsertChannel(d.ctx, tx, entity.NewChannel(cid, gid, ch.Name, channelKind(ch.Type))); err != nil {
			return fmt.Errorf("couldn't upsert channel: %w", err)
		}
	} else if err := entity.EnsureChannel(d.ctx, tx, cid, gid); err != nil {
		return fmt.Errorf("couldn't ensure channel: %w", err)
	}

	if err := entity.UpsertUser(d.ctx, tx, userEntity(m.Author, "")); err != nil {
		return fmt.Errorf("couldn't upsert user: %w", err)
	}
	return nil
}

// storeMessageTx is the single storage path shared by the live listener
// and the backfill job.
func (d *Discord) storeMessageTx(tx pgx.Tx, m *discordgo.Message) (bool, error) {
	if err := d.ensureParents(tx, m); err != nil {
		return false, err
	}
	em := messageEntity(m)
	created, err := entity.CreateMessage(d.ctx, tx, em)
	if err != nil {
		return false, fmt.Errorf("couldn't create message: %w", err)
	}
	for _, r := range m.Reactions {
		if err := entity.UpsertReaction(d.ctx, tx, reactionEntity(em.ID, r)); err != nil {
			return false, fmt.Errorf("couldn't upsert reaction: %w", err)
		}
	}
	return created, nil
}

func (d *Discord) maybeStoreMessage(m *discordgo.Message) {
	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		_, err := d.storeMessageTx(tx, m)
		return err
	}); err != nil {
		if d.shouldLogError(err) {
			d.logger.Errorf("Failed to store message %s: %s.", m.ID, err)
		}
	} else {
		d.logger.Debugf("Stored message %s.", m.ID)
	}
}

func (d *Discord) maybeUpdateMessage(m *discordgo.Message) {
	edited := sql.NullTime{}
	if m.EditedTimestamp != nil {
		edited = sql.NullTime{Time: *m.EditedTimestamp, Valid: true}
	}
	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		ok, err := entity.UpdateMessage(d.ctx, tx, util.MustParseSnowflake(m.ID), m.Content, edited)
		if err != nil {
			return err
		}
		if !ok {
			d.logger.Debugf("Message %s not found for edit.", m.ID)
		}
		return nil
	}); err != nil {
		if d.shouldLogError(err) {
			d.logger.Errorf("Failed to update message %s: %s.", m.ID, err)
		}
	}
}

func (d *Discord) maybeDeleteMessage(id string) {
	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		ok, err := entity.DeleteMessage(d.ctx, tx, util.MustParseSnowflake(id))
		if err != nil {
			return err
		}
		if ok {
			d.logger.Infof("Deleted message %s.", id)
		}
		return nil
	}); err != nil {
		if d.shouldLogError(err) {
			d.logger.Errorf("Failed to delete message %s: %s.", id, err)
		}
	}
}

// maybeSyncReactions refetches the message and overwrites stored counts
// so they mirror the platform's current state. A removed emoji absent
// from the refetched message loses its row.
func (d *Discord) maybeSyncReactions(channelID, messageID string, removed *discordgo.Emoji) {
	mid := util.MustParseSnowflake(messageID)

	var tracked bool
	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		var err error
		tracked, err = entity.MessageExists(d.ctx, tx, mid)
		return err
	}); err != nil {
		if d.shouldLogError(err) {
			d.logger.Errorf("Failed to look up message %s: %s.", messageID, err)
		}
		return
	}
	if !tracked {
		d.logger.Debugf("Ignoring reaction on untracked message %s.", messageID)
		return
	}

	m, err := d.session.ChannelMessage(channelID, messageID)
	if err != nil {
		d.logger.Errorf("Failed to fetch message %s for reaction sync: %s.", messageID, err)
		return
	}

	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		present := false
		for _, r := range m.Reactions {
			if removed != nil && r.Emoji.APIName() == removed.APIName() {
				present = true
			}
			if err := entity.UpsertReaction(d.ctx, tx, reactionEntity(mid, r)); err != nil {
				return err
			}
		}
		if removed != nil && !present {
			emojiID := sql.NullInt64{}
			if removed.ID != "" {
				emojiID = sql.NullInt64{Int64: int64(util.MustParseSnowflake(removed.ID)), Valid: true}
			}
			if _, err := entity.DeleteReaction(d.ctx, tx, mid, removed.Name, emojiID); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		if d.shouldLogError(err) {
			d.logger.Errorf("Failed to sync reactions for message %s: %s.", messageID, err)
		}
	}
}

func (d *Discord) maybeRemoveAllReactions(messageID string) {
	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		_, err := entity.DeleteAllReactions(d.ctx, tx, util.MustParseSnowflake(messageID))
		return err
	}); err != nil {
		if d.shouldLogError(err) {
			d.logger.Errorf("Failed to remove reactions for message %s: %s.", messageID, err)
		}
	}
}

func (d *Discord) maybeStoreUser(u *discordgo.User, nick string) {
	if u == nil {
		return
	}
	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		return entity.UpsertUser(d.ctx, tx, userEntity(u, nick))
	}); err != nil {
		if d.shouldLogError(err) {
			d.logger.Errorf("Failed to store user %s: %s.", u.ID, err)
		}
	}
}
