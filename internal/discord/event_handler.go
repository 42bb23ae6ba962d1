package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/zebralog/zebralog/internal/util"
)

func (d *Discord) onReady(_ *discordgo.Session, e *discordgo.Ready) {
	d.logger.Infof("Logged in Discord API as %s.", e.User)
}

// onGuildCreate fires for every guild at startup and on later joins;
// it is the explicit sync point for guild/channel/member rows.
func (d *Discord) onGuildCreate(_ *discordgo.Session, e *discordgo.GuildCreate) {
	if !d.inScope(e.ID) {
		return
	}
	d.syncGuild(e.Guild)
}

func (d *Discord) onMessageCreate(s *discordgo.Session, e *discordgo.MessageCreate) {
	if e.Author == nil || e.Author.Bot || e.GuildID == "" {
		return
	}
	if !d.inScope(e.GuildID) {
		return
	}
	d.maybeStoreMessage(e.Message)
	d.maybeDispatchCommand(s, e.Message)
}

func (d *Discord) onMessageUpdate(_ *discordgo.Session, e *discordgo.MessageUpdate) {
	if e.Author == nil || e.Author.Bot || e.GuildID == "" {
		return
	}
	if !d.inScope(e.GuildID) {
		return
	}
	d.maybeUpdateMessage(e.Message)
}

func (d *Discord) onMessageDelete(_ *discordgo.Session, e *discordgo.MessageDelete) {
	d.maybeDeleteMessage(e.ID)
}

func (d *Discord) onMessageDeleteBulk(_ *discordgo.Session, e *discordgo.MessageDeleteBulk) {
	for _, id := range e.Messages {
		d.maybeDeleteMessage(id)
	}
}

func (d *Discord) onReactionAdd(_ *discordgo.Session, e *discordgo.MessageReactionAdd) {
	if !d.inScope(e.GuildID) {
		return
	}
	d.maybeSyncReactions(e.ChannelID, e.MessageID, nil)
}

func (d *Discord) onReactionRemove(_ *discordgo.Session, e *discordgo.MessageReactionRemove) {
	if !d.inScope(e.GuildID) {
		return
	}
	d.maybeSyncReactions(e.ChannelID, e.MessageID, &e.Emoji)
}

func (d *Discord) onReactionRemoveAll(_ *discordgo.Session, e *discordgo.MessageReactionRemoveAll) {
	if !d.inScope(e.GuildID) {
		return
	}
	d.maybeRemoveAllReactions(e.MessageID)
}

func (d *Discord) onGuildMemberUpdate(_ *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	if !d.inScope(e.GuildID) {
		return
	}
	d.maybeStoreUser(e.User, e.Nick)
}

// inScope reports whether the event belongs to the configured guild.
// A zero configured guild means every guild is tracked.
func (d *Discord) inScope(guildID string) bool {
	if d.config.guild == 0 {
		return true
	}
	if guildID == "" {
		return false
	}
	id, err := util.ParseSnowflake(guildID)
	return err == nil && id == d.config.guild
}
