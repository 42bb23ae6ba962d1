package discord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/zebralog/zebralog/internal/summary"
	"github.com/zebralog/zebralog/internal/util"
	"github.com/zebralog/zebralog/internal/voice"
)

const summaryColor = 0x9B59B6

const (
	// embedDescriptionLimit is Discord's cap on an embed description.
	embedDescriptionLimit = 4096
	// overflowChunkSize leaves headroom for the code-block fencing
	// within Discord's 2000-char message limit.
	overflowChunkSize = 1900
)

// cutAtRune returns the longest prefix of s at most n bytes long that
// does not split a multi-byte rune.
func cutAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// splitForEmbed caps text at the embed description limit and chunks the
// remainder for follow-up code-block messages. No text is dropped.
func splitForEmbed(text string) (string, []string) {
	body := cutAtRune(text, embedDescriptionLimit)
	rest := text[len(body):]
	var overflow []string
	for len(rest) > 0 {
		chunk := cutAtRune(rest, overflowChunkSize)
		overflow = append(overflow, chunk)
		rest = rest[len(chunk):]
	}
	return body, overflow
}

// parseCommand splits a prefixed message into a lowercase command name
// and its arguments. ok is false for non-command messages.
func parseCommand(content, prefix string) (name string, args []string, ok bool) {
	if !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// maybeDispatchCommand routes prefixed messages to their handler. The
// message itself has already been stored like any other.
func (d *Discord) maybeDispatchCommand(s *discordgo.Session, m *discordgo.Message) {
	name, args, ok := parseCommand(m.Content, d.config.prefix)
	if !ok {
		return
	}

	switch name {
	case "summary", "recap":
		d.cmdSummary(s, m, args)
	case "join":
		d.cmdJoin(s, m)
	case "leave":
		d.cmdLeave(s, m)
	case "notes":
		d.cmdNotes(s, m, args)
	}
}

func (d *Discord) reply(s *discordgo.Session, channelID, text string) {
	if _, err := s.ChannelMessageSend(channelID, text); err != nil {
		d.logger.Errorf("Failed to send reply in channel %s: %s.", channelID, err)
	}
}

func (d *Discord) replyEmbed(s *discordgo.Session, channelID string, embed *discordgo.MessageEmbed) {
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		d.logger.Errorf("Failed to send embed in channel %s: %s.", channelID, err)
	}
}

// sendLongEmbed sends text as the embed's description, spilling any
// excess into follow-up code blocks.
func (d *Discord) sendLongEmbed(s *discordgo.Session, channelID string, embed *discordgo.MessageEmbed, text string) {
	body, overflow := splitForEmbed(text)
	embed.Description = body
	d.replyEmbed(s, channelID, embed)
	for _, chunk := range overflow {
		d.reply(s, channelID, "```\n"+chunk+"\n```")
	}
}

// cmdSummary recaps the channel's recent conversation. Optional
// arguments: hours (window) and limit (message cap).
func (d *Discord) cmdSummary(s *discordgo.Session, m *discordgo.Message, args []string) {
	hours, limit := 0, 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			d.reply(s, m.ChannelID, "**Oops!** The hours parameter should be a number. Usage: `"+d.config.prefix+"summary [hours] [limit]`")
			return
		}
		hours = n
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			d.reply(s, m.ChannelID, "**Oops!** The limit parameter should be a number. Usage: `"+d.config.prefix+"summary [hours] [limit]`")
			return
		}
		limit = n
	}

	res, err := d.summarizer.Summarize(d.ctx, util.MustParseSnowflake(m.ChannelID), hours, limit)
	if err != nil {
		d.logger.Errorf("Failed to summarize channel %s: %s.", m.ChannelID, err)
		d.reply(s, m.ChannelID, "**Oops!** Something went wrong while summarizing. Try again in a bit.")
		return
	}

	channelName := m.ChannelID
	if ch, err := s.State.Channel(m.ChannelID); err == nil {
		channelName = ch.Name
	}
	embed := &discordgo.MessageEmbed{
		Title: "🦓 Zebra Stream Recap 🦓",
		Color: summaryColor,
	}
	if res.MessageCount > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Summarized %d messages from #%s", res.MessageCount, channelName),
		}
	}
	d.sendLongEmbed(s, m.ChannelID, embed, res.Text)
}

// voiceChannelOf returns the voice channel the user currently sits in,
// or zero if they are not in one.
func (d *Discord) voiceChannelOf(s *discordgo.Session, guildID, userID string) uint64 {
	vs, err := s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return 0
	}
	return util.MustParseSnowflake(vs.ChannelID)
}

func (d *Discord) cmdJoin(s *discordgo.Session, m *discordgo.Message) {
	channelID := d.voiceChannelOf(s, m.GuildID, m.Author.ID)
	if channelID == 0 {
		d.reply(s, m.ChannelID, "You need to be in a voice channel first! Join one and try again.")
		return
	}

	id, err := d.recorder.Start(s, util.MustParseSnowflake(m.GuildID), channelID)
	switch {
	case errors.Is(err, voice.ErrDisabled):
		d.reply(s, m.ChannelID, "Voice transcription is disabled. Enable voice.enabled in the configuration.")
	case errors.Is(err, voice.ErrAlreadyActive):
		d.reply(s, m.ChannelID, "I'm already recording in that channel!")
	case err != nil:
		d.logger.Errorf("Failed to start recording in channel %d: %s.", channelID, err)
		d.reply(s, m.ChannelID, "**Oops!** Couldn't join the voice channel. Try again in a bit.")
	default:
		d.logger.Infof("Recording session %s started by %s.", id, m.Author.Username)
		d.reply(s, m.ChannelID, "🎙️ Joined the voice channel! I'm recording and transcribing everything said.")
	}
}

func (d *Discord) cmdLeave(s *discordgo.Session, m *discordgo.Message) {
	var sessionID string
	var err error
	if channelID := d.voiceChannelOf(s, m.GuildID, m.Author.ID); channelID != 0 && d.recorder.Active(channelID) {
		sessionID, err = d.recorder.Stop(channelID)
	} else {
		sessionID, _, err = d.recorder.StopAny()
	}
	if errors.Is(err, voice.ErrNoActiveRecord) {
		d.reply(s, m.ChannelID, "I'm not recording anything right now.")
		return
	}
	if err != nil {
		d.logger.Errorf("Failed to stop recording: %s.", err)
		d.reply(s, m.ChannelID, "**Oops!** Something went wrong while stopping the recording.")
		return
	}

	d.reply(s, m.ChannelID, "👋 Left the voice channel. Generating meeting notes...")
	notes, err := d.notes.Generate(d.ctx, sessionID)
	if errors.Is(err, summary.ErrNoTranscriptions) {
		d.reply(s, m.ChannelID, "The session ended but nothing was transcribed, so there are no notes.")
		return
	}
	if err != nil {
		d.logger.Errorf("Failed to generate notes for session %s: %s.", sessionID, err)
		d.reply(s, m.ChannelID, "**Oops!** Couldn't generate notes for this session. Try `"+d.config.prefix+"notes "+sessionID+"` later.")
		return
	}
	d.sendNotes(s, m.ChannelID, sessionID, notes)
}

// cmdNotes serves a session's meeting notes. With no argument it picks
// the guild's most recently completed session.
func (d *Discord) cmdNotes(s *discordgo.Session, m *discordgo.Message, args []string) {
	var notes, sessionID string
	var err error
	if len(args) > 0 {
		sessionID = args[0]
		notes, err = d.notes.Generate(d.ctx, sessionID)
	} else {
		notes, err = d.notes.GenerateLatest(d.ctx, util.MustParseSnowflake(m.GuildID))
	}

	switch {
	case errors.Is(err, summary.ErrSessionNotFound):
		d.reply(s, m.ChannelID, "Session not found or not completed yet. Double-check the session id.")
	case errors.Is(err, summary.ErrNoTranscriptions):
		d.reply(s, m.ChannelID, "No transcriptions found for this session, so there are no notes.")
	case errors.Is(err, summary.ErrNoCompletedSessions):
		d.reply(s, m.ChannelID, "No completed voice sessions found. Record one with `"+d.config.prefix+"join` first.")
	case err != nil:
		d.logger.Errorf("Failed to load notes: %s.", err)
		d.reply(s, m.ChannelID, "**Oops!** Something went wrong while fetching notes. Try again in a bit.")
	default:
		d.sendNotes(s, m.ChannelID, sessionID, notes)
	}
}

func (d *Discord) sendNotes(s *discordgo.Session, channelID, sessionID, notes string) {
	embed := &discordgo.MessageEmbed{
		Title: "📝 Meeting Notes",
		Color: summaryColor,
	}
	if sessionID != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Session " + sessionID}
	}
	d.sendLongEmbed(s, channelID, embed, notes)
}
