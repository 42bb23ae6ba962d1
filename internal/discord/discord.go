package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/zebralog/zebralog/internal/storage"
	"github.com/zebralog/zebralog/internal/summary"
	"github.com/zebralog/zebralog/internal/voice"
)

type Config struct {
	guild  uint64
	prefix string
}

func NewConfig(guild uint64, prefix string) *Config {
	return &Config{guild: guild, prefix: prefix}
}

type Discord struct {
	ctx        context.Context
	logger     *zap.SugaredLogger
	session    *discordgo.Session
	config     *Config
	storage    *storage.Storage
	summarizer *summary.Generator
	notes      *summary.NotesGenerator
	recorder   *voice.Recorder
}

func NewDiscord(ctx context.Context, log *zap.SugaredLogger, auth string, config *Config, store *storage.Storage, summarizer *summary.Generator, notes *summary.NotesGenerator, recorder *voice.Recorder) (*Discord, error) {
	s, err := discordgo.New(auth)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent
	return &Discord{
		ctx:        ctx,
		logger:     log,
		session:    s,
		config:     config,
		storage:    store,
		summarizer: summarizer,
		notes:      notes,
		recorder:   recorder,
	}, nil
}

func (d *Discord) addHandlers() {
	d.session.AddHandlerOnce(d.onReady)
	d.session.AddHandler(d.onGuildCreate)
	d.session.AddHandler(d.onMessageCreate)
	d.session.AddHandler(d.onMessageUpdate)
	d.session.AddHandler(d.onMessageDelete)
	d.session.AddHandler(d.onMessageDeleteBulk)
	d.session.AddHandler(d.onReactionAdd)
	d.session.AddHandler(d.onReactionRemove)
	d.session.AddHandler(d.onReactionRemoveAll)
	d.session.AddHandler(d.onGuildMemberUpdate)
}

func (d *Discord) Connect() error {
	d.addHandlers()
	return d.session.Open()
}

func (d *Discord) Close() error {
	return d.session.Close()
}

// Session exposes the underlying gateway session for one-shot jobs
// (backfill, role assignment) that drive it directly.
func (d *Discord) Session() *discordgo.Session {
	return d.session
}
