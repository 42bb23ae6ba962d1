package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zebralog/zebralog/internal/api"
	"github.com/zebralog/zebralog/internal/config"
	"github.com/zebralog/zebralog/internal/discord"
	"github.com/zebralog/zebralog/internal/llm"
	"github.com/zebralog/zebralog/internal/storage"
	"github.com/zebralog/zebralog/internal/stt"
	"github.com/zebralog/zebralog/internal/summary"
	"github.com/zebralog/zebralog/internal/voice"
)

type app struct {
	ctx    context.Context
	cancel context.CancelFunc

	logConf zap.Config
	logger  *zap.Logger

	config *config.Config

	storage *storage.Storage
	discord *discord.Discord
	api     *api.API
}

func newApp(ctx context.Context, lcf zap.Config, log *zap.Logger) (*app, error) {
	ctx, cancel := context.WithCancel(ctx)
	a := &app{ctx: ctx, cancel: cancel, logConf: lcf, logger: log}
	var err error

	log.Debug("Loading configuration.")
	a.config, err = config.Read()
	if err != nil {
		return nil, fmt.Errorf("couldn't load configuration: %w", err)
	}

	log.Debug("Successfully loaded configuration (also switching log level.)")
	lcf.Level.SetLevel(a.config.Logging.Level)

	log.Debug("Initializing Storage struct.")
	a.storage = storage.NewStorage(ctx, log)

	sugar := log.Sugar()

	var chatter llm.Chatter
	if a.config.LLM.Auth != "" {
		chatter = llm.NewClient(a.config.LLM.Auth)
	} else {
		sugar.Warn("llm.auth is not set; summaries and notes fall back to templates.")
	}

	voiceConf := voice.Config{Enabled: a.config.Voice.Enabled, Interval: a.config.Voice.Interval}
	var transcriber stt.Transcriber
	if voiceConf.Enabled {
		if a.config.Voice.Auth == "" {
			sugar.Warn("voice.enabled is set but voice.auth is not; disabling voice transcription.")
			voiceConf.Enabled = false
		} else {
			transcriber = stt.NewClient(a.config.Voice.Auth, a.config.Voice.Model)
		}
	}
	recorder := voice.NewRecorder(ctx, sugar, a.storage, transcriber, voiceConf)

	store := summary.NewStore(a.storage)
	summarizer := summary.NewGenerator(sugar, store, chatter)
	notes := summary.NewNotesGenerator(sugar, store, chatter)

	log.Debug("Initializing Discord struct.")
	a.discord, err = discord.NewDiscord(ctx, sugar, a.config.Discord.Auth, discord.NewConfig(a.config.Discord.Guild, a.config.Discord.Prefix), a.storage, summarizer, notes, recorder)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize Discord struct: %w", err)
	}

	log.Debug("Initializing API struct.")
	a.api = api.NewAPI(ctx, sugar, api.NewStorageBackend(a.storage), api.NewConfig(a.config.Api.Port))

	return a, nil
}

func (a *app) Run() error {
	a.logger.Debug("Connecting to PostgreSQL storage.")
	dsn, err := a.config.PostgresDSN()
	if err != nil {
		return fmt.Errorf("couldn't resolve storage credentials: %s", err)
	}
	if err := a.storage.Connect(dsn); err != nil {
		return fmt.Errorf("couldn't connect to storage: %s", err)
	}
	defer func() {
		a.logger.Debug("Closing PostgreSQL storage.")
		if err := a.storage.Close(); err != nil {
			a.logger.Sugar().Errorf("Couldn't close storage: %s.", err)
		}
	}()

	a.logger.Debug("Connecting to Discord API gateway.")
	if err := a.discord.Connect(); err != nil {
		return fmt.Errorf("couldn't connect to Discord: %s", err)
	}
	defer func() {
		a.logger.Debug("Closing connection with Discord API gateway.")
		if err := a.discord.Close(); err != nil {
			a.logger.Sugar().Errorf("Couldn't close Discord: %s.", err)
		}
	}()

	a.logger.Debug("Starting API server.")
	a.api.Listen()
	defer func() {
		if err := a.api.Close(); err != nil {
			a.logger.Sugar().Errorf("Couldn't close API server: %s.", err)
		}
	}()

	a.logger.Info("Launch complete. Send SIGINT to gracefully terminate.")
	<-a.ctx.Done()
	a.logger.Info("SIGINT received, terminating.")

	return a.ctx.Err()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	lcf := zap.NewDevelopmentConfig() // to later switch level without reallocation
	lcf.Level.SetLevel(zapcore.DebugLevel)
	lcf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	lcf.DisableCaller = true
	log, _ := lcf.Build()

	log.Info("Initializing application.")
	a, err := newApp(ctx, lcf, log)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Sugar().Fatalf("Couldn't initialize application: %s.", err)
		}
		return
	}

	log.Debug("Initialization tasks complete, continuing with launch.")
	if err := a.Run(); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Sugar().Fatalf("Application crashed: %s.", err)
		}
	}
}
