package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zebralog/zebralog/internal/config"
	"github.com/zebralog/zebralog/internal/discord"
	"github.com/zebralog/zebralog/internal/storage"
)

// Backfill is a one-shot job: it fetches channel history over the REST
// API and stores it, then exits. The gateway is never opened.
func main() {
	days := flag.Int("days", 30, "how many days of history to fetch")
	limit := flag.Int("limit", 0, "max messages per channel, 0 for unbounded")
	channel := flag.Uint64("channel", 0, "restrict to one channel id")
	guild := flag.Uint64("guild", 0, "restrict to one guild id")
	skipExisting := flag.Bool("skip-existing", false, "skip channels that already hold messages in the window")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	lcf := zap.NewDevelopmentConfig()
	lcf.Level.SetLevel(zapcore.InfoLevel)
	lcf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	lcf.DisableCaller = true
	log, _ := lcf.Build()
	sugar := log.Sugar()

	cfg, err := config.Read()
	if err != nil {
		sugar.Fatalf("Couldn't load configuration: %s.", err)
	}
	lcf.Level.SetLevel(cfg.Logging.Level)

	store := storage.NewStorage(ctx, log)
	dsn, err := cfg.PostgresDSN()
	if err != nil {
		sugar.Fatalf("Couldn't resolve storage credentials: %s.", err)
	}
	if err := store.Connect(dsn); err != nil {
		sugar.Fatalf("Couldn't connect to storage: %s.", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			sugar.Errorf("Couldn't close storage: %s.", err)
		}
	}()

	d, err := discord.NewDiscord(ctx, sugar, cfg.Discord.Auth, discord.NewConfig(cfg.Discord.Guild, cfg.Discord.Prefix), store, nil, nil, nil)
	if err != nil {
		sugar.Fatalf("Couldn't initialize Discord struct: %s.", err)
	}

	report, err := d.Backfill(discord.BackfillOptions{
		Lookback:     time.Duration(*days) * 24 * time.Hour,
		Limit:        *limit,
		ChannelID:    *channel,
		GuildID:      *guild,
		SkipExisting: *skipExisting,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			sugar.Info("Backfill interrupted.")
			return
		}
		sugar.Fatalf("Backfill failed: %s.", err)
	}

	for name, n := range report.Channels {
		fmt.Printf("  #%s: %d messages\n", name, n)
	}
	fmt.Printf("Backfill complete: %d messages stored, %d channels skipped.\n", report.Total, report.Skipped)
}
