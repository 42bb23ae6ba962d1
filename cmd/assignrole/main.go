package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zebralog/zebralog/internal/config"
	"github.com/zebralog/zebralog/internal/discord"
	"github.com/zebralog/zebralog/internal/storage"
)

// Assignrole is a one-shot job: it grants the configured guild's admin
// role to the stored member whose name matches the given fragment.
func main() {
	flag.Parse()
	fragment := flag.Arg(0)
	if fragment == "" {
		fmt.Fprintln(os.Stderr, "usage: assignrole <member name fragment>")
		os.Exit(2)
	}

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

	outcome, err := d.AssignAdminRole(fragment)
	if err != nil {
		sugar.Fatalf("Couldn't assign role: %s.", err)
	}
	fmt.Println(outcome)
}
