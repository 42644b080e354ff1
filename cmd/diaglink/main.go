package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/m3rciful/diaglink/botflow"
	"github.com/m3rciful/diaglink/core/bootstrap"
	"github.com/m3rciful/diaglink/core/buildinfo"
	"github.com/m3rciful/diaglink/core/config"
	"github.com/m3rciful/diaglink/core/logger"
	tg "github.com/m3rciful/diaglink/core/telegram"
	"github.com/m3rciful/diaglink/httpapi"
	"github.com/m3rciful/diaglink/tokens"
	"log/slog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "diaglink:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a local-development convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	boot, err := bootstrap.Run(bootstrap.Options{
		Logger: logger.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			KeysOrder:   cfg.Logging.KeysOrder,
			DebugSample: cfg.Logging.DebugSample,
			Dir:         cfg.Logging.Dir,
			File:        cfg.Logging.File,
			Profile:     cfg.Logging.Profile,
		},
		Database: cfg.Database,
	})
	if err != nil {
		return err
	}
	defer logger.Shutdown()
	defer boot.DB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "main", "starting",
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
	)

	store := tokens.NewPostgresStore(boot.DB)

	// The registry needs the token service for the start_diag callback, and
	// the service needs the bot for the completion notice; the notifier is
	// attached after the bot is assembled.
	svc := tokens.NewService(store, nil, cfg.Links.AppURL)

	reg := botflow.NewRegistry(svc)
	bot, err := tg.New(tg.Options{
		Token:       cfg.Telegram.Token,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(cfg, nil),
		Routes:      botflow.Routes(reg),
	})
	if err != nil {
		return err
	}
	defer bot.Close()

	svc.SetGateway(botflow.NewNotifier(bot.Telebot(), cfg.Links.GroupInviteURL, cfg.Links.PayURL))

	server := httpapi.NewServer(cfg.HTTP, svc, bot)
	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info(context.Background(), "main", "stopped")
	return nil
}
