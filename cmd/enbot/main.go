// Command enbot runs the transaction-entry Telegram bot.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/kappu72/enbot-sub001/internal/catalog"
	"github.com/kappu72/enbot-sub001/internal/commands"
	"github.com/kappu72/enbot-sub001/internal/config"
	"github.com/kappu72/enbot-sub001/internal/database"
	"github.com/kappu72/enbot-sub001/internal/ledger"
	"github.com/kappu72/enbot-sub001/internal/logger"
	"github.com/kappu72/enbot-sub001/internal/router"
	"github.com/kappu72/enbot-sub001/internal/session"
	"github.com/kappu72/enbot-sub001/internal/sheets"
	"github.com/kappu72/enbot-sub001/internal/telegram"
	"github.com/kappu72/enbot-sub001/internal/telegram/middleware"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("enbot: %v", err)
	}
}

func run() error {
	startedAt := time.Now()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	bot, err := telegram.NewBot(cfg)
	if err != nil {
		return err
	}
	transport := telegram.NewTransport(bot)

	sessions := session.NewPostgresStore(db)

	var mirror sheets.Mirror
	if cfg.Sheets.WebhookURL != "" {
		mirror = sheets.NewClient(cfg.Sheets.WebhookURL, cfg.Sheets.Secret)
	}

	deps := commands.Deps{
		Sessions:       sessions,
		Catalog:        catalog.NewPostgresStore(db),
		Ledger:         ledger.NewPostgresLedger(db),
		Mirror:         mirror,
		Transport:      transport,
		SessionTTL:     time.Duration(cfg.Session.TTLMinutes) * time.Minute,
		AmountCeiling:  cfg.Flow.AmountCeiling,
		PageSize:       cfg.Flow.PageSize,
		DescriptionMax: cfg.Flow.DescriptionMax,
	}
	registry := commands.BuildRegistry(deps)
	rtr := router.New(registry, sessions, transport, cfg.Telegram.AdminID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sweeper := session.NewSweeper(sessions, time.Duration(cfg.Session.SweepIntervalMinutes)*time.Minute)
	go sweeper.Run(ctx)

	mws := []tele.MiddlewareFunc{
		middleware.Recover,
		middleware.Logging,
		middleware.ChatAllowlist(cfg.Telegram.AllowedChatID, cfg.Telegram.AdminID),
	}

	logger.L.Info("bot starting",
		slog.String("event", "ready"),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	err = telegram.Run(ctx, bot, cfg, registry, rtr, mws)

	logger.L.Info("shutting down",
		slog.String("event", "shutdown"),
	)
	return err
}
