// Package telegram binds the bot to the Telegram API: update polling,
// route registration and the outbound transport.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/kappu72/enbot-sub001/internal/commands"
	"github.com/kappu72/enbot-sub001/internal/config"
	"github.com/kappu72/enbot-sub001/internal/logger"
	"github.com/kappu72/enbot-sub001/internal/router"
)

// NewBot builds a telebot instance from the configuration: poller per run
// mode, retrying HTTP client.
func NewBot(cfg *config.Config) (*tele.Bot, error) {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.TG.Info("webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	default:
		logger.TG.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		// A leftover webhook blocks getUpdates.
		if err := deleteWebhook(cfg.Telegram.Token); err != nil {
			logger.TG.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("err", err.Error()),
			)
		}
	}

	return bot, nil
}

// Run wires middleware and routes, publishes the command menu and polls
// until the context is cancelled.
func Run(ctx context.Context, bot *tele.Bot, cfg *config.Config, reg *commands.Registry, rtr *router.Router, mws []tele.MiddlewareFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for _, mw := range mws {
		bot.Use(mw)
	}
	bindRoutes(ctx, bot, reg, rtr)
	publishMenu(bot, reg)

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

// publishMenu registers the user-visible commands with Telegram so they
// show up in the chat menu. Admin commands stay unlisted.
func publishMenu(bot *tele.Bot, reg *commands.Registry) {
	var menu []tele.Command
	for name, cmd := range reg.All() {
		if cmd.Admin() {
			continue
		}
		menu = append(menu, tele.Command{
			Text:        strings.TrimPrefix(name, "/"),
			Description: cmd.Description(),
		})
	}
	sort.Slice(menu, func(i, j int) bool { return menu[i].Text < menu[j].Text })

	if err := bot.SetCommands(menu); err != nil {
		logger.TG.Warn("failed to publish command menu",
			slog.String("event", "tg.menu"),
			slog.String("err", err.Error()),
		)
	}
}

func deleteWebhook(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("drop_pending_updates=false"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
