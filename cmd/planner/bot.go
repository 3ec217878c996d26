package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"project-planner/internal/api"
	"project-planner/internal/bot"
	"project-planner/internal/metrics"
)

func botCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Long: `Run the Telegram bot.

By default the bot opens the database itself and runs the periodic audit.
With --server it talks to a running "planner serve" over HTTP instead and
leaves the database and the audit to that server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if server != "" {
				return runRemoteBot(ctx, server)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.cfg.RequireTelegram(); err != nil {
				return err
			}

			telegramBot, err := bot.New(a.cfg.TelegramToken, a.svc, &a.cfg, a.log.WithField("component", "bot"), a.metrics)
			if err != nil {
				return err
			}

			stopAudit, err := a.startAudit()
			if err != nil {
				return err
			}
			defer stopAudit()

			a.log.Info("project planner bot started")
			return runBot(ctx, telegramBot, a.log)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "base URL of a running planner serve, e.g. http://localhost:8080")
	return cmd
}

func runRemoteBot(ctx context.Context, server string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	client := api.NewHTTPClient(server, &http.Client{Timeout: 15 * time.Second})
	m := metrics.New(prometheus.NewRegistry())
	telegramBot, err := bot.New(cfg.TelegramToken, client, &cfg, log.WithField("component", "bot"), m)
	if err != nil {
		return err
	}

	log.WithField("server", server).Info("project planner bot started against remote server")
	return runBot(ctx, telegramBot, log)
}

func runBot(ctx context.Context, telegramBot *bot.Bot, log logrus.FieldLogger) error {
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
