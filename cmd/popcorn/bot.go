package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/popcorn/internal/browse"
	"github.com/vadimtrunov/popcorn/internal/config"
	"github.com/vadimtrunov/popcorn/internal/frontend/telegram"
)

// newBotCmd returns the "bot" subcommand for running the Telegram bot.
func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram bot",
		Long:  "Start the popcorn Telegram bot. Every chat gets its own browser with search, filters and pages.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd)
		},
	}
}

// runBot initializes services and runs the Telegram bot until interrupted.
func runBot(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Telegram == nil {
		return errors.New(
			"telegram configuration is required: set telegram.bot_token in config or POPCORN_TELEGRAM_BOT_TOKEN env var",
		)
	}

	logger := config.SetupLogger(cfg.App.LogLevel, cmd.ErrOrStderr())

	svc, err := initServices(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	bot, err := telegram.New(
		cfg.Telegram.BotToken,
		cfg.Telegram.AllowedUserIDs,
		browserFactory(svc, logger),
		logger,
	)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("telegram bot starting")
	return bot.Start(ctx)
}

// browserFactory builds one Browser per chat. Each chat keeps its own page number.
func browserFactory(svc *services, logger *slog.Logger) telegram.BrowserFactory {
	return func(chatID int64, listener browse.Listener) *browse.Browser {
		return browse.New(svc.catalog,
			browse.WithLogger(logger.With(slog.Int64("chat_id", chatID))),
			browse.WithDelayPolicy(svc.delayPolicy()),
			browse.WithPageStore(svc.pageStore(chatScope(chatID))),
			browse.WithListener(listener),
		)
	}
}
