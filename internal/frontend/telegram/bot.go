// Package telegram is a chat frontend for movie browsing. Each chat gets its
// own browse.Browser; results are rendered as MarkdownV2 messages with inline
// keyboards for pagination and details.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/popcorn/internal/browse"
)

// BrowserFactory creates the Browser for a chat. The listener must be passed
// to the Browser so the bot can render its events.
type BrowserFactory func(chatID int64, listener browse.Listener) *browse.Browser

// botAPI is the part of tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram frontend for popcorn.
type Bot struct {
	api      botAPI
	self     string
	updates  func(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	stop     func()
	sessions *sessionManager
	factory  BrowserFactory
	logger   *slog.Logger
}

// New creates a new Telegram Bot.
func New(token string, allowedUserIDs []int64, factory BrowserFactory, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b := newBot(api, allowedUserIDs, factory, logger)
	b.self = api.Self.UserName
	b.updates = api.GetUpdatesChan
	b.stop = api.StopReceivingUpdates
	return b, nil
}

func newBot(api botAPI, allowedUserIDs []int64, factory BrowserFactory, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:      api,
		sessions: newSessionManager(allowedUserIDs),
		factory:  factory,
		logger:   logger,
	}
}

// Start starts the long-polling loop. It blocks until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("telegram bot started",
		slog.String("username", b.self),
	)
	defer b.sessions.closeAll()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.updates(u)

	for {
		select {
		case <-ctx.Done():
			b.stop()
			b.logger.Info("telegram bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches an incoming Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// sendMarkdown sends MarkdownV2 text and falls back to plain text when
// Telegram rejects the markup.
func (b *Bot) sendMarkdown(chatID int64, text, plain string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := b.api.Send(msg)
	if err == nil {
		return sent.MessageID, nil
	}
	b.logger.Warn("failed to send markdown, retrying plain",
		slog.String("error", err.Error()),
	)

	fallback := tgbotapi.NewMessage(chatID, plain)
	if kb != nil {
		fallback.ReplyMarkup = *kb
	}
	sent, err = b.api.Send(fallback)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// editMarkdown replaces the text and keyboard of an earlier message.
func (b *Bot) editMarkdown(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = kb
	if _, err := b.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}
