package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/popcorn/internal/browse"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	detailsErrorMsg = "Could not load movie details. Please try again."

	movieCallbackPrefix = "mv:"
	pageCallbackPrefix  = "pg:"
	noopCallback        = "noop"
)

const helpText = `Browse movies from TMDb.

Send any text to search by title, or use:
/popular - popular movies
/year 1990-1999 - filter by release year (/year off to clear)
/rating 7 or /rating 6-9 - filter by rating (/rating off to clear)
/genre Action, Comedy - filter by genre (/genre to list, /genre off to clear)
/clear - drop search and filters
/refresh - reload the current page
/reset - start over

Searching by title clears the filters, and setting a filter clears the search.`

func movieCallback(id int) string { return movieCallbackPrefix + strconv.Itoa(id) }
func pageCallback(n int) string   { return pageCallbackPrefix + strconv.Itoa(n) }

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("received message",
		slog.Int64("user_id", userID),
	)

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	cmd, args := msg.Command(), strings.TrimSpace(msg.CommandArguments())
	switch cmd {
	case "start", "help":
		b.sendText(chatID, helpText)
		if cmd == "start" {
			b.session(ctx, chatID)
		}
		return
	case "reset":
		b.sessions.reset(chatID)
		b.session(ctx, chatID)
		return
	}

	s := b.session(ctx, chatID)
	br := s.browser
	switch cmd {
	case "":
		b.newResults(s)
		br.SetSearch(text)
	case "search":
		if args == "" {
			b.sendText(chatID, "Usage: /search <title>")
			return
		}
		b.newResults(s)
		br.SetSearch(args)
	case "popular", "clear":
		b.newResults(s)
		br.ClearAll()
	case "year":
		b.handleYear(s, chatID, args)
	case "rating":
		b.handleRating(s, chatID, args)
	case "genre", "genres":
		b.handleGenre(ctx, s, chatID, args)
	case "refresh":
		br.DismissError()
		br.Refresh()
	default:
		b.sendText(chatID, "Unknown command. Send /help for the list of commands.")
	}
}

func (b *Bot) handleYear(s *session, chatID int64, args string) {
	if args == "" || strings.EqualFold(args, "off") {
		b.newResults(s)
		s.browser.SetYearRange(nil)
		return
	}
	r, err := browse.ParseRange(args)
	if err != nil {
		b.sendText(chatID, "Usage: /year 1999, /year 1990-1999, /year 1990- or /year -1999")
		return
	}
	b.newResults(s)
	s.browser.SetYearRange(&r)
}

func (b *Bot) handleRating(s *session, chatID int64, args string) {
	if args == "" || strings.EqualFold(args, "off") {
		b.newResults(s)
		s.browser.SetRatingRange(browse.DefaultRatingRange)
		return
	}
	r, err := browse.ParseRange(args)
	if err != nil {
		b.sendText(chatID, "Usage: /rating 7 or /rating 6-9")
		return
	}
	if r.Min == r.Max || r.Max == 0 {
		r.Max = browse.MaxRating
	}
	if r.Min == 0 {
		r.Min = browse.MinRating
	}
	b.newResults(s)
	s.browser.SetRatingRange(r)
}

func (b *Bot) handleGenre(ctx context.Context, s *session, chatID int64, args string) {
	if err := s.browser.LoadGenres(ctx); err != nil {
		b.sendText(chatID, "Could not load the genre list. Please try again.")
		return
	}
	st := s.browser.State()
	if len(st.Genres) == 0 {
		b.sendText(chatID, "The genre list is still loading. Please try again in a moment.")
		return
	}

	switch strings.ToLower(args) {
	case "":
		names := make([]string, 0, len(st.Genres))
		for _, g := range st.Genres {
			names = append(names, g.Name)
		}
		b.sendText(chatID, "Genres: "+strings.Join(names, ", "))
		return
	case "off", "none", "clear":
		b.newResults(s)
		s.browser.SetGenres(nil)
		return
	}

	ids, err := browse.ResolveGenres(st.Genres, browse.SplitList(args))
	if err != nil {
		b.sendText(chatID, fmt.Sprintf("%v. Send /genre for the list.", err))
		return
	}
	b.newResults(s)
	s.browser.SetGenres(ids)
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(_ context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID

	b.logger.Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	// Acknowledge the callback immediately.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Debug("failed to answer callback", slog.String("error", err.Error()))
	}

	if cq.Message == nil || !b.sessions.isAllowed(userID) {
		return
	}
	chatID := cq.Message.Chat.ID

	s, ok := b.sessions.get(chatID)
	if !ok {
		b.sendText(chatID, "This list has expired. Send /popular or a title to start again.")
		return
	}

	switch {
	case strings.HasPrefix(cq.Data, pageCallbackPrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(cq.Data, pageCallbackPrefix))
		if err != nil {
			return
		}
		s.mu.Lock()
		s.resultsMsg = cq.Message.MessageID
		s.mu.Unlock()
		s.browser.SetPage(n)
	case strings.HasPrefix(cq.Data, movieCallbackPrefix):
		id, err := strconv.Atoi(strings.TrimPrefix(cq.Data, movieCallbackPrefix))
		if err != nil {
			return
		}
		typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
		b.api.Request(typing) //nolint:errcheck // best-effort typing indicator
		s.browser.OpenDetails(id)
	}
}

// session returns the chat's session, starting a browser for a new chat.
func (b *Bot) session(ctx context.Context, chatID int64) *session {
	s, created := b.sessions.getOrCreate(chatID, func(s *session) *browse.Browser {
		return b.factory(chatID, func(ev browse.Event) { b.render(chatID, s, ev) })
	})
	if created {
		b.logger.Info("new chat session", slog.Int64("chat_id", chatID))
		s.browser.Start(ctx)
	}
	return s
}

// newResults makes the next rendered list a new message instead of an edit.
func (b *Bot) newResults(s *session) {
	s.mu.Lock()
	s.resultsMsg = 0
	s.mu.Unlock()
}

// render is the browser listener of a chat.
func (b *Bot) render(chatID int64, s *session, ev browse.Event) {
	switch ev.Kind {
	case browse.EventFetchSucceeded, browse.EventFetchFailed, browse.EventErrorDismissed:
		b.renderResults(chatID, s, ev.State)
	case browse.EventFetchStarted:
		typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
		b.api.Request(typing) //nolint:errcheck // best-effort typing indicator
	case browse.EventDetailsLoaded:
		if d := ev.State.Detail.Details; d != nil {
			if _, err := b.sendMarkdown(chatID, renderDetails(d, mdStyle), renderDetails(d, plainStyle), nil); err != nil {
				b.logger.Error("failed to send details", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
			}
		}
	case browse.EventDetailsFailed:
		b.sendText(chatID, detailsErrorMsg)
	}
}

func (b *Bot) renderResults(chatID int64, s *session, st browse.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.takeVersion(st.Version) {
		return
	}

	text := renderResults(st, mdStyle)
	kb := resultsKeyboard(st)
	if s.resultsMsg != 0 {
		err := b.editMarkdown(chatID, s.resultsMsg, text, kb)
		if err == nil {
			return
		}
		b.logger.Warn("failed to edit results, sending new message", slog.String("error", err.Error()))
	}

	id, err := b.sendMarkdown(chatID, text, renderResults(st, plainStyle), kb)
	if err != nil {
		b.logger.Error("failed to send results", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
		return
	}
	s.resultsMsg = id
}
