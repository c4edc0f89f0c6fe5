package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/popcorn/internal/browse"
	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

const (
	maxButtonLabel = 30 // max characters in inline keyboard button label
	ratingBarWidth = 10
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// linkURLReplacer escapes the characters that are special inside (...) of a link.
var linkURLReplacer = strings.NewReplacer(`\`, `\\`, ")", `\)`)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// FormatLink returns a MarkdownV2 inline link.
func FormatLink(text, url string) string {
	return "[" + EscapeMdV2(text) + "](" + linkURLReplacer.Replace(url) + ")"
}

// RatingBar renders a 0-10 vote average as a bar, e.g. "[████████░░] 8.2".
// width is the total number of characters for the bar body.
func RatingBar(vote float64, width int) string {
	if width < 1 {
		width = ratingBarWidth
	}
	filled := min(max(int(vote/10*float64(width)+0.5), 0), width)
	return fmt.Sprintf("[%s%s] %.1f",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		vote,
	)
}

// style is a set of inline formatters. Messages are rendered twice, once as
// MarkdownV2 and once as plain text for when Telegram rejects the markup.
type style struct {
	esc    func(string) string
	bold   func(string) string
	italic func(string) string
	link   func(text, url string) string
}

var (
	mdStyle    = style{esc: EscapeMdV2, bold: FormatBold, italic: FormatItalic, link: FormatLink}
	plainStyle = style{
		esc:    func(s string) string { return s },
		bold:   func(s string) string { return s },
		italic: func(s string) string { return s },
		link:   func(text, url string) string { return text + " (" + url + ")" },
	}
)

// renderResults renders a list state as message text.
func renderResults(st browse.State, s style) string {
	var sb strings.Builder
	sb.WriteString(s.bold(st.Heading()))
	if st.Loaded && st.TotalPages > 1 {
		sb.WriteString("\n" + s.esc(fmt.Sprintf("Page %d of %d", st.Filters.Page, st.TotalPages)))
	}
	sb.WriteString("\n\n")

	switch {
	case st.Err != nil:
		sb.WriteString(s.esc("⚠ " + st.ErrorText()))
		sb.WriteString("\n" + s.esc("Send /refresh to try again."))
		if len(st.Movies) > 0 {
			sb.WriteString("\n\n")
			writeMovies(&sb, st, s)
		}
	case st.IsEmpty():
		title, msg := st.EmptyMessage()
		sb.WriteString(s.bold(title) + "\n" + s.esc(msg))
	case !st.Loaded:
		sb.WriteString(s.esc("Loading..."))
	default:
		writeMovies(&sb, st, s)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeMovies(sb *strings.Builder, st browse.State, s style) {
	for i, m := range st.Movies {
		line := fmt.Sprintf("%d. ", i+1)
		sb.WriteString(s.esc(line) + s.bold(m.Title))
		if y := m.Year(); y != "" {
			sb.WriteString(s.esc(" (" + y + ")"))
		}
		sb.WriteString(s.esc(fmt.Sprintf(" ★ %.1f", m.VoteAverage)))
		if names := st.GenreNames(m.GenreIDs); len(names) > 0 {
			sb.WriteString("\n   " + s.italic(strings.Join(names, ", ")))
		}
		sb.WriteString("\n")
	}
}

// resultsKeyboard builds one button per movie and a pagination row.
// It returns nil when there is nothing to press.
func resultsKeyboard(st browse.State) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range st.Movies {
		label := truncateLabel(m.Title)
		if y := m.Year(); y != "" {
			label += " (" + y + ")"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, movieCallback(m.ID)),
		))
	}
	if row := pagerRow(st.Pager()); row != nil {
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// pagerRow mirrors the pagination bar. Disabled arrows are left out and the
// current page is a no-op button.
func pagerRow(p browse.Pager) []tgbotapi.InlineKeyboardButton {
	if p.Hidden {
		return nil
	}
	var row []tgbotapi.InlineKeyboardButton
	if !p.PrevDisabled {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("‹", pageCallback(p.Prev())))
	}
	for _, n := range p.Pages {
		if n == p.Current {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("· "+strconv.Itoa(n)+" ·", noopCallback))
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(n), pageCallback(n)))
	}
	if !p.NextDisabled {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("›", pageCallback(p.Next())))
	}
	return row
}

func truncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= maxButtonLabel {
		return s
	}
	return string([]rune(s)[:maxButtonLabel]) + "…"
}

// renderDetails renders the details panel.
func renderDetails(d *browse.Details, s style) string {
	m := d.Movie
	var sb strings.Builder

	title := m.Title
	if y := m.Year(); y != "" {
		title += " (" + y + ")"
	}
	sb.WriteString(s.bold(title) + "\n")
	if m.Tagline != "" {
		sb.WriteString(s.italic(m.Tagline) + "\n")
	}
	sb.WriteString("\n")

	field := func(name, value string) {
		if value != "" {
			sb.WriteString(s.bold(name+":") + " " + s.esc(value) + "\n")
		}
	}
	field("Rating", fmt.Sprintf("%s/10 (%d votes)", RatingBar(m.VoteAverage, ratingBarWidth), m.VoteCount))
	field("Released", m.ReleaseDate)
	field("Status", m.Status)
	field("Runtime", m.RuntimeText())
	field("Genres", browse.JoinNames(m.Genres, func(g tmdb.Genre) string { return g.Name }))
	field("Directed by", strings.Join(d.Directors, ", "))
	if m.BelongsToCollection != nil {
		field("Collection", m.BelongsToCollection.Name)
	}
	field("Budget", browse.FormatMoney(m.Budget))
	field("Revenue", browse.FormatMoney(m.Revenue))
	field("Production", browse.JoinNames(m.ProductionCompanies, func(c tmdb.Company) string { return c.Name }))
	field("Countries", browse.JoinNames(m.ProductionCountries, func(c tmdb.Country) string { return c.Name }))
	field("Languages", browse.JoinNames(m.SpokenLanguages, func(l tmdb.Language) string { return l.EnglishName }))

	if m.Overview != "" {
		sb.WriteString("\n" + s.esc(m.Overview) + "\n")
	}

	if len(d.Cast) > 0 {
		sb.WriteString("\n" + s.bold("Cast") + "\n")
		for _, c := range d.Cast {
			line := s.link(c.Name, browse.WikipediaURL(c.Name))
			if c.Character != "" {
				line += s.esc(" as " + c.Character)
			}
			sb.WriteString(s.esc("• ") + line + "\n")
		}
	}

	if poster := tmdb.PosterURL(m.PosterPath, "w500"); poster != "" {
		sb.WriteString("\n" + s.link("Poster", poster) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
