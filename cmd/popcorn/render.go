package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/popcorn/internal/browse"
	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

// renderList draws a full page of results for one-shot commands.
func renderList(st browse.State) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(st.Heading()))
	sb.WriteString("\n")
	if banner := renderBanner(st); banner != "" {
		sb.WriteString(banner + "\n\n")
	}
	sb.WriteString(renderMovies(st, -1))
	if bar := renderPager(st.Pager()); bar != "" {
		sb.WriteString("\n\n" + bar)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderBanner is the error banner, or "" when the last fetch succeeded.
func renderBanner(st browse.State) string {
	if msg := st.ErrorText(); msg != "" {
		return styleError.Render("⚠ " + msg)
	}
	return ""
}

// renderMovies draws one line per movie, or the empty state. cursor is the
// highlighted row, or -1 for none.
func renderMovies(st browse.State, cursor int) string {
	if st.IsEmpty() {
		title, msg := st.EmptyMessage()
		return styleTitle.Render(title) + "\n" + styleDim.Render(msg)
	}
	lines := make([]string, 0, len(st.Movies))
	for i, m := range st.Movies {
		lines = append(lines, renderMovieLine(st, i, m, i == cursor))
	}
	return strings.Join(lines, "\n")
}

func renderMovieLine(st browse.State, i int, m tmdb.Movie, selected bool) string {
	marker := "  "
	title := styleTitle.Render(m.Title)
	if selected {
		marker = styleSelected.Render("▸ ")
		title = styleSelected.Render(m.Title)
	}

	line := fmt.Sprintf("%s%2d. %s", marker, i+1, title)
	if y := m.Year(); y != "" {
		line += styleDim.Render(" (" + y + ")")
	}
	line += " " + styleRating.Render(fmt.Sprintf("★ %.1f", m.VoteAverage))
	if names := st.GenreNames(m.GenreIDs); len(names) > 0 {
		line += "  " + styleDim.Render(strings.Join(names, ", "))
	}
	return line
}

// renderPager draws the pagination bar, or "" when it is hidden.
func renderPager(p browse.Pager) string {
	if p.Hidden {
		return ""
	}
	parts := make([]string, 0, len(p.Pages)+2)
	prev := "‹ prev"
	if p.PrevDisabled {
		prev = styleDim.Render(prev)
	}
	parts = append(parts, prev)
	for _, n := range p.Pages {
		label := strconv.Itoa(n)
		if n == p.Current {
			label = styleSelected.Render("[" + label + "]")
		}
		parts = append(parts, label)
	}
	next := "next ›"
	if p.NextDisabled {
		next = styleDim.Render(next)
	}
	parts = append(parts, next)
	return strings.Join(parts, " ") + styleDim.Render(fmt.Sprintf("  page %d of %d", p.Current, p.Total))
}

// renderDetails draws the details drawer. width wraps the overview when positive.
func renderDetails(d *browse.Details, width int) string {
	m := d.Movie
	var sb strings.Builder

	title := m.Title
	if y := m.Year(); y != "" {
		title += " (" + y + ")"
	}
	sb.WriteString(styleHeader.Render(title) + "\n")
	if m.Tagline != "" {
		sb.WriteString(styleDim.Render(m.Tagline) + "\n\n")
	}

	field := func(name, value string) {
		if value != "" {
			sb.WriteString(styleInfo.Render(fmt.Sprintf("%-12s", name)) + value + "\n")
		}
	}
	field("Rating", styleRating.Render(fmt.Sprintf("★ %.1f", m.VoteAverage))+fmt.Sprintf(" (%d votes)", m.VoteCount))
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
	field("Homepage", m.Homepage)
	field("Poster", tmdb.PosterURL(m.PosterPath, "w500"))

	if m.Overview != "" {
		overview := m.Overview
		if width > 0 {
			overview = lipgloss.NewStyle().Width(width).Render(overview)
		}
		sb.WriteString("\n" + overview + "\n")
	}

	if len(d.Cast) > 0 {
		sb.WriteString("\n" + styleTitle.Render("Cast") + "\n")
		for _, c := range d.Cast {
			line := "  " + c.Name
			if c.Character != "" {
				line += styleDim.Render(" as " + c.Character)
			}
			sb.WriteString(line + "\n    " + styleDim.Render(browse.WikipediaURL(c.Name)) + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
