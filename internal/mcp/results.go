package mcp

import (
	"github.com/vadimtrunov/popcorn/internal/browse"
	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

type movieResult struct {
	ID        int      `json:"tmdb_id"`
	Title     string   `json:"title"`
	Year      string   `json:"year,omitempty"`
	Rating    float64  `json:"rating"`
	Votes     int      `json:"votes"`
	Genres    []string `json:"genres,omitempty"`
	Overview  string   `json:"overview,omitempty"`
	PosterURL string   `json:"poster_url,omitempty"`
}

type listResult struct {
	Kind       string        `json:"kind"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Pages      []int         `json:"pages"`
	Movies     []movieResult `json:"movies"`
	Empty      string        `json:"empty_message,omitempty"`
}

func newListResult(req browse.Request, st browse.State) listResult {
	out := listResult{
		Kind:       req.Kind.String(),
		Page:       req.Page,
		TotalPages: st.TotalPages,
		Pages:      st.Pager().Pages,
		Movies:     make([]movieResult, 0, len(st.Movies)),
	}
	for _, m := range st.Movies {
		out.Movies = append(out.Movies, movieResult{
			ID:        m.ID,
			Title:     m.Title,
			Year:      m.Year(),
			Rating:    m.VoteAverage,
			Votes:     m.VoteCount,
			Genres:    st.GenreNames(m.GenreIDs),
			Overview:  m.Overview,
			PosterURL: tmdb.PosterURL(m.PosterPath, "w500"),
		})
	}
	if st.IsEmpty() {
		title, msg := st.EmptyMessage()
		out.Empty = title + ". " + msg
	}
	return out
}

type castResult struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Wikipedia string `json:"wikipedia_url"`
}

type detailsResult struct {
	*tmdb.MovieDetails
	RuntimeText string       `json:"runtime_text,omitempty"`
	PosterURL   string       `json:"poster_url,omitempty"`
	BackdropURL string       `json:"backdrop_url,omitempty"`
	Cast        []castResult `json:"cast"`
	Directors   []string     `json:"directors,omitempty"`
}

func newDetailsResult(d *browse.Details) detailsResult {
	m := d.Movie
	out := detailsResult{
		MovieDetails: m,
		RuntimeText:  m.RuntimeText(),
		PosterURL:    tmdb.PosterURL(m.PosterPath, "w500"),
		BackdropURL:  tmdb.BackdropURL(m.BackdropPath, "w1280"),
		Directors:    d.Directors,
		Cast:         make([]castResult, 0, len(d.Cast)),
	}
	for _, c := range d.Cast {
		out.Cast = append(out.Cast, castResult{Name: c.Name, Character: c.Character, Wikipedia: browse.WikipediaURL(c.Name)})
	}
	return out
}
