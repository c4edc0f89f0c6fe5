package tmdb

import "fmt"

// Movie is a list item returned by the popular, search and discover endpoints.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
}

// Year returns the release year, or "" when the date is unknown.
func (m Movie) Year() string {
	return releaseYear(m.ReleaseDate)
}

// MoviePage is one page of list results.
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// MovieDetails is the full record served by /movie/{id}.
type MovieDetails struct {
	ID                  int            `json:"id"`
	Title               string         `json:"title"`
	OriginalTitle       string         `json:"original_title"`
	Overview            string         `json:"overview"`
	Tagline             string         `json:"tagline"`
	ReleaseDate         string         `json:"release_date"`
	Status              string         `json:"status"`
	PosterPath          string         `json:"poster_path"`
	BackdropPath        string         `json:"backdrop_path"`
	Homepage            string         `json:"homepage"`
	IMDbID              string         `json:"imdb_id"`
	VoteAverage         float64        `json:"vote_average"`
	VoteCount           int            `json:"vote_count"`
	Popularity          float64        `json:"popularity"`
	Runtime             int            `json:"runtime"`
	Budget              int64          `json:"budget"`
	Revenue             int64          `json:"revenue"`
	Genres              []Genre        `json:"genres"`
	ProductionCompanies []Company      `json:"production_companies"`
	ProductionCountries []Country      `json:"production_countries"`
	SpokenLanguages     []Language     `json:"spoken_languages"`
	BelongsToCollection *CollectionRef `json:"belongs_to_collection"`
}

// Year returns the release year, or "" when the date is unknown.
func (d MovieDetails) Year() string {
	return releaseYear(d.ReleaseDate)
}

// RuntimeText formats the runtime as "2h 19m".
func (d MovieDetails) RuntimeText() string {
	if d.Runtime <= 0 {
		return ""
	}
	h, m := d.Runtime/60, d.Runtime%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// Genre represents a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Company struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	OriginCountry string `json:"origin_country"`
}

type Country struct {
	ISO3166 string `json:"iso_3166_1"`
	Name    string `json:"name"`
}

type Language struct {
	ISO639      string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
	Name        string `json:"name"`
}

// CollectionRef points at the franchise a movie belongs to.
type CollectionRef struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// Credits is the cast and crew of one movie, cast ordered by billing.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Directors returns the names of crew members credited as Director.
func (c Credits) Directors() []string {
	var names []string
	for _, m := range c.Crew {
		if m.Job == "Director" {
			names = append(names, m.Name)
		}
	}
	return names
}

type genreListResponse struct {
	Genres []Genre `json:"genres"`
}

type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func releaseYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
