package browse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

// ResolveGenres maps user input (genre ids or case-insensitive names) to the
// id strings used by the genre filter.
func ResolveGenres(known []tmdb.Genre, inputs []string) ([]string, error) {
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		id, ok := lookupGenre(known, in)
		if !ok {
			return nil, fmt.Errorf("unknown genre %q", in)
		}
		ids = append(ids, strconv.Itoa(id))
	}
	return ids, nil
}

func lookupGenre(known []tmdb.Genre, in string) (int, bool) {
	if n, err := strconv.Atoi(in); err == nil {
		if len(known) == 0 {
			return n, true
		}
		for _, g := range known {
			if g.ID == n {
				return n, true
			}
		}
		return 0, false
	}
	for _, g := range known {
		if strings.EqualFold(g.Name, in) {
			return g.ID, true
		}
	}
	return 0, false
}

// SplitList splits "Action, Science Fiction" into trimmed, non-empty parts.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseRange parses "1990-1999", "1990-", "-1999" or "1999" into a Range.
// A single value yields Min == Max.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("empty range")
	}
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Range{}, fmt.Errorf("invalid range %q", s)
		}
		return Range{Min: n, Max: n}, nil
	}
	var r Range
	var err error
	if lo = strings.TrimSpace(lo); lo != "" {
		if r.Min, err = strconv.Atoi(lo); err != nil {
			return Range{}, fmt.Errorf("invalid range start %q", lo)
		}
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		if r.Max, err = strconv.Atoi(hi); err != nil {
			return Range{}, fmt.Errorf("invalid range end %q", hi)
		}
	}
	if r.Min == 0 && r.Max == 0 {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}
	return r, nil
}
