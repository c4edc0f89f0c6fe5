package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/popcorn/internal/browse"
	"github.com/vadimtrunov/popcorn/internal/config"
	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

func newPopularCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List popular movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := browse.NewFilters()
			f.SetPage(page)
			return runList(cmd, func(context.Context, []tmdb.Genre) (browse.Filters, error) { return f, nil })
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:     "search [title]",
		Short:   "Search movies by title",
		Example: `  popcorn search "the matrix"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := browse.NewFilters()
			f.SetSearch(strings.Join(args, " "))
			if !f.HasSearch() {
				return fmt.Errorf("search needs a title")
			}
			f.SetPage(page)
			return runList(cmd, func(context.Context, []tmdb.Genre) (browse.Filters, error) { return f, nil })
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

// discoverFlags are the structured filters of the discover command.
type discoverFlags struct {
	year      string
	from, to  int
	minRating int
	maxRating int
	genres    []string
	page      int
}

func newDiscoverCmd() *cobra.Command {
	var df discoverFlags
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Browse movies by year, rating and genre",
		Example: `  popcorn discover --year 1990-1999 --min-rating 7
  popcorn discover --genre Action --genre Comedy --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, df.filters)
		},
	}
	cmd.Flags().StringVar(&df.year, "year", "", "release year or range, e.g. 1999 or 1990-1999")
	cmd.Flags().IntVar(&df.from, "from", 0, "earliest release year")
	cmd.Flags().IntVar(&df.to, "to", 0, "latest release year")
	cmd.Flags().IntVar(&df.minRating, "min-rating", 0, "minimum rating (1-10)")
	cmd.Flags().IntVar(&df.maxRating, "max-rating", 0, "maximum rating (1-10), shown but not sent")
	cmd.Flags().StringSliceVarP(&df.genres, "genre", "g", nil, "genre name or id (repeatable)")
	cmd.Flags().IntVarP(&df.page, "page", "p", 1, "page number")
	cmd.MarkFlagsMutuallyExclusive("year", "from")
	cmd.MarkFlagsMutuallyExclusive("year", "to")
	return cmd
}

// filters applies the flags through the same mutators as the browser.
// The page is set last because every content mutation resets it.
func (df discoverFlags) filters(_ context.Context, known []tmdb.Genre) (browse.Filters, error) {
	f := browse.NewFilters()
	switch {
	case df.year != "":
		r, err := browse.ParseRange(df.year)
		if err != nil {
			return f, err
		}
		f.SetYearRange(&r)
	case df.from != 0 || df.to != 0:
		f.SetYearRange(&browse.Range{Min: df.from, Max: df.to})
	}
	if df.minRating != 0 || df.maxRating != 0 {
		r := browse.DefaultRatingRange
		if df.minRating != 0 {
			r.Min = df.minRating
		}
		if df.maxRating != 0 {
			r.Max = df.maxRating
		}
		f.SetRatingRange(r)
	}
	if len(df.genres) > 0 {
		ids, err := browse.ResolveGenres(known, df.genres)
		if err != nil {
			return f, err
		}
		f.SetGenres(ids)
	}
	if !f.HasStructured() {
		return f, fmt.Errorf("discover needs at least one of --year, --from, --to, --min-rating, --max-rating, --genre")
	}
	f.SetPage(df.page)
	return f, nil
}

func newMovieCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "movie [tmdb-id]",
		Short:   "Show details and cast of a movie",
		Example: "  popcorn movie 603",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid movie id %q", args[0])
			}
			return runFetch(cmd, func(ctx context.Context, svc *services) (string, error) {
				movie, err := svc.catalog.GetMovie(ctx, id)
				if err != nil {
					return "", fmt.Errorf("get movie: %w", err)
				}
				credits, err := svc.catalog.GetCredits(ctx, id)
				if err != nil {
					return "", fmt.Errorf("get credits: %w", err)
				}
				return renderDetails(browse.NewDetails(movie, credits), 0), nil
			})
		},
	}
}

func newGenresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List movie genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, func(ctx context.Context, svc *services) (string, error) {
				genres, err := svc.catalog.Genres(ctx)
				if err != nil {
					return "", fmt.Errorf("list genres: %w", err)
				}
				var sb strings.Builder
				for _, g := range genres {
					fmt.Fprintf(&sb, "%s %s\n", styleDim.Render(fmt.Sprintf("%6d", g.ID)), g.Name)
				}
				return strings.TrimRight(sb.String(), "\n"), nil
			})
		},
	}
}

// filtersFunc builds the filter selection once the genre list is known.
type filtersFunc func(ctx context.Context, genres []tmdb.Genre) (browse.Filters, error)

// runList builds a list request from the filters and prints one page.
func runList(cmd *cobra.Command, build filtersFunc) error {
	return runFetch(cmd, func(ctx context.Context, svc *services) (string, error) {
		return fetchList(ctx, svc.catalog, build, svc.logger.Warn)
	})
}

// fetchList resolves genres, runs the query and renders the page. A genre
// list failure only degrades names to ids.
func fetchList(ctx context.Context, catalog browse.Catalog, build filtersFunc, warn func(string, ...any)) (string, error) {
	genres, err := catalog.Genres(ctx)
	if err != nil {
		warn("failed to load genres", "error", err.Error())
	}
	f, err := build(ctx, genres)
	if err != nil {
		return "", err
	}

	req := browse.BuildRequest(f)
	page, err := catalog.ListMovies(ctx, req.Endpoint(), req.Params())
	if err != nil {
		return "", errors.New(browse.FetchErrorText(err))
	}
	st := browse.State{
		Filters:    f,
		Movies:     page.Results,
		TotalPages: max(page.TotalPages, 1),
		Loaded:     true,
		Genres:     genres,
	}
	return renderList(st), nil
}

// fetchFunc does the work of a one-shot command and returns its output.
type fetchFunc func(ctx context.Context, svc *services) (string, error)

// runFetch initializes services and runs fn behind a spinner.
func runFetch(cmd *cobra.Command, fn fetchFunc) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel, cmd.ErrOrStderr())
	svc, err := initServices(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	p := tea.NewProgram(newFetchModel(ctx, svc, fn),
		tea.WithContext(ctx),
		tea.WithOutput(cmd.ErrOrStderr()),
		tea.WithInput(nil),
	)
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run fetch: %w", err)
	}

	fm, ok := m.(fetchModel)
	if !ok {
		return fmt.Errorf("unexpected model type from tea program")
	}
	if fm.err != nil {
		return fm.err
	}
	_, err = io.WriteString(out, fm.output+"\n")
	return err
}

// fetchDoneMsg carries the command output back to the TUI.
type fetchDoneMsg struct {
	output string
	err    error
}

type fetchModel struct {
	ctx     context.Context
	svc     *services
	fn      fetchFunc
	spinner spinner.Model
	output  string
	err     error
	done    bool
}

func newFetchModel(ctx context.Context, svc *services, fn fetchFunc) fetchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return fetchModel{
		ctx:     ctx,
		svc:     svc,
		fn:      fn,
		spinner: s,
	}
}

func (m fetchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run())
}

func (m fetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = context.Canceled
			return m, tea.Quit
		}
	case fetchDoneMsg:
		m.output = msg.output
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View draws only the spinner. The result is printed to stdout after the
// program exits so it can be piped.
func (m fetchModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + styleDim.Render(" Fetching...") + "\n"
}

func (m fetchModel) run() tea.Cmd {
	return func() tea.Msg {
		out, err := m.fn(m.ctx, m.svc)
		return fetchDoneMsg{output: out, err: err}
	}
}
