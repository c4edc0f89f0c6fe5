package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/popcorn/internal/browse"
	"github.com/vadimtrunov/popcorn/internal/config"
)

// newBrowseCmd returns the "browse" subcommand for the interactive browser.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive movie browser",
		Long: "Browse popular movies, search by title or filter by year, rating and genre.\n" +
			"The key bindings are shown at the bottom of the screen.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd)
		},
	}
}

// runBrowse initializes services and starts the Bubble Tea browser. Logs go
// to a file so they never mix with the screen.
func runBrowse(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, err := config.OpenLogFile(cfg.App.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	logger := config.SetupLogger(cfg.App.LogLevel, logFile)

	svc, err := initServices(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, br := newBrowseProgram(ctx, svc.catalog, []browse.Option{
		browse.WithLogger(logger),
		browse.WithDelayPolicy(svc.delayPolicy()),
		browse.WithPageStore(svc.pageStore("")),
	}, tea.WithAltScreen())
	defer br.Close()

	br.Start(ctx)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// newBrowseProgram wires a Browser to a Bubble Tea program. Mutators call
// the listener on the caller's goroutine, which is often the event loop
// itself, so events are sent from a separate goroutine. Late sends return
// once the program has exited, and handleEvent drops reordered snapshots.
func newBrowseProgram(ctx context.Context, catalog browse.Catalog, opts []browse.Option, progOpts ...tea.ProgramOption) (*tea.Program, *browse.Browser) {
	var p *tea.Program
	listener := func(ev browse.Event) {
		go p.Send(browseEventMsg{ev: ev})
	}
	br := browse.New(catalog, append(opts, browse.WithListener(listener))...)
	p = tea.NewProgram(newBrowseModel(br), append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)...)
	return p, br
}

// browseEventMsg carries a Browser event into the Bubble Tea loop.
type browseEventMsg struct {
	ev browse.Event
}

// inputMode is what the text input is currently editing.
type inputMode int

const (
	modeList inputMode = iota
	modeSearch
	modeYear
	modeRating
	modeGenre
)

var modePrompts = map[inputMode]string{
	modeSearch: "Search: ",
	modeYear:   "Years (1999, 1990-1999, 1990-, -1999; empty clears): ",
	modeRating: "Rating (7 or 6-9; empty clears): ",
	modeGenre:  "Genres (names or ids, comma separated; empty clears): ",
}

const (
	fixedLines = 6 // title, filter bar, banner, pager, status, help
	helpLine   = "/ search  y year  r rating  g genre  c clear filters  x clear search  ←/→ page  ↑/↓ move  enter details  R refresh  q quit"
	drawerHelp = "↑/↓ scroll  esc close  q quit"
)

// browseModel is the Bubble Tea model of the interactive browser.
type browseModel struct {
	browser   *browse.Browser
	st        browse.State
	list      viewport.Model
	drawer    viewport.Model
	textinput textinput.Model
	spinner   spinner.Model
	mode      inputMode
	cursor    int
	notice    string
	spinning  bool
	width     int
	height    int
	ready     bool
}

// newBrowseModel creates a browseModel over br.
func newBrowseModel(br *browse.Browser) browseModel {
	ti := textinput.New()
	ti.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		browser:   br,
		st:        br.State(),
		textinput: ti,
		spinner:   s,
		spinning:  true,
	}
}

// Init starts the spinner; the first page is already loading.
func (m browseModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles Browser events, resizes and key presses.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case browseEventMsg:
		cmd := m.handleEvent(msg.ev)
		return m, cmd

	case spinner.TickMsg:
		if !m.st.Loading && !m.st.Detail.Loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.spinning = true
		return m, cmd

	case tea.KeyMsg:
		if m.mode != modeList {
			return m.handleInputKey(msg)
		}
		if m.st.Detail.Open {
			return m.handleDrawerKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

// handleResize adjusts both viewports and the text input.
func (m *browseModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	vpHeight := max(m.height-fixedLines, 1)
	if !m.ready {
		m.list = viewport.New(m.width, vpHeight)
		m.drawer = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.list.Width, m.list.Height = m.width, vpHeight
		m.drawer.Width, m.drawer.Height = m.width, vpHeight
	}
	m.textinput.Width = max(m.width-len(modePrompts[modeYear])-2, 10)
	m.refreshList()
	m.refreshDrawer()
}

// handleEvent stores the newest snapshot and keeps the views in sync.
func (m *browseModel) handleEvent(ev browse.Event) tea.Cmd {
	if ev.State.Version < m.st.Version {
		return nil
	}
	m.st = ev.State
	if ev.ScrollTop {
		m.cursor = 0
		if m.ready {
			m.list.GotoTop()
		}
	}
	m.cursor = min(m.cursor, max(len(m.st.Movies)-1, 0))

	switch ev.Kind {
	case browse.EventDetailsStarted, browse.EventDetailsLoaded, browse.EventDetailsFailed:
		m.refreshDrawer()
		if m.ready && ev.Kind == browse.EventDetailsStarted {
			m.drawer.GotoTop()
		}
	}
	m.refreshList()

	if (m.st.Loading || m.st.Detail.Loading) && !m.spinning {
		m.spinning = true
		return m.spinner.Tick
	}
	return nil
}

func (m *browseModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch msg.String() {
	case "ctrl+c", "q":
		return *m, tea.Quit
	case "/":
		return m.startInput(modeSearch, m.st.Filters.Search)
	case "y":
		return m.startInput(modeYear, "")
	case "r":
		return m.startInput(modeRating, "")
	case "g":
		model, cmd := m.startInput(modeGenre, "")
		if len(m.st.Genres) == 0 {
			cmd = tea.Batch(cmd, m.loadGenres())
		}
		return model, cmd
	case "c":
		m.browser.ClearFilters()
	case "x":
		m.browser.ClearSearch()
	case "left", "h":
		m.browser.PrevPage()
	case "right", "l":
		m.browser.NextPage()
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		if m.cursor < len(m.st.Movies) {
			m.browser.OpenDetails(m.st.Movies[m.cursor].ID)
		}
	case "esc":
		m.browser.DismissError()
	case "R":
		m.browser.Refresh()
	}
	return *m, nil
}

func (m *browseModel) handleDrawerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return *m, tea.Quit
	case "esc", "backspace":
		m.browser.CloseDetails()
		return *m, nil
	}
	var cmd tea.Cmd
	m.drawer, cmd = m.drawer.Update(msg)
	return *m, cmd
}

// handleInputKey edits the search or a filter. Search text is applied on
// every keystroke so the debounce decides when to fetch; the other filters
// are applied on enter.
func (m *browseModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return *m, tea.Quit
	case "esc":
		m.stopInput()
		return *m, nil
	case "enter":
		if m.mode != modeSearch {
			m.notice = m.applyFilterInput(strings.TrimSpace(m.textinput.Value()))
		}
		m.stopInput()
		return *m, nil
	}

	var cmd tea.Cmd
	before := m.textinput.Value()
	m.textinput, cmd = m.textinput.Update(msg)
	if m.mode == modeSearch && m.textinput.Value() != before {
		m.browser.SetSearch(m.textinput.Value())
	}
	return *m, cmd
}

// applyFilterInput applies the year, rating or genre input and returns a
// notice for invalid values.
func (m *browseModel) applyFilterInput(value string) string {
	switch m.mode {
	case modeYear:
		if value == "" {
			m.browser.SetYearRange(nil)
			return ""
		}
		r, err := browse.ParseRange(value)
		if err != nil {
			return err.Error()
		}
		m.browser.SetYearRange(&r)
	case modeRating:
		if value == "" {
			m.browser.SetRatingRange(browse.DefaultRatingRange)
			return ""
		}
		r, err := browse.ParseRange(value)
		if err != nil {
			return err.Error()
		}
		if r.Min == r.Max || r.Max == 0 {
			r.Max = browse.MaxRating
		}
		if r.Min == 0 {
			r.Min = browse.MinRating
		}
		m.browser.SetRatingRange(r)
	case modeGenre:
		if value == "" {
			m.browser.SetGenres(nil)
			return ""
		}
		ids, err := browse.ResolveGenres(m.st.Genres, browse.SplitList(value))
		if err != nil {
			return err.Error()
		}
		m.browser.SetGenres(ids)
	}
	return ""
}

func (m *browseModel) startInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.textinput.Prompt = modePrompts[mode]
	m.textinput.SetValue(value)
	m.textinput.CursorEnd()
	return *m, m.textinput.Focus()
}

// loadGenres retries the genre list after a failed start-up load. The result
// arrives as a Browser event.
func (m *browseModel) loadGenres() tea.Cmd {
	br := m.browser
	return func() tea.Msg {
		_ = br.LoadGenres(context.Background())
		return nil
	}
}

func (m *browseModel) stopInput() {
	m.mode = modeList
	m.textinput.Blur()
	m.textinput.SetValue("")
}

func (m *browseModel) moveCursor(delta int) {
	if len(m.st.Movies) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.st.Movies)-1)
	m.refreshList()
	if !m.ready {
		return
	}
	switch {
	case m.cursor < m.list.YOffset:
		m.list.SetYOffset(m.cursor)
	case m.cursor >= m.list.YOffset+m.list.Height:
		m.list.SetYOffset(m.cursor - m.list.Height + 1)
	}
}

func (m *browseModel) refreshList() {
	if m.ready {
		m.list.SetContent(renderMovies(m.st, m.cursor))
	}
}

func (m *browseModel) refreshDrawer() {
	if !m.ready {
		return
	}
	d := m.st.Detail
	switch {
	case d.Loading:
		m.drawer.SetContent(styleDim.Render("Loading details..."))
	case d.Err != nil:
		m.drawer.SetContent(styleError.Render("Failed to load movie details: " + d.Err.Error()))
	case d.Details != nil:
		m.drawer.SetContent(renderDetails(d.Details, m.width-2))
	}
}

// View renders the browser.
func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).Render("popcorn") +
		styleDim.Render(" · ") + styleTitle.Render(m.st.Heading())

	body, help := m.list.View(), helpLine
	if m.st.Detail.Open {
		body, help = m.drawer.View(), drawerHelp
	} else if !m.st.Loaded && m.st.Err == nil {
		body = lipgloss.NewStyle().Height(m.list.Height).Render("")
	}

	var status string
	switch {
	case m.mode != modeList:
		status = m.textinput.View()
	case m.st.Loading || m.st.Detail.Loading:
		status = m.spinner.View() + styleDim.Render(" Loading...")
	case m.notice != "":
		status = styleError.Render(m.notice)
	}

	return strings.Join([]string{
		title,
		styleDim.Render(filterBar(m.st)),
		renderBanner(m.st),
		body,
		renderPager(m.st.Pager()),
		status,
		styleDim.Render(help),
	}, "\n")
}

// filterBar summarizes the search and every filter, including defaults.
func filterBar(st browse.State) string {
	f := st.Filters
	search := "-"
	if f.HasSearch() {
		search = fmt.Sprintf("%q", strings.TrimSpace(f.Search))
	}
	years := "any"
	if y := f.Years; y != nil {
		years = fmt.Sprintf("%s-%s", yearText(y.Min), yearText(y.Max))
	}
	genres := "any"
	if f.HasGenreFilter() {
		names := make([]string, 0, len(f.Genres))
		for _, g := range f.Genres {
			names = append(names, genreText(st, g))
		}
		genres = strings.Join(names, ", ")
	}
	return fmt.Sprintf("search: %s | years: %s | rating: %d-%d | genres: %s",
		search, years, f.Rating.Min, f.Rating.Max, genres)
}

func yearText(y int) string {
	if y == 0 {
		return "…"
	}
	return strconv.Itoa(y)
}

func genreText(st browse.State, id string) string {
	n, err := strconv.Atoi(id)
	if err != nil {
		return id
	}
	return st.GenreName(n)
}
