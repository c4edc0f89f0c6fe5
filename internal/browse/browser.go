// Package browse coordinates movie discovery: it turns the user's search and
// filter selection into list queries, debounces them, and commits results so
// that a slow, superseded response never overwrites a newer one.
package browse

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vadimtrunov/popcorn/internal/metadata/tmdb"
)

// Catalog is the remote movie metadata source.
type Catalog interface {
	ListMovies(ctx context.Context, endpoint string, params url.Values) (*tmdb.MoviePage, error)
	Genres(ctx context.Context) ([]tmdb.Genre, error)
	GetMovie(ctx context.Context, id int) (*tmdb.MovieDetails, error)
	GetCredits(ctx context.Context, id int) (*tmdb.Credits, error)
}

// PageStore persists the last viewed page number across restarts.
type PageStore interface {
	LoadPage(ctx context.Context) (int, error)
	SavePage(ctx context.Context, page int) error
}

// Option configures a Browser.
type Option func(*Browser)

func WithLogger(l *slog.Logger) Option {
	return func(b *Browser) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithDelayPolicy(p DelayPolicy) Option {
	return func(b *Browser) { b.policy = p }
}

// WithPageStore restores the page on Start and saves it on every change.
func WithPageStore(s PageStore) Option {
	return func(b *Browser) { b.pages = s }
}

func WithListener(l Listener) Option {
	return func(b *Browser) { b.listener = l }
}

// Browser owns the browsing state of one user. All methods are safe for
// concurrent use. List fetches are scheduled through a debounce timer and
// stamped with a monotonic token; a response is committed only if its token is
// still the latest one issued.
type Browser struct {
	catalog  Catalog
	pages    PageStore
	policy   DelayPolicy
	listener Listener
	logger   *slog.Logger
	sched    Scheduler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	state        State
	seq          uint64
	detailSeq    uint64
	genresLoaded bool
	started      bool
	closed       bool
}

// New creates a Browser with default filters. Call Start to begin fetching.
func New(catalog Catalog, opts ...Option) *Browser {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Browser{
		catalog:  catalog,
		policy:   DefaultDelayPolicy(),
		listener: func(Event) {},
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		state: State{
			Filters:    NewFilters(),
			TotalPages: 1,
			Loading:    true,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start restores the saved page, loads genres in the background and issues
// the first list fetch. Calling it again is a no-op.
func (b *Browser) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started || b.closed {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	if page := b.restorePage(ctx); page > 1 {
		b.mu.Lock()
		b.state.Filters.SetPage(page)
		b.mu.Unlock()
	}

	if b.track() {
		go func() {
			defer b.wg.Done()
			_ = b.LoadGenres(b.ctx)
		}()
	}
	b.sched.Schedule(0, b.fetch)
}

// Close stops the debounce timer, cancels in-flight requests and waits for
// background work to finish. No events are emitted afterwards.
func (b *Browser) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.sched.Stop()
	b.cancel()
	b.wg.Wait()
}

// State returns a snapshot of the current state.
func (b *Browser) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// SetSearch changes the search text. Non-blank text clears structured filters.
func (b *Browser) SetSearch(text string) {
	b.update(func(f *Filters) {
		if f.Search != text {
			f.SetSearch(text)
		}
	})
}

// SetYearRange sets or, with nil, removes the release year filter.
func (b *Browser) SetYearRange(r *Range) {
	b.update(func(f *Filters) { f.SetYearRange(r) })
}

func (b *Browser) SetRatingRange(r Range) {
	b.update(func(f *Filters) { f.SetRatingRange(r) })
}

// SetGenres sets the genre id filter. An empty set removes it.
func (b *Browser) SetGenres(ids []string) {
	b.update(func(f *Filters) { f.SetGenres(ids) })
}

func (b *Browser) ClearFilters() {
	b.update(func(f *Filters) { f.ClearFilters() })
}

func (b *Browser) ClearSearch() {
	b.update(func(f *Filters) { f.ClearSearch() })
}

// ClearAll drops the search and every filter in one change, back to the
// popular list.
func (b *Browser) ClearAll() {
	b.update(func(f *Filters) { f.ClearAll() })
}

// SetPage moves to page n, clamped to the known page count. Page changes are
// fetched without delay.
func (b *Browser) SetPage(n int) {
	b.mu.Lock()
	limit := tmdb.MaxPage
	if b.state.Loaded {
		limit = max(b.state.TotalPages, 1)
	}
	b.mu.Unlock()

	b.apply(func(f *Filters) { f.SetPage(min(n, limit)) }, true)
}

// NextPage and PrevPage step through the pagination bar.
func (b *Browser) NextPage() { b.SetPage(b.State().Pager().Next()) }
func (b *Browser) PrevPage() { b.SetPage(b.State().Pager().Prev()) }

// Refresh re-issues the current query immediately. It is the only retry path
// after a failed fetch.
func (b *Browser) Refresh() {
	b.sched.Schedule(0, b.fetch)
}

// DismissError clears the error banner. The current results stay.
func (b *Browser) DismissError() {
	b.mu.Lock()
	if b.state.Err == nil || b.closed {
		b.mu.Unlock()
		return
	}
	b.state.Err = nil
	ev := b.eventLocked(EventErrorDismissed, b.seq)
	b.mu.Unlock()
	b.listener(ev)
}

// LoadGenres fetches the genre list once per Browser. A failure is logged and
// returned, and the next call tries again.
func (b *Browser) LoadGenres(ctx context.Context) error {
	b.mu.Lock()
	if b.genresLoaded {
		b.mu.Unlock()
		return nil
	}
	b.genresLoaded = true
	b.mu.Unlock()

	genres, err := b.catalog.Genres(ctx)

	b.mu.Lock()
	if err != nil {
		b.genresLoaded = false
		b.mu.Unlock()
		b.logger.Warn("failed to load genres", slog.String("error", err.Error()))
		return fmt.Errorf("load genres: %w", err)
	}
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.state.Genres = genres
	ev := b.eventLocked(EventGenresLoaded, b.seq)
	b.mu.Unlock()
	b.listener(ev)
	return nil
}

// OpenDetails opens the details panel for a movie and fetches its record and
// credits concurrently. Opening another movie or closing the panel discards
// the pending result.
func (b *Browser) OpenDetails(id int) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.detailSeq++
	token := b.detailSeq
	b.state.Detail = DetailState{Open: true, ID: id, Loading: true}
	ev := b.eventLocked(EventDetailsStarted, token)
	b.wg.Add(1)
	b.mu.Unlock()
	b.listener(ev)

	go func() {
		defer b.wg.Done()
		b.loadDetails(token, id)
	}()
}

// CloseDetails closes the panel and drops its data.
func (b *Browser) CloseDetails() {
	b.mu.Lock()
	if !b.state.Detail.Open || b.closed {
		b.mu.Unlock()
		return
	}
	b.detailSeq++
	b.state.Detail = DetailState{}
	ev := b.eventLocked(EventDetailsClosed, b.detailSeq)
	b.mu.Unlock()
	b.listener(ev)
}

func (b *Browser) loadDetails(token uint64, id int) {
	var (
		movie   *tmdb.MovieDetails
		credits *tmdb.Credits
	)
	g, ctx := errgroup.WithContext(b.ctx)
	g.Go(func() error {
		var err error
		movie, err = b.catalog.GetMovie(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		credits, err = b.catalog.GetCredits(ctx, id)
		return err
	})
	err := g.Wait()

	b.mu.Lock()
	if b.closed || token != b.detailSeq {
		b.mu.Unlock()
		return
	}
	var ev Event
	if err != nil {
		b.state.Detail.Loading = false
		b.state.Detail.Err = err
		ev = b.eventLocked(EventDetailsFailed, token)
		ev.Err = err
	} else {
		b.state.Detail.Loading = false
		b.state.Detail.Details = NewDetails(movie, credits)
		ev = b.eventLocked(EventDetailsLoaded, token)
	}
	b.mu.Unlock()

	if err != nil {
		b.logger.Warn("failed to load movie details", slog.Int("tmdb_id", id), slog.String("error", err.Error()))
	}
	b.listener(ev)
}

func (b *Browser) update(mutate func(*Filters)) {
	b.apply(mutate, false)
}

// apply mutates the filters and, if the query changed, schedules a fetch.
func (b *Browser) apply(mutate func(*Filters), pageOnly bool) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	before := b.state.Filters.Clone()
	mutate(&b.state.Filters)
	after := b.state.Filters
	if after.Equal(before) {
		b.mu.Unlock()
		return
	}
	delay := time.Duration(0)
	if !pageOnly {
		delay = b.policy.Delay(after)
	}
	// an in-flight response now answers a query nobody is looking at
	b.seq++
	ev := b.eventLocked(EventFiltersChanged, b.seq)
	b.mu.Unlock()

	b.listener(ev)
	if after.Page != before.Page {
		b.savePage(after.Page)
	}
	b.sched.Schedule(delay, b.fetch)
}

// fetch runs one list query. It is the debounce callback.
func (b *Browser) fetch() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.seq++
	token := b.seq
	b.state.Loading = true
	b.state.Err = nil
	req := BuildRequest(b.state.Filters)
	ev := b.eventLocked(EventFetchStarted, token)
	b.wg.Add(1)
	b.mu.Unlock()
	defer b.wg.Done()

	b.listener(ev)

	log := b.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.Uint64("token", token),
		slog.String("kind", req.Kind.String()),
		slog.Int("page", req.Page),
	)
	log.Debug("fetching movies", slog.String("request", req.String()))
	start := time.Now()

	page, err := b.catalog.ListMovies(b.ctx, req.Endpoint(), req.Params())

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if latest := b.seq; token != latest {
		b.mu.Unlock()
		log.Debug("dropping superseded response", slog.Uint64("latest", latest))
		return
	}
	b.state.Loading = false
	if err != nil {
		b.state.Err = err
		ev = b.eventLocked(EventFetchFailed, token)
		ev.Err = err
	} else {
		b.state.Movies = page.Results
		b.state.TotalPages = max(page.TotalPages, 1)
		b.state.Loaded = true
		ev = b.eventLocked(EventFetchSucceeded, token)
		ev.ScrollTop = true
	}
	b.mu.Unlock()

	if err != nil {
		log.Warn("failed to fetch movies", slog.String("error", err.Error()))
	} else {
		log.Info("fetched movies",
			slog.Int("results", len(page.Results)),
			slog.Int("total_pages", page.TotalPages),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
	b.listener(ev)
}

func (b *Browser) restorePage(ctx context.Context) int {
	if b.pages == nil {
		return 1
	}
	page, err := b.pages.LoadPage(ctx)
	if err != nil {
		b.logger.Warn("failed to restore page", slog.String("error", err.Error()))
		return 1
	}
	return min(max(page, 1), tmdb.MaxPage)
}

func (b *Browser) savePage(page int) {
	if b.pages == nil {
		return
	}
	if err := b.pages.SavePage(b.ctx, page); err != nil {
		b.logger.Warn("failed to save page", slog.Int("page", page), slog.String("error", err.Error()))
	}
}

// track registers background work unless the Browser is closed.
func (b *Browser) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.wg.Add(1)
	return true
}

func (b *Browser) eventLocked(kind EventKind, token uint64) Event {
	b.state.Version++
	return Event{Kind: kind, Token: token, State: b.snapshotLocked()}
}

func (b *Browser) snapshotLocked() State {
	s := b.state
	s.Filters = b.state.Filters.Clone()
	return s
}
