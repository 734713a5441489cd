package board

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bbernstein/busschema/internal/models"
	"github.com/bbernstein/busschema/internal/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/message"
)

const (
	RefreshInterval = 30 * time.Second
	SearchDebounce  = 300 * time.Millisecond
	MinQueryLength  = 2
	DefaultQuery    = "Betaniagatan"
)

// Controller drives the departure board for one session. All methods are
// safe for concurrent use. Network calls run without the lock held and a
// result is applied only if no newer request was started meanwhile.
type Controller struct {
	proxy   Proxy
	store   *store.Store
	view    View
	clock   Clock
	printer *message.Printer
	ctx     context.Context

	debounce *Debouncer

	mu          sync.Mutex
	current     models.Stop
	hasStop     bool
	refresh     Timer
	fetchSeq    uint64
	searchSeq   uint64
	lastPayload *models.DepartureResponse
}

// Flusher is implemented by views that batch output until an operation
// completes.
type Flusher interface {
	Flush()
}

type Option func(*Controller)

func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

func WithPrinter(p *message.Printer) Option {
	return func(c *Controller) {
		c.printer = p
	}
}

// WithContext sets the context used for timer-driven refreshes and
// debounced searches.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		c.ctx = ctx
	}
}

func NewController(proxy Proxy, st *store.Store, view View, opts ...Option) *Controller {
	c := &Controller{
		proxy:   proxy,
		store:   st,
		view:    view,
		clock:   SystemClock(),
		printer: NewPrinter("sv"),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debounce = NewDebouncer(SearchDebounce, c.clock)
	return c
}

// Start renders the favorites and restores the saved stop. Without one it
// searches for defaultQuery.
func (c *Controller) Start(ctx context.Context, defaultQuery string) {
	c.mu.Lock()
	c.view.SetTitle(c.printer.Sprintf(msgDefaultTitle))
	c.renderFavoritesLocked()
	c.updateFavoriteButtonLocked()
	c.mu.Unlock()

	if stop, ok := c.store.SelectedStop(); ok {
		c.SelectStop(ctx, stop)
		return
	}

	c.mu.Lock()
	c.view.SetSearchQuery(defaultQuery)
	c.mu.Unlock()
	c.runSearch(ctx, defaultQuery)
}

// Close stops the refresh timer and any pending search.
func (c *Controller) Close() {
	c.debounce.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRefreshLocked()
}

func (c *Controller) CurrentStop() (models.Stop, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.hasStop
}

// SelectStop makes stop current, persists it, fetches its departures and
// installs the 30 second refresh in place of any earlier one.
func (c *Controller) SelectStop(ctx context.Context, stop models.Stop) {
	if !stop.Valid() {
		return
	}
	c.debounce.Cancel()

	c.mu.Lock()
	c.current = stop
	c.hasStop = true
	c.lastPayload = nil
	// results still in flight belong to the previous selection
	c.fetchSeq++
	c.searchSeq++

	c.view.SetSearchQuery(stop.Name)
	c.view.ClearSearch()
	c.view.SetTitle(c.printer.Sprintf(msgTitle, Sanitize(stop.Name)))
	c.updateFavoriteButtonLocked()

	if !c.store.SaveSelectedStop(stop) {
		log.Warn().Str("gid", stop.GID).Msg("Could not persist selected stop")
	}

	c.stopRefreshLocked()
	c.refresh = c.clock.Every(RefreshInterval, func() {
		c.FetchDepartures(c.ctx)
	})
	c.mu.Unlock()

	c.FetchDepartures(ctx)
}

func (c *Controller) stopRefreshLocked() {
	if c.refresh != nil {
		c.refresh.Stop()
		c.refresh = nil
	}
}

// SearchStops debounces text searches. Queries shorter than two characters
// cancel any pending search and clear the results right away.
func (c *Controller) SearchStops(query string) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		c.debounce.Cancel()
		c.mu.Lock()
		c.searchSeq++
		c.view.ClearSearch()
		c.flushLocked()
		c.mu.Unlock()
		return
	}

	c.debounce.Trigger(func() {
		c.runSearch(c.ctx, query)
	})
}

func (c *Controller) runSearch(ctx context.Context, query string) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return
	}

	c.mu.Lock()
	c.searchSeq++
	seq := c.searchSeq
	c.mu.Unlock()

	results, err := c.proxy.SearchStops(ctx, query)
	c.applySearch(seq, results, err)
}

// SearchNearby lists stops around a coordinate, like a text search.
func (c *Controller) SearchNearby(ctx context.Context, lat, lon float64) {
	c.debounce.Cancel()

	c.mu.Lock()
	c.searchSeq++
	seq := c.searchSeq
	c.mu.Unlock()

	results, err := c.proxy.NearbyStops(ctx, lat, lon)
	c.applySearch(seq, results, err)
}

func (c *Controller) applySearch(seq uint64, results []models.LocationResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.searchSeq {
		log.Debug().Uint64("seq", seq).Msg("Discarding stale search result")
		return
	}

	defer c.flushLocked()

	if err != nil {
		log.Error().Err(err).Msg("Error searching stops")
		c.view.ShowSearchMessage(c.printer.Sprintf(msgSearchFailed))
		return
	}
	if len(results) == 0 {
		c.view.ShowSearchMessage(c.printer.Sprintf(msgNoResults))
		return
	}
	c.view.ShowSearchResults(SearchItems(results))
}

// FetchDepartures reloads the current stop's departures. The list is
// cleared first, so a failed fetch leaves an empty board with an error.
func (c *Controller) FetchDepartures(ctx context.Context) {
	c.mu.Lock()
	if !c.hasStop {
		c.view.ShowError(c.printer.Sprintf(msgSelectStop))
		c.view.SetLoading(false, "")
		c.flushLocked()
		c.mu.Unlock()
		return
	}

	c.fetchSeq++
	seq := c.fetchSeq
	gid := c.current.GID

	c.view.SetLoading(true, c.printer.Sprintf(msgLoading))
	c.view.ClearError()
	c.view.ClearDepartures()
	c.mu.Unlock()

	resp, err := c.proxy.Departures(ctx, gid)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.fetchSeq {
		log.Debug().Str("gid", gid).Uint64("seq", seq).Msg("Discarding stale departures")
		return
	}
	defer c.flushLocked()

	c.view.SetLoading(false, "")
	if err != nil {
		log.Error().Err(err).Str("gid", gid).Msg("Error fetching departures")
		c.view.ShowError(c.printer.Sprintf(msgFetchFailed))
		return
	}

	c.lastPayload = &resp
	c.renderLocked(resp)
	c.view.SetLastUpdated(c.printer.Sprintf(msgUpdated, c.clock.Now().Format(clockLayout)))
}

func (c *Controller) renderLocked(resp models.DepartureResponse) {
	hidden := c.store.HiddenLines(c.current.GID)
	c.view.ShowFilterInfo(Filters(c.printer, hidden))

	board := RenderDepartures(c.printer, resp, hidden, c.clock.Now())
	if board.Dropped > 0 {
		log.Warn().Int("dropped", board.Dropped).Str("gid", c.current.GID).Msg("Dropped invalid departures")
	}
	if board.Empty != EmptyNone {
		c.view.ShowDeparturesMessage(board.Message)
		return
	}
	c.view.ShowDepartures(board.Rows)
}

// ToggleLineFilter hides or shows line at the current stop and re-renders.
func (c *Controller) ToggleLineFilter(ctx context.Context, line string) {
	c.changeFilters(ctx, func(gid string) bool {
		_, ok := c.store.ToggleLine(gid, line)
		return ok
	})
}

// ClearLineFilters shows every line at the current stop again.
func (c *Controller) ClearLineFilters(ctx context.Context) {
	c.changeFilters(ctx, c.store.ClearLines)
}

// changeFilters re-renders the departures already held. Only when nothing
// has been fetched yet does it fetch.
func (c *Controller) changeFilters(ctx context.Context, change func(gid string) bool) {
	c.mu.Lock()
	if !c.hasStop {
		c.view.ShowError(c.printer.Sprintf(msgSelectStop))
		c.flushLocked()
		c.mu.Unlock()
		return
	}

	if !change(c.current.GID) {
		log.Warn().Str("gid", c.current.GID).Msg("Could not persist line filters")
	}

	if c.lastPayload != nil {
		c.renderLocked(*c.lastPayload)
		c.flushLocked()
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.FetchDepartures(ctx)
}

// AddFavorite toggles the current stop in the favorites.
func (c *Controller) AddFavorite() {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flushLocked()

	if !c.hasStop {
		c.view.Alert(c.printer.Sprintf(msgSelectStopAlert))
		return
	}

	if _, err := c.store.AddFavorite(c.current); err != nil {
		if errors.Is(err, store.ErrFavoritesFull) {
			c.view.Alert(c.printer.Sprintf(msgFavoritesFull))
			return
		}
		log.Warn().Err(err).Str("gid", c.current.GID).Msg("Could not update favorites")
	}

	c.updateFavoriteButtonLocked()
	c.renderFavoritesLocked()
}

func (c *Controller) RemoveFavorite(gid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flushLocked()

	if !c.store.RemoveFavorite(gid) {
		log.Warn().Str("gid", gid).Msg("Could not update favorites")
	}

	c.updateFavoriteButtonLocked()
	c.renderFavoritesLocked()
}

func (c *Controller) flushLocked() {
	if f, ok := c.view.(Flusher); ok {
		f.Flush()
	}
}

func (c *Controller) updateFavoriteButtonLocked() {
	favorite := c.hasStop && c.store.IsFavorite(c.current.GID)
	c.view.SetFavoriteButton(FavoriteButtonState(c.printer, c.hasStop, favorite))
}

func (c *Controller) renderFavoritesLocked() {
	c.view.ShowFavorites(FavoriteItems(c.printer, c.store.Favorites()), c.printer.Sprintf(msgNoFavorites))
}

// Dispatch handles input on any rendered element. Targets missing the data
// their kind needs are ignored.
func (c *Controller) Dispatch(ctx context.Context, target Target) {
	switch target.Kind {
	case TargetSearchResult, TargetFavorite:
		if target.GID != "" && target.Name != "" {
			c.SelectStop(ctx, models.Stop{GID: target.GID, Name: target.Name})
		}
	case TargetFavoriteDelete:
		if target.GID != "" {
			c.RemoveFavorite(target.GID)
		}
	case TargetLineBadge, TargetFilterBadge:
		if target.Line != "" {
			c.ToggleLineFilter(ctx, target.Line)
		}
	case TargetClearFilters:
		c.ClearLineFilters(ctx)
	default:
		log.Debug().Stringer("kind", target.Kind).Msg("Ignoring unknown target")
	}
}
