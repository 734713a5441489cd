package board

import (
	"context"
	"sync"
	"time"

	"github.com/bbernstein/busschema/internal/models"
)

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	every   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	active := !t.stopped
	t.stopped = true
	return active
}

// fakeClock only moves when Advance is called. Due callbacks run on the
// calling goroutine, without the clock's lock held.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.add(d, 0, f)
}

func (c *fakeClock) Every(d time.Duration, f func()) Timer {
	return c.add(d, d, f)
}

func (c *fakeClock) add(d, every time.Duration, f func()) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, when: c.now.Add(d), every: every, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		next := c.nextDue(target)
		if next == nil {
			break
		}
		c.now = next.when
		if next.every > 0 {
			next.when = next.when.Add(next.every)
		} else {
			next.stopped = true
		}
		c.mu.Unlock()
		next.fn()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (c *fakeClock) nextDue(target time.Time) *fakeTimer {
	var next *fakeTimer
	for _, t := range c.timers {
		if t.stopped || t.when.After(target) {
			continue
		}
		if next == nil || t.when.Before(next.when) {
			next = t
		}
	}
	return next
}

// activePeriodic counts periodic timers that have not been stopped.
func (c *fakeClock) activePeriodic() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if t.every > 0 && !t.stopped {
			n++
		}
	}
	return n
}

type fakeProxy struct {
	mu sync.Mutex

	searchFunc     func(ctx context.Context, query string) ([]models.LocationResult, error)
	nearbyFunc     func(ctx context.Context, lat, lon float64) ([]models.LocationResult, error)
	departuresFunc func(ctx context.Context, gid string) (models.DepartureResponse, error)

	searches   []string
	departures []string
}

func (p *fakeProxy) SearchStops(ctx context.Context, query string) ([]models.LocationResult, error) {
	p.mu.Lock()
	p.searches = append(p.searches, query)
	fn := p.searchFunc
	p.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, query)
}

func (p *fakeProxy) NearbyStops(ctx context.Context, lat, lon float64) ([]models.LocationResult, error) {
	if p.nearbyFunc == nil {
		return nil, nil
	}
	return p.nearbyFunc(ctx, lat, lon)
}

func (p *fakeProxy) Departures(ctx context.Context, gid string) (models.DepartureResponse, error) {
	p.mu.Lock()
	p.departures = append(p.departures, gid)
	fn := p.departuresFunc
	p.mu.Unlock()

	if fn == nil {
		return models.DepartureResponse{}, nil
	}
	return fn(ctx, gid)
}

func (p *fakeProxy) searchCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.searches...)
}

func (p *fakeProxy) departureCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.departures...)
}

// recordingView keeps the latest state of every view element.
type recordingView struct {
	mu sync.Mutex

	title         string
	query         string
	searchItems   []StopItem
	searchMessage string
	loading       bool
	errorMessage  string
	rows          []DepartureRow
	rowsMessage   string
	lastUpdated   string
	filters       FilterInfo
	favorites     []StopItem
	favoritesNone string
	button        FavoriteButton
	alerts        []string
	renders       int
	flushes       int
}

func (v *recordingView) Flush() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flushes++
}

func (v *recordingView) SetTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.title = title
}

func (v *recordingView) SetSearchQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = query
}

func (v *recordingView) ShowSearchResults(items []StopItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchItems = items
	v.searchMessage = ""
}

func (v *recordingView) ShowSearchMessage(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchItems = nil
	v.searchMessage = message
}

func (v *recordingView) ClearSearch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchItems = nil
	v.searchMessage = ""
}

func (v *recordingView) SetLoading(loading bool, _ string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = loading
}

func (v *recordingView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errorMessage = message
}

func (v *recordingView) ClearError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errorMessage = ""
}

func (v *recordingView) ShowDepartures(rows []DepartureRow) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = rows
	v.rowsMessage = ""
	v.renders++
}

func (v *recordingView) ShowDeparturesMessage(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = nil
	v.rowsMessage = message
	v.renders++
}

func (v *recordingView) ClearDepartures() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = nil
	v.rowsMessage = ""
}

func (v *recordingView) SetLastUpdated(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastUpdated = text
}

func (v *recordingView) ShowFilterInfo(info FilterInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = info
}

func (v *recordingView) ShowFavorites(items []StopItem, emptyMessage string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.favorites = items
	v.favoritesNone = emptyMessage
}

func (v *recordingView) SetFavoriteButton(state FavoriteButton) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.button = state
}

func (v *recordingView) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, message)
}

func (v *recordingView) rowLabels() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	labels := make([]string, 0, len(v.rows))
	for _, row := range v.rows {
		labels = append(labels, row.Label)
	}
	return labels
}
