package terminal

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/bbernstein/busschema/internal/board"
	"github.com/charmbracelet/lipgloss"
)

const clearScreen = "\x1b[H\x1b[2J"

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var namedColors = map[string]string{
	"white": "#ffffff",
	"black": "#000000",
}

// View draws the board on a terminal. Output is buffered in memory and
// written on Flush. Every draw rebuilds the table that maps the ids shown
// next to elements ("s1", "l2", ...) to their targets.
type View struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *lipgloss.Renderer
	clear    bool

	title         string
	query         string
	searchItems   []board.StopItem
	searchMessage string
	loading       string
	errorMessage  string
	rows          []board.DepartureRow
	rowsMessage   string
	lastUpdated   string
	filters       board.FilterInfo
	favorites     []board.StopItem
	favoritesNone string
	button        board.FavoriteButton
	alerts        []string

	targets map[string]board.Target
}

type Option func(*View)

// WithClearScreen clears the terminal before every draw.
func WithClearScreen(clear bool) Option {
	return func(v *View) {
		v.clear = clear
	}
}

func WithRenderer(r *lipgloss.Renderer) Option {
	return func(v *View) {
		v.renderer = r
	}
}

func New(out io.Writer, opts ...Option) *View {
	v := &View{
		out:     out,
		targets: make(map[string]board.Target),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.renderer == nil {
		v.renderer = lipgloss.NewRenderer(out)
	}
	return v
}

// Resolve returns the target drawn under id.
func (v *View) Resolve(id string) (board.Target, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	target, ok := v.targets[strings.ToLower(strings.TrimSpace(id))]
	return target, ok
}

func (v *View) SetTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.title = title
}

func (v *View) SetSearchQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = board.Sanitize(query)
}

func (v *View) ShowSearchResults(items []board.StopItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchItems = items
	v.searchMessage = ""
}

func (v *View) ShowSearchMessage(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchItems = nil
	v.searchMessage = message
}

func (v *View) ClearSearch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchItems = nil
	v.searchMessage = ""
}

func (v *View) SetLoading(loading bool, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if loading {
		v.loading = message
	} else {
		v.loading = ""
	}
}

func (v *View) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errorMessage = message
	v.loading = ""
}

func (v *View) ClearError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errorMessage = ""
}

func (v *View) ShowDepartures(rows []board.DepartureRow) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = rows
	v.rowsMessage = ""
}

func (v *View) ShowDeparturesMessage(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = nil
	v.rowsMessage = message
}

func (v *View) ClearDepartures() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = nil
	v.rowsMessage = ""
}

func (v *View) SetLastUpdated(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastUpdated = text
}

func (v *View) ShowFilterInfo(info board.FilterInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = info
}

func (v *View) ShowFavorites(items []board.StopItem, emptyMessage string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.favorites = items
	v.favoritesNone = emptyMessage
}

func (v *View) SetFavoriteButton(state board.FavoriteButton) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.button = state
}

// Alert is shown once, on the next draw.
func (v *View) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, message)
}

func (v *View) Flush() {
	v.mu.Lock()
	defer v.mu.Unlock()

	frame := v.drawLocked()
	if v.clear {
		frame = clearScreen + frame
	}
	fmt.Fprint(v.out, frame)
	v.alerts = nil
}

func (v *View) style() lipgloss.Style {
	return v.renderer.NewStyle()
}

func (v *View) drawLocked() string {
	targets := make(map[string]board.Target)
	var b strings.Builder

	accent := v.style().Foreground(lipgloss.Color("99")).Bold(true)
	muted := v.style().Foreground(lipgloss.Color("240"))
	errorStyle := v.style().Foreground(lipgloss.Color("196")).Bold(true)
	soonStyle := v.style().Foreground(lipgloss.Color("205")).Bold(true)
	idStyle := v.style().Foreground(lipgloss.Color("244"))

	id := func(key string, t board.Target) string {
		targets[key] = t
		return idStyle.Render("[" + key + "]")
	}

	header := accent.Render(v.title)
	if v.button.Visible {
		header += "  " + v.button.Icon + " " + muted.Render(v.button.Title) + " " + idStyle.Render("[*]")
	}
	b.WriteString(header + "\n")

	if v.query != "" {
		b.WriteString(muted.Render("> "+v.query) + "\n")
	}
	for i, item := range v.searchItems {
		b.WriteString("  " + id(fmt.Sprintf("s%d", i+1), item.Select) + " " + item.Label + "\n")
	}
	if v.searchMessage != "" {
		b.WriteString("  " + muted.Render(v.searchMessage) + "\n")
	}

	b.WriteString("\n")
	if len(v.favorites) == 0 {
		if v.favoritesNone != "" {
			b.WriteString(muted.Render("★ "+v.favoritesNone) + "\n")
		}
	} else {
		var parts []string
		for i, fav := range v.favorites {
			part := id(fmt.Sprintf("f%d", i+1), fav.Select) + " " + fav.Label
			if fav.Delete != nil {
				part += " " + id(fmt.Sprintf("x%d", i+1), *fav.Delete)
			}
			parts = append(parts, part)
		}
		b.WriteString("★ " + strings.Join(parts, "  ") + "\n")
	}

	if len(v.filters.Badges) > 0 {
		var badges []string
		for i, badge := range v.filters.Badges {
			badges = append(badges, id(fmt.Sprintf("h%d", i+1), badge.Target)+" "+v.style().Strikethrough(true).Render(badge.Label))
		}
		b.WriteString(muted.Render(v.filters.Label) + " " + strings.Join(badges, " ") +
			"  " + id("c", v.filters.Clear) + " " + v.filters.Action + "\n")
	}

	b.WriteString("\n")
	if v.loading != "" {
		b.WriteString(muted.Render(v.loading) + "\n")
	}
	if v.errorMessage != "" {
		b.WriteString(errorStyle.Render(v.errorMessage) + "\n")
	}
	if v.rowsMessage != "" {
		b.WriteString("  " + muted.Render(v.rowsMessage) + "\n")
	}

	labelWidth, directionWidth := 0, 0
	for _, row := range v.rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		directionWidth = max(directionWidth, lipgloss.Width(row.Direction))
	}
	for i, row := range v.rows {
		badge := v.style().
			Background(badgeColor(row.Background, board.DefaultBackground)).
			Foreground(badgeColor(row.Foreground, board.DefaultForeground)).
			Bold(true).
			Padding(0, 1).
			Width(labelWidth + 2).
			Align(lipgloss.Center).
			Render(row.Label)

		when := row.Time
		if row.Soon {
			when = soonStyle.Render(when)
		}

		line := fmt.Sprintf("  %s %s %s  %s",
			id(fmt.Sprintf("l%d", i+1), row.Target),
			badge,
			v.style().Width(directionWidth).Render(row.Direction),
			when,
		)
		if row.Platform != "" {
			line += "  " + muted.Render(row.Platform)
		}
		b.WriteString(line + "\n")
	}

	if v.lastUpdated != "" {
		b.WriteString("\n" + muted.Render(v.lastUpdated) + "\n")
	}
	for _, alert := range v.alerts {
		b.WriteString(errorStyle.Render("! "+alert) + "\n")
	}

	v.targets = targets
	return b.String()
}

// badgeColor accepts hex colors and a few names. Anything else falls back.
func badgeColor(value, fallback string) lipgloss.Color {
	value = strings.ToLower(strings.TrimSpace(value))
	if named, ok := namedColors[value]; ok {
		return lipgloss.Color(named)
	}
	if hexColor.MatchString(value) {
		return lipgloss.Color(value)
	}
	if named, ok := namedColors[fallback]; ok {
		return lipgloss.Color(named)
	}
	return lipgloss.Color(fallback)
}
