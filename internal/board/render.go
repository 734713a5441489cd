package board

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/bbernstein/busschema/internal/models"
	"golang.org/x/text/message"
)

const (
	DefaultBackground = "#1a73b5"
	DefaultForeground = "white"

	// SoonMinutes marks departures at or under this many minutes away
	SoonMinutes = 5
	// MaxSearchResults caps the rendered search results
	MaxSearchResults = 5
	relativeMinutes  = 10
	clockLayout      = "15:04"
)

type EmptyState int

const (
	EmptyNone EmptyState = iota
	// EmptyNoDepartures means upstream returned nothing
	EmptyNoDepartures
	// EmptyNoValid means upstream returned entries but none were usable
	EmptyNoValid
	// EmptyAllHidden means every valid entry is on a hidden line
	EmptyAllHidden
)

// DepartureBoard is the result of one render pass.
type DepartureBoard struct {
	Rows    []DepartureRow
	Empty   EmptyState
	Message string
	Dropped int
}

// Sanitize makes upstream or stored text safe to print on a terminal. Line
// breaks and tabs become spaces; every other control character, including
// the ESC that starts an ANSI sequence, is removed.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		case unicode.Is(unicode.Bidi_Control, r):
			return -1
		}
		return r
	}, s)
}

// MinutesUntil rounds the distance from now to when to whole minutes, halves
// rounding up.
func MinutesUntil(now, when time.Time) int {
	return int(math.Floor(when.Sub(now).Minutes() + 0.5))
}

// FormatDepartureTime shows "now" for due or past departures, minutes for
// anything under ten minutes away and the clock time otherwise. The clock
// time uses now's location.
func FormatDepartureTime(p *message.Printer, now, when time.Time) string {
	minutes := MinutesUntil(now, when)
	switch {
	case minutes <= 0:
		return p.Sprintf(msgNow)
	case minutes < relativeMinutes:
		return p.Sprintf(msgMinutes, minutes)
	}
	return when.In(now.Location()).Format(clockLayout)
}

func IsSoon(now, when time.Time) bool {
	return MinutesUntil(now, when) <= SoonMinutes
}

// RenderDepartures validates, filters and formats a departures payload.
// Invalid entries are dropped before hidden lines are applied.
func RenderDepartures(p *message.Printer, resp models.DepartureResponse, hidden []string, now time.Time) DepartureBoard {
	if len(resp.Results) == 0 {
		return DepartureBoard{Empty: EmptyNoDepartures, Message: p.Sprintf(msgNoDepartures)}
	}

	valid := make([]models.Departure, 0, len(resp.Results))
	for _, raw := range resp.Results {
		var dep models.Departure
		if err := json.Unmarshal(raw, &dep); err != nil || !dep.Valid() {
			continue
		}
		valid = append(valid, dep)
	}

	dropped := len(resp.Results) - len(valid)
	if len(valid) == 0 {
		return DepartureBoard{Empty: EmptyNoValid, Message: p.Sprintf(msgNoValid), Dropped: dropped}
	}

	rows := make([]DepartureRow, 0, len(valid))
	for _, dep := range valid {
		line := dep.LineLabel()
		if slices.Contains(hidden, line) {
			continue
		}
		rows = append(rows, departureRow(p, dep, now))
	}

	if len(rows) == 0 {
		return DepartureBoard{Empty: EmptyAllHidden, Message: p.Sprintf(msgAllHidden), Dropped: dropped}
	}
	return DepartureBoard{Rows: rows, Dropped: dropped}
}

func departureRow(p *message.Printer, dep models.Departure, now time.Time) DepartureRow {
	when, _ := dep.When()
	line := dep.LineLabel()

	row := DepartureRow{
		Label:      Sanitize(line),
		Direction:  Sanitize(dep.Direction()),
		Time:       FormatDepartureTime(p, now, when),
		Minutes:    MinutesUntil(now, when),
		Soon:       IsSoon(now, when),
		Background: DefaultBackground,
		Foreground: DefaultForeground,
		Target:     Target{Kind: TargetLineBadge, Line: line},
	}
	if platform := dep.Platform(); platform != "" {
		row.Platform = p.Sprintf(msgPlatform, Sanitize(platform))
	}
	if l := dep.ServiceJourney.Line; l.BackgroundColor != "" {
		row.Background = Sanitize(l.BackgroundColor)
	}
	if l := dep.ServiceJourney.Line; l.ForegroundColor != "" {
		row.Foreground = Sanitize(l.ForegroundColor)
	}
	return row
}

// SearchItems keeps stop areas that have both a gid and a name, up to
// MaxSearchResults.
func SearchItems(results []models.LocationResult) []StopItem {
	items := make([]StopItem, 0, MaxSearchResults)
	for _, result := range results {
		if result.LocationType != models.LocationTypeStopArea || result.GID == "" || result.Name == "" {
			continue
		}
		items = append(items, StopItem{
			Label:  Sanitize(result.Name),
			Select: Target{Kind: TargetSearchResult, GID: result.GID, Name: result.Name},
		})
		if len(items) == MaxSearchResults {
			break
		}
	}
	return items
}

func FavoriteItems(p *message.Printer, favorites []models.Favorite) []StopItem {
	items := make([]StopItem, 0, len(favorites))
	for _, fav := range favorites {
		items = append(items, StopItem{
			Label:  Sanitize(fav.Name),
			Select: Target{Kind: TargetFavorite, GID: fav.GID, Name: fav.Name},
			Delete: &Target{Kind: TargetFavoriteDelete, GID: fav.GID},
			Title:  p.Sprintf(msgDeleteFavorite),
		})
	}
	return items
}

// Filters builds the hidden-lines panel for the given set.
func Filters(p *message.Printer, hidden []string) FilterInfo {
	info := FilterInfo{
		Label:  p.Sprintf(msgHidden),
		Clear:  Target{Kind: TargetClearFilters},
		Action: p.Sprintf(msgShowAll),
	}
	for _, line := range hidden {
		info.Badges = append(info.Badges, Badge{
			Label:  Sanitize(line),
			Target: Target{Kind: TargetFilterBadge, Line: line},
		})
	}
	return info
}

// FavoriteButtonState is hidden without a stop, otherwise filled or hollow.
func FavoriteButtonState(p *message.Printer, hasStop, favorite bool) FavoriteButton {
	switch {
	case !hasStop:
		return FavoriteButton{}
	case favorite:
		return FavoriteButton{Visible: true, Favorite: true, Icon: "★", Title: p.Sprintf(msgRemoveFavorite)}
	}
	return FavoriteButton{Visible: true, Icon: "☆", Title: p.Sprintf(msgAddFavorite)}
}
