package board

type TargetKind int

const (
	TargetSearchResult TargetKind = iota + 1
	TargetFavorite
	TargetFavoriteDelete
	TargetLineBadge
	TargetFilterBadge
	TargetClearFilters
)

func (k TargetKind) String() string {
	switch k {
	case TargetSearchResult:
		return "search-result"
	case TargetFavorite:
		return "favorite"
	case TargetFavoriteDelete:
		return "favorite-delete"
	case TargetLineBadge:
		return "line-badge"
	case TargetFilterBadge:
		return "filter-badge"
	case TargetClearFilters:
		return "clear-filters"
	}
	return "unknown"
}

// Target is what a rendered element carries instead of a handler: its kind
// and the raw data it stands for. Fields are not escaped.
type Target struct {
	Kind TargetKind
	GID  string
	Name string
	Line string
}

// StopItem is a search result or favorite ready for display.
type StopItem struct {
	Label  string
	Select Target
	// Delete is set for favorites only
	Delete *Target
	Title  string
}

// Badge is a hidden line in the filter panel.
type Badge struct {
	Label  string
	Target Target
}

// FilterInfo is the hidden-lines panel. It is not shown when Badges is empty.
type FilterInfo struct {
	Label  string
	Badges []Badge
	Clear  Target
	Action string
}

type FavoriteButton struct {
	Visible  bool
	Favorite bool
	Icon     string
	Title    string
}

// DepartureRow is one rendered departure. Display fields are sanitized.
type DepartureRow struct {
	Label      string
	Direction  string
	Platform   string
	Time       string
	Minutes    int
	Soon       bool
	Background string
	Foreground string
	Target     Target
}

// View is where the controller puts its output. Calls are made while the
// controller holds its lock, so implementations must not call back into it.
type View interface {
	SetTitle(title string)
	SetSearchQuery(query string)
	ShowSearchResults(items []StopItem)
	ShowSearchMessage(message string)
	ClearSearch()

	SetLoading(loading bool, message string)
	ShowError(message string)
	ClearError()

	ShowDepartures(rows []DepartureRow)
	ShowDeparturesMessage(message string)
	ClearDepartures()
	SetLastUpdated(text string)
	ShowFilterInfo(info FilterInfo)

	ShowFavorites(items []StopItem, emptyMessage string)
	SetFavoriteButton(state FavoriteButton)

	Alert(message string)
}
