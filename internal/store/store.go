package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bbernstein/busschema/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	FavoritesKey    = "favorites"
	LineFiltersKey  = "lineFilters"
	SelectedStopKey = "selectedStop"

	// MaxFavorites is the upper bound on stored favorites
	MaxFavorites = 5
)

var (
	ErrFavoritesFull = errors.New("favorites limit reached")
	ErrWriteFailed   = errors.New("could not persist change")
)

// Get decodes the JSON value stored under key. A missing key yields def. A
// value that does not decode into T is logged, removed and replaced by def.
func Get[T any](s Storage, key string, def T) T {
	raw, ok, err := s.GetItem(key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Storage read error")
		return def
	}
	if !ok {
		return def
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding corrupt stored value")
		if err := s.RemoveItem(key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Could not remove corrupt stored value")
		}
		return def
	}
	return value
}

// Set encodes value as JSON under key and reports whether it was stored.
func Set(s Storage, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Storage serialization error")
		return false
	}
	if err := s.SetItem(key, string(data)); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Storage write error")
		return false
	}
	return true
}

// Store holds the board's persisted state: favorites, per-stop hidden lines
// and the last selected stop.
type Store struct {
	storage Storage
	now     func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type storedFavorite struct {
	GID     string `json:"gid"`
	Name    string `json:"name"`
	AddedAt string `json:"addedAt"`
}

// Favorites returns the stored favorites in insertion order. Entries without
// a gid or a name are skipped.
func (s *Store) Favorites() []models.Favorite {
	raw := Get[[]json.RawMessage](s.storage, FavoritesKey, nil)

	favorites := make([]models.Favorite, 0, len(raw))
	for _, entry := range raw {
		var stored storedFavorite
		if err := json.Unmarshal(entry, &stored); err != nil {
			continue
		}
		if stored.GID == "" || stored.Name == "" {
			continue
		}
		addedAt, _ := time.Parse(time.RFC3339Nano, stored.AddedAt)
		favorites = append(favorites, models.Favorite{
			GID:     stored.GID,
			Name:    stored.Name,
			AddedAt: addedAt,
		})
	}
	return favorites
}

func (s *Store) SaveFavorites(favorites []models.Favorite) bool {
	return Set(s.storage, FavoritesKey, favorites)
}

func (s *Store) IsFavorite(gid string) bool {
	for _, fav := range s.Favorites() {
		if fav.GID == gid {
			return true
		}
	}
	return false
}

// AddFavorite adds stop, or removes it when it is already a favorite. It
// reports whether the stop is a favorite afterwards. A full list is left
// untouched and ErrFavoritesFull is returned.
func (s *Store) AddFavorite(stop models.Stop) (bool, error) {
	if s.IsFavorite(stop.GID) {
		if !s.RemoveFavorite(stop.GID) {
			return true, ErrWriteFailed
		}
		return false, nil
	}

	favorites := s.Favorites()
	if len(favorites) >= MaxFavorites {
		return false, ErrFavoritesFull
	}

	favorites = append(favorites, models.Favorite{
		GID:     stop.GID,
		Name:    stop.Name,
		AddedAt: s.now().UTC(),
	})
	if !s.SaveFavorites(favorites) {
		return false, ErrWriteFailed
	}
	return true, nil
}

func (s *Store) RemoveFavorite(gid string) bool {
	favorites := s.Favorites()
	kept := favorites[:0]
	for _, fav := range favorites {
		if fav.GID != gid {
			kept = append(kept, fav)
		}
	}
	return s.SaveFavorites(kept)
}

// lineFilters reads the gid -> hidden lines mapping. Each stop's entry is
// kept raw so one malformed entry does not hide the others.
func (s *Store) lineFilters() map[string]json.RawMessage {
	filters := Get[map[string]json.RawMessage](s.storage, LineFiltersKey, nil)
	if filters == nil {
		filters = make(map[string]json.RawMessage)
	}
	return filters
}

// HiddenLines returns the hidden line labels for gid. Anything other than a
// list of strings reads as no hidden lines.
func (s *Store) HiddenLines(gid string) []string {
	entry, ok := s.lineFilters()[gid]
	if !ok {
		return []string{}
	}

	var items []any
	if err := json.Unmarshal(entry, &items); err != nil {
		return []string{}
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		if line, ok := item.(string); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func (s *Store) SaveHiddenLines(gid string, lines []string) bool {
	if lines == nil {
		lines = []string{}
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return false
	}

	filters := s.lineFilters()
	filters[gid] = encoded
	return Set(s.storage, LineFiltersKey, filters)
}

// ToggleLine flips line in gid's hidden set and returns the new set.
func (s *Store) ToggleLine(gid, line string) ([]string, bool) {
	hidden := s.HiddenLines(gid)

	toggled := make([]string, 0, len(hidden)+1)
	found := false
	for _, h := range hidden {
		if h == line {
			found = true
			continue
		}
		toggled = append(toggled, h)
	}
	if !found {
		toggled = append(toggled, line)
	}

	return toggled, s.SaveHiddenLines(gid, toggled)
}

func (s *Store) ClearLines(gid string) bool {
	return s.SaveHiddenLines(gid, []string{})
}

// SelectedStop returns the last selected stop, if a complete one is stored.
func (s *Store) SelectedStop() (models.Stop, bool) {
	stop := Get(s.storage, SelectedStopKey, models.Stop{})
	return stop, stop.Valid()
}

func (s *Store) SaveSelectedStop(stop models.Stop) bool {
	return Set(s.storage, SelectedStopKey, stop)
}
