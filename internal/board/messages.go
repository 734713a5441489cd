package board

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. English text doubles as the key, so an English printer needs
// no catalog entries.
const (
	msgNow             = "Now"
	msgMinutes         = "%d min"
	msgNoDepartures    = "No departures right now"
	msgNoValid         = "No valid departures"
	msgAllHidden       = "All lines are hidden. Choose \"Show all\" to restore."
	msgNoResults       = "No results"
	msgSearchFailed    = "Could not search stops"
	msgSelectStop      = "Select a stop first"
	msgSelectStopAlert = "Select a stop first!"
	msgFetchFailed     = "Could not fetch departures. Try again."
	msgFavoritesFull   = "You can have at most 5 favorites. Remove a favorite first."
	msgUpdated         = "Updated: %s"
	msgPlatform        = "Platform %s"
	msgHidden          = "Hidden:"
	msgShowAll         = "Show all"
	msgRemoveFavorite  = "Remove from favorites"
	msgAddFavorite     = "Add as favorite"
	msgDeleteFavorite  = "Remove favorite"
	msgNoFavorites     = "No favorites yet"
	msgLoading         = "Loading departures..."
	msgTitle           = "🚌 %s"
	msgDefaultTitle    = "Departures"
)

var swedish = map[string]string{
	msgNow:             "Nu",
	msgNoDepartures:    "Inga avgångar just nu",
	msgNoValid:         "Inga giltiga avgångar",
	msgAllHidden:       "Alla linjer är dolda. Klicka \"Visa alla\" för att återställa.",
	msgNoResults:       "Inga resultat",
	msgSearchFailed:    "Kunde inte söka hållplatser",
	msgSelectStop:      "Välj en hållplats först",
	msgSelectStopAlert: "Välj en hållplats först!",
	msgFetchFailed:     "Kunde inte hämta avgångar. Försök igen.",
	msgFavoritesFull:   "Du kan max ha 5 favoriter. Ta bort en favorit först.",
	msgUpdated:         "Uppdaterat: %s",
	msgPlatform:        "Läge %s",
	msgHidden:          "Dolda:",
	msgShowAll:         "Visa alla",
	msgRemoveFavorite:  "Ta bort från favoriter",
	msgAddFavorite:     "Lägg till som favorit",
	msgDeleteFavorite:  "Ta bort favorit",
	msgNoFavorites:     "Inga favoriter ännu",
	msgLoading:         "Hämtar avgångar...",
	msgDefaultTitle:    "Avgångar",
}

// Supported lists the languages the board speaks, default first.
var Supported = []language.Tag{language.Swedish, language.English}

var messages = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range swedish {
		if err := b.SetString(language.Swedish, key, text); err != nil {
			panic(err)
		}
	}
	return b
}

// NewPrinter returns a printer for the closest supported match of lang.
// Anything unrecognized gets Swedish.
func NewPrinter(lang string) *message.Printer {
	tag := Supported[0]
	if parsed, err := language.Parse(lang); err == nil {
		_, idx, confidence := language.NewMatcher(Supported).Match(parsed)
		if confidence != language.No {
			tag = Supported[idx]
		}
	}
	return message.NewPrinter(tag, message.Catalog(messages))
}
