package models

import "time"

type LocationType string

const (
	LocationTypeStopArea LocationType = "stoparea"
	LocationTypeAddress  LocationType = "address"
)

// Stop is a physical stop cluster. Identity is the GID.
type Stop struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

func (s Stop) Valid() bool {
	return s.GID != "" && s.Name != ""
}

type Favorite struct {
	GID     string    `json:"gid"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"addedAt"`
}

func (f Favorite) Stop() Stop {
	return Stop{GID: f.GID, Name: f.Name}
}

// LocationResult is one entry of the upstream by-text and by-coordinates searches
type LocationResult struct {
	GID          string       `json:"gid"`
	Name         string       `json:"name"`
	LocationType LocationType `json:"locationType"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
}

type LocationResponse struct {
	Results []LocationResult `json:"results"`
}
