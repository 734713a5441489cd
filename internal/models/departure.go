package models

import (
	"encoding/json"
	"time"
)

type Line struct {
	Name            string `json:"name"`
	ShortName       string `json:"shortName"`
	BackgroundColor string `json:"backgroundColor"`
	ForegroundColor string `json:"foregroundColor"`
}

type ServiceJourney struct {
	Direction string `json:"direction"`
	Line      *Line  `json:"line"`
}

type StopPoint struct {
	Platform string `json:"platform"`
}

// Departure mirrors one upstream departure entry. Times are kept as the raw
// strings so that an unparsable value marks the entry invalid instead of
// failing the whole payload.
type Departure struct {
	EstimatedTime  string          `json:"estimatedTime"`
	PlannedTime    string          `json:"plannedTime"`
	ServiceJourney *ServiceJourney `json:"serviceJourney"`
	StopPoint      *StopPoint      `json:"stopPoint"`
}

// DepartureResponse keeps each result raw so entries can be validated one by one.
type DepartureResponse struct {
	Results []json.RawMessage `json:"results"`
}

// LineLabel returns the short name, falling back to the full name.
func (d Departure) LineLabel() string {
	if d.ServiceJourney == nil || d.ServiceJourney.Line == nil {
		return ""
	}
	if d.ServiceJourney.Line.ShortName != "" {
		return d.ServiceJourney.Line.ShortName
	}
	return d.ServiceJourney.Line.Name
}

func (d Departure) Direction() string {
	if d.ServiceJourney == nil {
		return ""
	}
	return d.ServiceJourney.Direction
}

func (d Departure) Platform() string {
	if d.StopPoint == nil {
		return ""
	}
	return d.StopPoint.Platform
}

// When returns the estimated time, falling back to the planned time when the
// estimate is missing or does not parse.
func (d Departure) When() (time.Time, bool) {
	for _, raw := range []string{d.EstimatedTime, d.PlannedTime} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Valid requires a line label, a direction and a usable time.
func (d Departure) Valid() bool {
	if d.LineLabel() == "" || d.Direction() == "" {
		return false
	}
	_, ok := d.When()
	return ok
}
