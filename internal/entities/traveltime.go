// Package entities contains the core domain objects for the travel-times downloader
package entities

import (
	"strings"
	"time"
)

// Rating is a coarse quality classification of an observed travel time
type Rating int

const (
	RatingNone Rating = iota
	RatingBad
	RatingAverage
	RatingGood
)

var ratingNames = [...]string{
	RatingNone:    "None",
	RatingBad:     "Bad",
	RatingAverage: "Average",
	RatingGood:    "Good",
}

func (r Rating) String() string {
	if r < RatingNone || int(r) >= len(ratingNames) {
		return ratingNames[RatingNone]
	}
	return ratingNames[r]
}

// RoadsSeparator joins road identifiers into their display form
const RoadsSeparator = ", "

// TravelTime represents a single route row of the travel times report
type TravelTime struct {
	ID            int64     `json:"-"`
	ObservedAt    time.Time `json:"observed_at"` // Report generation time, shared by a run
	Roads         []string  `json:"roads"`       // Road identifiers from the icon column
	FromCity      string    `json:"from_city"`
	ToCity        string    `json:"to_city"`
	IsExpressLane bool      `json:"is_express_lane"` // Set on "Via ..." continuation rows
	Distance      int       `json:"distance"`        // Tenths of a mile
	AverageTime   int       `json:"average_time"`    // Minutes
	CurrentTime   int       `json:"current_time"`    // Minutes
	CurrentRating Rating    `json:"current_rating"`
	HovTime       int       `json:"hov_time"` // Minutes
	HovRating     Rating    `json:"hov_rating"`
}

// RoadsDisplay renders the road identifiers as a single string
func (t TravelTime) RoadsDisplay() string {
	return strings.Join(t.Roads, RoadsSeparator)
}

// ParseRoads splits a display string back into road identifiers
func ParseRoads(display string) []string {
	if strings.TrimSpace(display) == "" {
		return nil
	}
	parts := strings.Split(display, RoadsSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
