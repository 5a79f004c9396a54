package integration

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/abelzeko/travel-times/internal/entities"
)

// ErrMalformedRow is wrapped by every RowError
var ErrMalformedRow = errors.New("malformed report row")

// RowError reports a data row that does not match the expected layout
type RowError struct {
	Row    int // 1-based data row index, the header row excluded
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%v %d: %s", ErrMalformedRow, e.Row, e.Reason)
}

func (e *RowError) Unwrap() error {
	return ErrMalformedRow
}

const (
	minRowCells        = 5 // route, distance, average, current, HOV
	expressLanePrefix  = "Via"
	routeSeparator     = " to "
	distanceScale      = 10
	distanceRoundError = 1e-9
)

// Column offsets relative to the route-name column
const (
	colRoute = iota
	colDistance
	colAverage
	colCurrent
	colHov
)

// RowOptions tweaks row interpretation
type RowOptions struct {
	// LegacyHOVMapping copies the current-lane value and rating into the
	// HOV fields instead of reading the HOV cell, as older consumers expect.
	LegacyHOVMapping bool
}

// InterpretRow builds a record from one data row. prev is the record built
// from the preceding row and is required for "Via" continuation rows.
func InterpretRow(row int, cells []Cell, prev *entities.TravelTime, opts RowOptions) (entities.TravelTime, error) {
	var tt entities.TravelTime

	if len(cells) < minRowCells {
		return tt, &RowError{Row: row, Reason: fmt.Sprintf("expected at least %d cells, got %d", minRowCells, len(cells))}
	}

	// A sixth leading cell carries the road icons
	i := 0
	if len(cells) > minRowCells {
		tt.Roads = slices.Clone(cells[0].Icons)
		i = 1
	}

	name := NormalizeWhitespace(cells[i+colRoute].Text)
	if isExpressLane(name) {
		if prev == nil {
			return tt, &RowError{Row: row, Reason: fmt.Sprintf("continuation row %q has no preceding route", name)}
		}
		tt.IsExpressLane = true
		tt.FromCity = prev.FromCity
		tt.ToCity = prev.ToCity
		tt.Roads = slices.Clone(prev.Roads)
	} else {
		from, to, err := splitRoute(name)
		if err != nil {
			return tt, &RowError{Row: row, Reason: err.Error()}
		}
		tt.FromCity = from
		tt.ToCity = to
	}

	tt.Distance = parseDistance(cells[i+colDistance].Text)
	tt.AverageTime = parseMinutes(cells[i+colAverage].Text)

	current := cells[i+colCurrent]
	tt.CurrentTime, tt.CurrentRating = ClassifyCell(current.Text, current.Color)

	if opts.LegacyHOVMapping {
		tt.HovTime, tt.HovRating = tt.CurrentTime, tt.CurrentRating
	} else {
		hov := cells[i+colHov]
		tt.HovTime, tt.HovRating = ClassifyCell(hov.Text, hov.Color)
	}

	return tt, nil
}

func isExpressLane(name string) bool {
	first, _, _ := strings.Cut(name, " ")
	return first == expressLanePrefix
}

// splitRoute splits "From to To" into its two endpoints
func splitRoute(name string) (string, string, error) {
	parts := strings.Split(name, routeSeparator)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("route name %q is not of the form \"<from> to <to>\"", name)
	}
	from, to := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if from == "" || to == "" {
		return "", "", fmt.Errorf("route name %q has an empty endpoint", name)
	}
	return from, to, nil
}

// parseDistance converts decimal miles to tenths of a mile, truncating
func parseDistance(text string) int {
	miles, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(miles) || math.IsInf(miles, 0) {
		return 0
	}
	return int(math.Trunc(miles*distanceScale + math.Copysign(distanceRoundError, miles)))
}

func parseMinutes(text string) int {
	minutes, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return minutes
}
