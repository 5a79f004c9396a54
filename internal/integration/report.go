package integration

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/PuerkitoBio/goquery"
	"github.com/abelzeko/travel-times/internal/entities"
	"github.com/rs/zerolog/log"
)

const (
	// AsOfPrefix opens the sentence carrying the report generation time
	AsOfPrefix = "Travel times as of "
	// AsOfLayout is the report time format once punctuation is stripped,
	// e.g. "3:25 PM Tuesday March 8 2011"
	AsOfLayout = "3:04 PM Monday January 2 2006"

	asOfSelector = ".sansserif"
)

var (
	ErrTimestampNotFound = errors.New("report timestamp not found")
	ErrTimestampFormat   = errors.New("report timestamp has an unexpected format")
)

// ReportLocation is the time zone the report is published in
var ReportLocation = loadReportLocation()

func loadReportLocation() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Report is one snapshot of travel times sharing a single observation time
type Report struct {
	ObservedAt  time.Time
	TravelTimes []entities.TravelTime
}

// ParseReportHTML parses a raw report document
func ParseReportHTML(r io.Reader, opts RowOptions) (*Report, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the report document: %w", err)
	}
	return ParseReport(doc, opts)
}

// ParseReport extracts the observation time and every data row of the report.
// Any structural problem aborts the whole parse.
func ParseReport(doc *goquery.Document, opts RowOptions) (*Report, error) {
	observedAt, err := ExtractTimestamp(doc)
	if err != nil {
		return nil, err
	}

	report := &Report{ObservedAt: observedAt}
	var prev *entities.TravelTime

	rows := doc.Find("tr")
	for i := 1; i < rows.Length(); i++ {
		var cells []Cell
		rows.Eq(i).Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, newCell(td))
		})

		tt, err := InterpretRow(i, cells, prev, opts)
		if err != nil {
			return nil, err
		}
		tt.ObservedAt = observedAt

		report.TravelTimes = append(report.TravelTimes, tt)
		prev = &report.TravelTimes[len(report.TravelTimes)-1]
	}

	log.Debug().
		Time("observed_at", observedAt).
		Int("rows", rows.Length()).
		Int("records", len(report.TravelTimes)).
		Msg("Parsed travel times report")

	return report, nil
}

// ExtractTimestamp finds the "Travel times as of ..." element and parses its time
func ExtractTimestamp(doc *goquery.Document) (time.Time, error) {
	text := findAsOfText(doc.Find(asOfSelector))
	if text == "" {
		// Fall back to any element opening with the prefix
		text = findAsOfText(doc.Find("body *"))
	}
	if text == "" {
		return time.Time{}, ErrTimestampNotFound
	}

	log.Debug().Str("text", text).Msg("Found report timestamp text")
	return ParseAsOf(text)
}

// findAsOfText returns the shortest text opening with AsOfPrefix, which is
// the innermost element when ancestors match as well
func findAsOfText(sel *goquery.Selection) string {
	var found string
	sel.Each(func(_ int, s *goquery.Selection) {
		text := NormalizeWhitespace(s.Text())
		if strings.HasPrefix(text, AsOfPrefix) && (found == "" || len(text) < len(found)) {
			found = text
		}
	})
	return found
}

// ParseAsOf parses "Travel times as of 3:25 P.M., Tuesday, March 8, 2011."
// style text in the report's time zone
func ParseAsOf(text string) (time.Time, error) {
	text = NormalizeWhitespace(text)
	if !strings.HasPrefix(text, AsOfPrefix) {
		return time.Time{}, fmt.Errorf("%w: missing prefix %q in %q", ErrTimestampFormat, AsOfPrefix, text)
	}

	value := strings.TrimPrefix(text, AsOfPrefix)
	value = strings.NewReplacer(".", "", ",", "").Replace(value)
	value = strings.TrimSpace(value)

	t, err := time.ParseInLocation(AsOfLayout, value, ReportLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTimestampFormat, err)
	}
	return t, nil
}
