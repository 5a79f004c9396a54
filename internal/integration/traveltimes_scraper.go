// Package integration handles external service interactions
package integration

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSourceURL is the published Seattle area travel times report
const DefaultSourceURL = "http://www.wsdot.wa.gov/traffic/seattle/traveltimes/"

const defaultTimeout = 30 * time.Second

// TravelTimesScraper downloads and parses the travel times report
type TravelTimesScraper struct {
	sourceURL string
	client    *http.Client
	options   RowOptions
}

// NewTravelTimesScraper creates a new travel times scraper
func NewTravelTimesScraper(url string, timeout time.Duration, options RowOptions) *TravelTimesScraper {
	if url == "" {
		url = DefaultSourceURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &TravelTimesScraper{
		sourceURL: url,
		client:    &http.Client{Timeout: timeout},
		options:   options,
	}
}

// SourceURL returns the report address
func (s *TravelTimesScraper) SourceURL() string {
	return s.sourceURL
}

// FetchTravelTimes retrieves the report and extracts its travel times
func (s *TravelTimesScraper) FetchTravelTimes(ctx context.Context) (*Report, error) {
	log.Info().Str("url", s.sourceURL).Msg("Sending HTTP request for travel times report")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the webpage: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}
	log.Info().Str("status", res.Status).Msg("Successfully received HTTP response")

	report, err := ParseReportHTML(res.Body, s.options)
	if err != nil {
		return nil, err
	}

	log.Info().
		Time("observed_at", report.ObservedAt).
		Int("records", len(report.TravelTimes)).
		Msg("Extracted travel times")
	return report, nil
}
