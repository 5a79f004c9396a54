// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abelzeko/travel-times/internal/entities"
	"github.com/abelzeko/travel-times/internal/integration"
	"github.com/abelzeko/travel-times/internal/metrics"
	"github.com/abelzeko/travel-times/internal/repository"
	"github.com/rs/zerolog/log"
)

// ReportSource produces one parsed travel times report
type ReportSource interface {
	FetchTravelTimes(ctx context.Context) (*integration.Report, error)
}

// Publisher announces stored travel times
type Publisher interface {
	Publish(ctx context.Context, tt entities.TravelTime) error
}

// RunSummary describes the outcome of one refresh
type RunSummary struct {
	ObservedAt time.Time
	Parsed     int
	Stored     int
	Failed     int
}

// TravelTimeUseCase handles business logic related to travel times
type TravelTimeUseCase struct {
	repo      repository.TravelTimeRepository
	source    ReportSource
	publisher Publisher
	metrics   *metrics.RunMetrics
}

// NewTravelTimeUseCase creates a new travel time use case. publisher and
// runMetrics may be nil.
func NewTravelTimeUseCase(repo repository.TravelTimeRepository, source ReportSource, publisher Publisher, runMetrics *metrics.RunMetrics) *TravelTimeUseCase {
	if runMetrics == nil {
		runMetrics = metrics.NewRunMetrics()
	}
	return &TravelTimeUseCase{
		repo:      repo,
		source:    source,
		publisher: publisher,
		metrics:   runMetrics,
	}
}

// RefreshTravelTimes downloads the report and stores each record in row order.
// Fetch and parse failures abort the run; a record the store rejects is
// logged and skipped.
func (uc *TravelTimeUseCase) RefreshTravelTimes(ctx context.Context) (RunSummary, error) {
	log.Info().Msg("Starting travel times refresh")

	report, err := uc.source.FetchTravelTimes(ctx)
	if err != nil {
		uc.metrics.RunsFailed.Inc()
		return RunSummary{}, fmt.Errorf("failed to fetch travel times: %w", err)
	}

	summary := RunSummary{
		ObservedAt: report.ObservedAt,
		Parsed:     len(report.TravelTimes),
	}
	uc.metrics.RecordsParsed.Add(float64(summary.Parsed))
	uc.metrics.ObservedAt.Set(float64(report.ObservedAt.Unix()))

	for _, tt := range report.TravelTimes {
		if err := uc.repo.SaveTravelTime(ctx, tt); err != nil {
			summary.Failed++
			uc.metrics.RecordsFailed.Inc()
			log.Warn().Err(err).
				Str("from", tt.FromCity).
				Str("to", tt.ToCity).
				Bool("express", tt.IsExpressLane).
				Msg("Failed to insert travel time")
			continue
		}
		summary.Stored++
		uc.metrics.RecordsStored.Inc()

		if uc.publisher != nil {
			if err := uc.publisher.Publish(ctx, tt); err != nil {
				log.Warn().Err(err).Str("from", tt.FromCity).Str("to", tt.ToCity).Msg("Failed to publish travel time")
			}
		}
	}

	log.Info().
		Time("observed_at", summary.ObservedAt).
		Int("parsed", summary.Parsed).
		Int("stored", summary.Stored).
		Int("failed", summary.Failed).
		Msg("Travel times refresh finished")
	return summary, nil
}

// GetLatestTravelTimes returns the most recently stored report
func (uc *TravelTimeUseCase) GetLatestTravelTimes(ctx context.Context) (time.Time, []entities.TravelTime, error) {
	observedAt, err := uc.repo.GetLastObservedAt(ctx)
	if err != nil {
		return time.Time{}, nil, err
	}
	if observedAt.IsZero() {
		return observedAt, nil, nil
	}

	data, err := uc.repo.GetTravelTimes(ctx, observedAt)
	if err != nil {
		return time.Time{}, nil, err
	}
	return observedAt, data, nil
}

// FormatTravelTimes renders stored travel times for display
func (uc *TravelTimeUseCase) FormatTravelTimes(observedAt time.Time, data []entities.TravelTime) string {
	if len(data) == 0 {
		return "No travel times stored yet."
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Travel times as of %s\n\n", observedAt.In(integration.ReportLocation).Format("2006-01-02 15:04 MST")))

	for _, tt := range data {
		route := fmt.Sprintf("%s to %s", tt.FromCity, tt.ToCity)
		if tt.IsExpressLane {
			route += " (express lanes)"
		}
		if roads := tt.RoadsDisplay(); roads != "" {
			route = fmt.Sprintf("[%s] %s", roads, route)
		}
		result.WriteString(fmt.Sprintf("%s: %d.%d mi, avg %d min, now %d min (%s), HOV %d min (%s)\n",
			route, tt.Distance/10, tt.Distance%10, tt.AverageTime,
			tt.CurrentTime, tt.CurrentRating, tt.HovTime, tt.HovRating))
	}

	return result.String()
}
