package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abelzeko/travel-times/internal/entities"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresTravelTimeRepository implements TravelTimeRepository on PostgreSQL
type PostgresTravelTimeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTravelTimeRepository connects to dsn and creates the schema if needed
func NewPostgresTravelTimeRepository(ctx context.Context, dsn string) (*PostgresTravelTimeRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db pool init failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS travel_time (
			id BIGSERIAL PRIMARY KEY,
			observed_at TIMESTAMPTZ NOT NULL,
			roads TEXT NOT NULL DEFAULT '',
			from_city TEXT NOT NULL,
			to_city TEXT NOT NULL,
			is_express_lane BOOLEAN NOT NULL DEFAULT FALSE,
			distance_tenths INTEGER NOT NULL DEFAULT 0,
			average_minutes INTEGER NOT NULL DEFAULT 0,
			current_minutes INTEGER NOT NULL DEFAULT 0,
			current_rating SMALLINT NOT NULL DEFAULT 0,
			hov_minutes INTEGER NOT NULL DEFAULT 0,
			hov_rating SMALLINT NOT NULL DEFAULT 0,
			UNIQUE (observed_at, from_city, to_city, is_express_lane)
		);
		CREATE INDEX IF NOT EXISTS idx_travel_time_observed_at ON travel_time (observed_at);
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL")
	return &PostgresTravelTimeRepository{pool: pool}, nil
}

// Close releases the connection pool
func (r *PostgresTravelTimeRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveTravelTime inserts one record
func (r *PostgresTravelTimeRepository) SaveTravelTime(ctx context.Context, tt entities.TravelTime) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO travel_time (observed_at, roads, from_city, to_city, is_express_lane,
			distance_tenths, average_minutes, current_minutes, current_rating, hov_minutes, hov_rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, tt.ObservedAt, tt.RoadsDisplay(), tt.FromCity, tt.ToCity, tt.IsExpressLane,
		tt.Distance, tt.AverageTime, tt.CurrentTime, int(tt.CurrentRating), tt.HovTime, int(tt.HovRating))
	if err != nil {
		return fmt.Errorf("failed to insert travel time %s to %s: %w", tt.FromCity, tt.ToCity, err)
	}
	return nil
}

// GetTravelTimes retrieves the records of one report in insertion order
func (r *PostgresTravelTimeRepository) GetTravelTimes(ctx context.Context, observedAt time.Time) ([]entities.TravelTime, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, observed_at, roads, from_city, to_city, is_express_lane,
			distance_tenths, average_minutes, current_minutes, current_rating, hov_minutes, hov_rating
		FROM travel_time
		WHERE observed_at = $1
		ORDER BY id
	`, observedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to query travel times: %w", err)
	}
	defer rows.Close()

	var result []entities.TravelTime
	for rows.Next() {
		var (
			tt           entities.TravelTime
			roads        string
			current, hov int
		)
		if err := rows.Scan(&tt.ID, &tt.ObservedAt, &roads, &tt.FromCity, &tt.ToCity, &tt.IsExpressLane,
			&tt.Distance, &tt.AverageTime, &tt.CurrentTime, &current, &tt.HovTime, &hov); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		tt.Roads = entities.ParseRoads(roads)
		tt.CurrentRating = entities.Rating(current)
		tt.HovRating = entities.Rating(hov)
		result = append(result, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return result, nil
}

// GetLastObservedAt returns the most recent report time stored, or the zero time
func (r *PostgresTravelTimeRepository) GetLastObservedAt(ctx context.Context) (time.Time, error) {
	var observedAt time.Time
	err := r.pool.QueryRow(ctx, "SELECT observed_at FROM travel_time ORDER BY observed_at DESC LIMIT 1").Scan(&observedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last observation time: %w", err)
	}
	return observedAt, nil
}
