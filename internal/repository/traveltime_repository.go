// Package repository provides data access implementations
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abelzeko/travel-times/internal/entities"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// TravelTimeRepository stores travel time records
type TravelTimeRepository interface {
	SaveTravelTime(ctx context.Context, tt entities.TravelTime) error
	GetTravelTimes(ctx context.Context, observedAt time.Time) ([]entities.TravelTime, error)
	GetLastObservedAt(ctx context.Context) (time.Time, error)
	Close() error
}

// Open picks a repository implementation from dsn: PostgreSQL for
// postgres:// URLs, otherwise a SQLite database file path
func Open(ctx context.Context, dsn string) (TravelTimeRepository, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		repo, err := NewPostgresTravelTimeRepository(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	repo, err := NewSQLiteTravelTimeRepository(dsn)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// SQLiteTravelTimeRepository implements TravelTimeRepository using SQLite
type SQLiteTravelTimeRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteTravelTimeRepository creates and initializes a new SQLite repository
func NewSQLiteTravelTimeRepository(dbPath string) (*SQLiteTravelTimeRepository, error) {
	if dbPath == "" {
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dbPath = filepath.Join(dbDir, "traveltimes.db")
	}

	log.Info().Str("path", dbPath).Msg("Opening database")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS travel_time (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		observed_at DATETIME NOT NULL,
		roads TEXT NOT NULL DEFAULT '',
		from_city TEXT NOT NULL,
		to_city TEXT NOT NULL,
		is_express_lane BOOLEAN NOT NULL DEFAULT 0,
		distance_tenths INTEGER NOT NULL DEFAULT 0,
		average_minutes INTEGER NOT NULL DEFAULT 0,
		current_minutes INTEGER NOT NULL DEFAULT 0,
		current_rating INTEGER NOT NULL DEFAULT 0,
		hov_minutes INTEGER NOT NULL DEFAULT 0,
		hov_rating INTEGER NOT NULL DEFAULT 0,
		UNIQUE(observed_at, from_city, to_city, is_express_lane)
	);
	CREATE INDEX IF NOT EXISTS idx_travel_time_observed_at ON travel_time(observed_at);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteTravelTimeRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteTravelTimeRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveTravelTime inserts one record. A record already stored for the same
// report and route is rejected by the unique constraint.
func (r *SQLiteTravelTimeRepository) SaveTravelTime(ctx context.Context, tt entities.TravelTime) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO travel_time(observed_at, roads, from_city, to_city, is_express_lane,
			distance_tenths, average_minutes, current_minutes, current_rating, hov_minutes, hov_rating)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tt.ObservedAt.UTC(),
		tt.RoadsDisplay(),
		tt.FromCity,
		tt.ToCity,
		tt.IsExpressLane,
		tt.Distance,
		tt.AverageTime,
		tt.CurrentTime,
		int(tt.CurrentRating),
		tt.HovTime,
		int(tt.HovRating),
	)
	if err != nil {
		return fmt.Errorf("failed to insert travel time %s to %s: %w", tt.FromCity, tt.ToCity, err)
	}
	return nil
}

// GetTravelTimes retrieves the records of one report in insertion order
func (r *SQLiteTravelTimeRepository) GetTravelTimes(ctx context.Context, observedAt time.Time) ([]entities.TravelTime, error) {
	query := `
		SELECT id, observed_at, roads, from_city, to_city, is_express_lane,
			distance_tenths, average_minutes, current_minutes, current_rating, hov_minutes, hov_rating
		FROM travel_time
		WHERE observed_at = ?
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, observedAt.UTC())
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
		if err := rows.Scan(
			&tt.ID,
			&tt.ObservedAt,
			&roads,
			&tt.FromCity,
			&tt.ToCity,
			&tt.IsExpressLane,
			&tt.Distance,
			&tt.AverageTime,
			&tt.CurrentTime,
			&current,
			&tt.HovTime,
			&hov,
		); err != nil {
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
func (r *SQLiteTravelTimeRepository) GetLastObservedAt(ctx context.Context) (time.Time, error) {
	var observedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		"SELECT observed_at FROM travel_time ORDER BY observed_at DESC LIMIT 1").Scan(&observedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last observation time: %w", err)
	}
	if !observedAt.Valid {
		return time.Time{}, nil
	}
	return observedAt.Time, nil
}
