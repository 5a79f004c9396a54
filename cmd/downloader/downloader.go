package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abelzeko/travel-times/internal/integration"
	"github.com/abelzeko/travel-times/internal/metrics"
	"github.com/abelzeko/travel-times/internal/repository"
	"github.com/abelzeko/travel-times/internal/usecases"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is fine, flags and the environment still apply
	_ = godotenv.Load()

	if os.Getenv("TRAVELTIMES_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func newApp() *cli.App {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Usage:   "SQLite database path or postgres:// connection URL",
		EnvVars: []string{"TRAVELTIMES_DB"},
	}

	return &cli.App{
		Name:  "traveltimes",
		Usage: "download the travel times report and store its records",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				EnvVars: []string{"TRAVELTIMES_DEBUG"},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				log.Logger = log.Logger.Level(zerolog.DebugLevel)
			} else {
				log.Logger = log.Logger.Level(zerolog.InfoLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "download the report once and store every record",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "url",
						Value:   integration.DefaultSourceURL,
						Usage:   "travel times report address",
						EnvVars: []string{"TRAVELTIMES_URL"},
					},
					dbFlag,
					&cli.DurationFlag{
						Name:    "timeout",
						Value:   30 * time.Second,
						Usage:   "HTTP timeout for the report download",
						EnvVars: []string{"TRAVELTIMES_TIMEOUT"},
					},
					&cli.BoolFlag{
						Name:    "legacy-hov",
						Usage:   "copy the current-lane time and rating into the HOV fields",
						EnvVars: []string{"TRAVELTIMES_LEGACY_HOV"},
					},
					&cli.StringFlag{
						Name:    "redis-url",
						Usage:   "publish stored records on a Redis channel",
						EnvVars: []string{"REDIS_URL"},
					},
					&cli.StringFlag{
						Name:    "redis-channel",
						Value:   integration.DefaultLiveChannel,
						Usage:   "Redis channel for stored records",
						EnvVars: []string{"TRAVELTIMES_REDIS_CHANNEL"},
					},
					&cli.StringFlag{
						Name:    "pushgateway",
						Usage:   "Prometheus Pushgateway address for run metrics",
						EnvVars: []string{"TRAVELTIMES_PUSHGATEWAY"},
					},
				},
				Action: runAction,
			},
			{
				Name:   "latest",
				Usage:  "print the most recently stored report",
				Flags:  []cli.Flag{dbFlag},
				Action: latestAction,
			},
		},
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	repo, err := repository.Open(ctx, c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	scraper := integration.NewTravelTimesScraper(c.String("url"), c.Duration("timeout"), integration.RowOptions{
		LegacyHOVMapping: c.Bool("legacy-hov"),
	})

	var publisher usecases.Publisher
	if url := c.String("redis-url"); url != "" {
		redisPublisher, err := integration.NewRedisPublisher(ctx, url, c.String("redis-channel"))
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, skipping live publishing")
		} else {
			defer redisPublisher.Close()
			publisher = redisPublisher
		}
	}

	runMetrics := metrics.NewRunMetrics()
	useCase := usecases.NewTravelTimeUseCase(repo, scraper, publisher, runMetrics)

	_, runErr := useCase.RefreshTravelTimes(ctx)

	if gateway := c.String("pushgateway"); gateway != "" {
		if err := runMetrics.Push(gateway); err != nil {
			log.Warn().Err(err).Msg("Failed to push run metrics")
		}
	}

	return runErr
}

func latestAction(c *cli.Context) error {
	repo, err := repository.Open(c.Context, c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	useCase := usecases.NewTravelTimeUseCase(repo, nil, nil, nil)
	observedAt, data, err := useCase.GetLatestTravelTimes(c.Context)
	if err != nil {
		return err
	}

	fmt.Fprint(c.App.Writer, useCase.FormatTravelTimes(observedAt, data))
	return nil
}
