package integration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abelzeko/travel-times/internal/entities"
	"github.com/redis/go-redis/v9"
)

// DefaultLiveChannel receives every stored travel time as JSON
const DefaultLiveChannel = "traveltimes:live"

// RedisPublisher announces stored travel times on a Redis channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to the Redis instance at url and checks it responds
func NewRedisPublisher(ctx context.Context, url, channel string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if channel == "" {
		channel = DefaultLiveChannel
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisPublisher{client: client, channel: channel}, nil
}

// Publish sends one travel time to the live channel
func (p *RedisPublisher) Publish(ctx context.Context, tt entities.TravelTime) error {
	payload, err := json.Marshal(tt)
	if err != nil {
		return fmt.Errorf("failed to encode travel time: %w", err)
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Close releases the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
