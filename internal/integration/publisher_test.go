package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/abelzeko/travel-times/internal/entities"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisherPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	publisher, err := NewRedisPublisher(ctx, "redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer publisher.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sub := client.Subscribe(ctx, DefaultLiveChannel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	tt := entities.TravelTime{
		ObservedAt:    time.Date(2011, time.March, 8, 15, 25, 0, 0, time.UTC),
		Roads:         []string{"I-5"},
		FromCity:      "Everett",
		ToCity:        "Seattle",
		Distance:      240,
		CurrentTime:   41,
		CurrentRating: entities.RatingBad,
	}
	require.NoError(t, publisher.Publish(ctx, tt))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultLiveChannel, msg.Channel)

	var got entities.TravelTime
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "Everett", got.FromCity)
	assert.Equal(t, []string{"I-5"}, got.Roads)
	assert.Equal(t, entities.RatingBad, got.CurrentRating)
	assert.True(t, got.ObservedAt.Equal(tt.ObservedAt))
}

func TestNewRedisPublisherErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewRedisPublisher(ctx, "not a url", "")
	assert.Error(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err = NewRedisPublisher(ctx, "redis://"+addr, "custom")
	assert.Error(t, err)
}
