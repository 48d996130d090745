// Package notify announces completed computation runs to other services.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunSummary is the message published after each run.
type RunSummary struct {
	At               time.Time `json:"at"`
	DurationMS       int64     `json:"duration_ms"`
	Trips            int       `json:"trips"`
	ZoneHours        int       `json:"zone_hours"`
	RevenueZones     int       `json:"revenue_zones"`
	SkippedPickups   int       `json:"skipped_pickups"`
	MissingDurations int       `json:"missing_durations"`
	InvalidAmounts   int       `json:"invalid_amounts"`
	Error            string    `json:"error,omitempty"`
}

// Publisher sends run summaries somewhere.
type Publisher interface {
	Publish(ctx context.Context, s RunSummary) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, RunSummary) error { return nil }
func (Nop) Close() error                               { return nil }

// RedisPublisher publishes JSON summaries on a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedis connects to url and verifies it with PING.
func NewRedis(ctx context.Context, url, channel string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisPublisher{client: client, channel: channel}, nil
}

// Publish encodes s and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, s RunSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Close closes the client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Open returns a Redis publisher when url is set, otherwise Nop.
func Open(ctx context.Context, url, channel string) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	return NewRedis(ctx, url, channel)
}
