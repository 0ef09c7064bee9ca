package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"backtest-systemv1/internal/scanner"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: roughly a month of hourly scans + buffer
	opportunityStreamMaxLen = 1000
	defaultLatestTTL        = 24 * time.Hour

	opportunityStream = "scan:opportunities"
	latestScanKey     = "scan:latest"
	scanPubSubChannel = "pub:scan:opportunities"
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher pushes scan results to Redis for downstream consumers: a capped
// stream for history, a latest-snapshot key, and a pub/sub channel for live
// dashboards.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a new Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// scanBatch is the wire format for one published scan.
type scanBatch struct {
	ScannedAt     time.Time             `json:"scanned_at"`
	Opportunities []scanner.Opportunity `json:"opportunities"`
}

// PublishScan writes one scan's opportunities in a single pipeline:
// XADD to the capped history stream, SET of the latest snapshot with TTL,
// and PUBLISH for live subscribers.
func (p *Publisher) PublishScan(ctx context.Context, opps []scanner.Opportunity) error {
	batch := scanBatch{ScannedAt: time.Now().UTC(), Opportunities: opps}
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal scan batch: %w", err)
	}
	payload := string(data)

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: opportunityStream,
		MaxLen: opportunityStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": payload},
	})
	pipe.Set(ctx, latestScanKey, payload, defaultLatestTTL)
	pipe.Publish(ctx, scanPubSubChannel, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis scan pipeline: %w", err)
	}
	return nil
}

// LatestScan reads back the most recent published snapshot. Returns
// (nil, nil) when no scan has been published yet or the key expired.
func (p *Publisher) LatestScan(ctx context.Context) ([]scanner.Opportunity, error) {
	data, err := p.client.Get(ctx, latestScanKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET %s: %w", latestScanKey, err)
	}

	var batch scanBatch
	if err := json.Unmarshal([]byte(data), &batch); err != nil {
		return nil, fmt.Errorf("unmarshal scan batch: %w", err)
	}
	return batch.Opportunities, nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
