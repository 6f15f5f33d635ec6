// Package redis publishes traversal results to Redis: a capped per-device
// history list plus a latest-result key, both as JSON.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/angelstreet/virtualpytest-sub017/pkg/execution"
)

// Sink implements execution.Sink on a Redis backend.
type Sink struct {
	client     *backend.Client
	prefix     string
	ttl        time.Duration
	maxHistory int64
}

var _ execution.Sink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithPrefix sets the key prefix. Defaults to "navengine:".
func WithPrefix(prefix string) Option {
	return func(s *Sink) { s.prefix = prefix }
}

// WithTTL sets the expiration applied to both keys. Zero means no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Sink) { s.ttl = ttl }
}

// WithMaxHistory caps the per-device history list length. Defaults to 100;
// zero or negative disables trimming.
func WithMaxHistory(n int64) Option {
	return func(s *Sink) { s.maxHistory = n }
}

// New creates a sink with its own client.
func New(address, password string, db int, opts ...Option) *Sink {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a sink over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Sink {
	s := &Sink{
		client:     client,
		prefix:     "navengine:",
		maxHistory: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) historyKey(deviceID string) string {
	return s.prefix + "results:" + deviceID
}

func (s *Sink) latestKey(deviceID string) string {
	return s.prefix + "latest:" + deviceID
}

// Publish appends the result to the device's history list and overwrites
// the device's latest-result key, atomically via pipeline.
func (s *Sink) Publish(ctx context.Context, result *execution.Result) error {
	if result == nil {
		return errors.New("nil result")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.historyKey(result.DeviceID), data)
	if s.maxHistory > 0 {
		pipe.LTrim(ctx, s.historyKey(result.DeviceID), -s.maxHistory, -1)
	}
	pipe.Set(ctx, s.latestKey(result.DeviceID), data, s.ttl)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.historyKey(result.DeviceID), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// Latest fetches the most recent result for a device. Missing devices
// report backend.Nil via the wrapped error.
func (s *Sink) Latest(ctx context.Context, deviceID string) (*execution.Result, error) {
	val, err := s.client.Get(ctx, s.latestKey(deviceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get latest result: %w", err)
	}

	var result execution.Result
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

// History fetches the device's results, oldest first.
func (s *Sink) History(ctx context.Context, deviceID string) ([]execution.Result, error) {
	vals, err := s.client.LRange(ctx, s.historyKey(deviceID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	results := make([]execution.Result, 0, len(vals))
	for _, val := range vals {
		var result execution.Result
		if err := json.Unmarshal([]byte(val), &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Close closes the underlying client.
func (s *Sink) Close() error {
	return s.client.Close()
}
