package queue

import (
	"context"
	"errors"
	"time"
)

// Package queue provides the write-behind buffer between request handling
// and the monitoring store, with two backends:
//
//  1. Memory queue (channel-based): no persistence, no external
//     dependencies. Used when Redis is not configured.
//  2. Redis queue (list-based): survives restarts and supports multiple
//     gateway instances draining into one store.

// ErrQueueClosed is returned when operating on a closed queue
var ErrQueueClosed = errors.New("queue is closed")

// Queue buffers items between producers and a draining worker.
type Queue interface {
	// Enqueue adds an item to the queue
	Enqueue(ctx context.Context, item interface{}) error

	// DequeueWithTimeout retrieves up to maxItems, waiting at most timeout
	// for the first one. Returns an empty slice on timeout.
	DequeueWithTimeout(ctx context.Context, maxItems int, timeout time.Duration) ([]interface{}, error)

	// Length returns the current queue length
	Length(ctx context.Context) (int, error)

	// Close shuts down the queue
	Close() error
}

// Config holds queue configuration
type Config struct {
	// QueueName is the name/key for the queue
	QueueName string

	// BatchSize is the maximum number of items drained per batch
	BatchSize int

	// BatchTimeout is how long the worker waits before draining a partial batch
	BatchTimeout time.Duration

	// RedisAddr selects the Redis backend when non-empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Zero values leave the client library defaults in place
	RedisDialTimeout  time.Duration
	RedisReadTimeout  time.Duration
	RedisWriteTimeout time.Duration
}

// DefaultConfig returns default queue configuration
func DefaultConfig(queueName string) *Config {
	return &Config{
		QueueName:    queueName,
		BatchSize:    100,
		BatchTimeout: 5 * time.Second,
	}
}
