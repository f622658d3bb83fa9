// Package redis implements hosewatch storage on top of Redis.
package redis

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

// DefaultJournalMaxLen is the approximate number of entries kept per journal stream.
const DefaultJournalMaxLen = 10_000

type client struct {
	conn          *redis.Client
	journalMaxLen int64
}

func (c *client) Close() error {
	return c.conn.Close()
}

type config struct {
	journalMaxLen int64
}

// Option configures optional client settings.
type Option func(*config)

// WithJournalMaxLen caps every notification journal stream at roughly n entries.
func WithJournalMaxLen(n int64) Option {
	return func(c *config) {
		c.journalMaxLen = n
	}
}

// NewClient connects to Redis and checks the connection with a PING.
func NewClient(ctx context.Context, addr, username, password string, db int, opts ...Option) (*client, error) {
	cfg := config{
		journalMaxLen: DefaultJournalMaxLen,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, err
	}

	return &client{
		conn:          conn,
		journalMaxLen: cfg.journalMaxLen,
	}, nil
}
