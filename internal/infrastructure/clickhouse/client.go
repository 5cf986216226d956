package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Client wraps a process-wide ClickHouse connection pool. The pool is
// opened lazily on first use and reused for the life of the process;
// the driver synchronizes concurrent queries internally.
type Client struct {
	cfg *config.ClickHouseConfig
	log *zap.Logger

	mu   sync.Mutex
	conn driver.Conn
}

// NewClient creates a client; no connection is made yet
func NewClient(cfg *config.ClickHouseConfig, log *zap.Logger) *Client {
	return &Client{cfg: cfg, log: log.Named("clickhouse")}
}

// Conn returns the shared connection, opening it on first call. A
// failed open is not latched: the next call dials again, so a transient
// outage at first request does not poison the process.
func (c *Client) Conn(ctx context.Context) (driver.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}

	dialTimeout := c.cfg.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 10 * time.Second
	}
	options := &clickhouse.Options{
		Addr: []string{c.cfg.Addr()},
		Auth: clickhouse.Auth{
			Database: c.cfg.Database,
			Username: c.cfg.User,
			Password: c.cfg.Password,
		},
		DialTimeout:     dialTimeout,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		Compression:     &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	}
	if c.cfg.Secure {
		options.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("%w: open clickhouse: %v", shared.ErrBackendFailure, err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: ping clickhouse: %v", shared.ErrBackendFailure, err)
	}
	c.conn = conn
	c.log.Info("clickhouse connection established", zap.String("addr", c.cfg.Addr()))
	return c.conn, nil
}

// Close shuts the pool down if it was ever opened
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
