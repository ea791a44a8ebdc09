package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Config holds NATS connection configuration
type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns a default NATS configuration with production-ready settings
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Client wraps the NATS connection and JetStream context
type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	config Config
	logger *logrus.Logger
}

// NewClient creates a new NATS client with production-ready settings
func NewClient(cfg Config, logger *logrus.Logger) (*Client, error) {
	maxReconnects := cfg.MaxReconnects
	if maxReconnects == 0 {
		maxReconnects = -1
	}

	opts := []nats.Option{
		nats.Name("accreditation-service"),
		nats.Timeout(10 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectBufSize(8 * 1024 * 1024),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.WithError(err).Error("NATS error")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{
		conn:   conn,
		js:     js,
		config: cfg,
		logger: logger,
	}

	// Stream creation is best-effort: the service must come up even when the
	// broker is temporarily unavailable.
	if err := client.ensureStream(); err != nil {
		logger.WithError(err).Warn("failed to ensure accreditation stream")
	}

	logger.WithField("url", cfg.URL).Info("Connected to NATS")
	return client, nil
}

// Close drains and closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Drain()
		c.conn.Close()
	}
}

// JetStream returns the JetStream context
func (c *Client) JetStream() nats.JetStreamContext {
	return c.js
}

// IsConnected returns true if connected to NATS
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// ensureStream creates the ACCREDITATION_EVENTS stream if it doesn't exist
func (c *Client) ensureStream() error {
	streamCfg := nats.StreamConfig{
		Name:        "ACCREDITATION_EVENTS",
		Description: "Accreditation workflow notification events",
		Subjects:    []string{"accreditation.>"},
		Storage:     nats.FileStorage,
		Retention:   nats.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		MaxMsgs:     100000,
		Discard:     nats.DiscardOld,
		Replicas:    1,
	}

	_, err := c.js.StreamInfo(streamCfg.Name)
	if err == nats.ErrStreamNotFound {
		_, err = c.js.AddStream(&streamCfg)
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
		c.logger.Info("Created ACCREDITATION_EVENTS stream")
	} else if err != nil {
		return fmt.Errorf("failed to check stream: %w", err)
	}

	return nil
}
