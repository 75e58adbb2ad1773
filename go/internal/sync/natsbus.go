package sync

import (
	"encoding/json"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig configures the broker-backed channel.
type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the local-broker defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Subject:       "auction.sync",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSTransport carries sync messages over a core NATS subject. Every
// process on the subject sees every publish, including its own; the
// adapter's self-echo drop handles the loopback, so no queue groups or
// streams are involved. Plain pub/sub matches the channel's at-most-once
// contract, and a missed message is healed by the next snapshot.
type NATSTransport struct {
	nc      *nats.Conn
	subject string

	mu      stdsync.Mutex
	sub     *nats.Subscription
	handler func(Message)
	closed  bool
}

var _ Transport = (*NATSTransport)(nil)

// NewNATSTransport connects to the broker and subscribes to the sync subject.
func NewNATSTransport(cfg NATSConfig) (*NATSTransport, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	t := &NATSTransport{nc: nc, subject: cfg.Subject}

	sub, err := nc.Subscribe(cfg.Subject, t.onMessage)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", cfg.Subject, err)
	}
	t.sub = sub

	log.Info().Str("url", cfg.URL).Str("subject", cfg.Subject).Msg("sync channel connected to NATS")
	return t, nil
}

func (t *NATSTransport) Send(msg Message) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal sync message: %w", err)
	}
	if err := t.nc.Publish(t.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", t.subject, err)
	}
	return nil
}

func (t *NATSTransport) SetHandler(fn func(Message)) {
	t.mu.Lock()
	t.handler = fn
	t.mu.Unlock()
}

func (t *NATSTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.handler = nil
	sub := t.sub
	t.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("unsubscribe failed")
		}
	}
	t.nc.Close()
	return nil
}

func (t *NATSTransport) onMessage(m *nats.Msg) {
	var msg Message
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		log.Warn().Err(err).Str("subject", m.Subject).Msg("dropping undecodable sync message")
		return
	}

	t.mu.Lock()
	fn := t.handler
	t.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}
