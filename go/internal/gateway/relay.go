// Package gateway exposes the sync channel to remote peers over websockets.
// The relay is intentionally dumb: it validates the envelope and fans every
// message out to every other connection. Dedup and role policy live in the
// sync adapter on each peer, so a browser window speaking the same JSON is a
// first-class participant.
package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	syncpkg "github.com/bwpl/auctioneer/go/internal/sync"
)

// RelayConfig holds the relay's connection tuning.
type RelayConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	SendBufferSize  int
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultRelayConfig returns the stock tuning. Snapshots carry the whole
// auction state, so the message cap is generous.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		SendBufferSize:  256,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Same-machine tool, no origin restriction.
			return true
		},
	}
}

// Relay fans sync messages out across websocket connections.
type Relay struct {
	config   RelayConfig
	upgrader websocket.Upgrader

	mu    stdsync.RWMutex
	conns map[*relayConn]struct{}
}

type relayConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewRelay creates an empty relay.
func NewRelay(config RelayConfig) *Relay {
	return &Relay{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		conns: make(map[*relayConn]struct{}),
	}
}

// ServeHTTP upgrades the request and joins the connection to the relay.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ws, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &relayConn{
		id:   uuid.New().String(),
		conn: ws,
		send: make(chan []byte, r.config.SendBufferSize),
	}
	r.register(c)

	go r.writePump(c)
	go r.readPump(c)

	log.Info().Str("connection_id", c.id).Str("remote", req.RemoteAddr).Msg("relay peer connected")
}

// ConnectionCount returns the number of live peers.
func (r *Relay) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Relay) register(c *relayConn) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
}

func (r *Relay) unregister(c *relayConn) {
	r.mu.Lock()
	if _, ok := r.conns[c]; ok {
		delete(r.conns, c)
		close(c.send)
	}
	r.mu.Unlock()
}

// fanOut delivers raw bytes to every connection except the sender. A peer
// whose buffer is full is dropped rather than allowed to stall the rest.
func (r *Relay) fanOut(from *relayConn, data []byte) {
	r.mu.RLock()
	targets := make([]*relayConn, 0, len(r.conns))
	for c := range r.conns {
		if c != from {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("connection_id", c.id).Msg("peer send buffer full, dropping connection")
			r.unregister(c)
			c.conn.Close()
		}
	}
}

func (r *Relay) readPump(c *relayConn) {
	defer func() {
		r.unregister(c)
		c.conn.Close()
		log.Info().Str("connection_id", c.id).Msg("relay peer disconnected")
	}()

	c.conn.SetReadLimit(r.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(r.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(r.config.ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.id).Msg("relay read error")
			}
			return
		}
		if err := validateEnvelope(data); err != nil {
			log.Warn().Err(err).Str("connection_id", c.id).Msg("dropping invalid relay message")
			continue
		}
		r.fanOut(c, data)
	}
}

func (r *Relay) writePump(c *relayConn) {
	ticker := time.NewTicker(r.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// validateEnvelope rejects messages that are not well-formed sync envelopes
// before they reach any peer.
func validateEnvelope(data []byte) error {
	var msg syncpkg.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	switch msg.Type {
	case syncpkg.MsgStateSync, syncpkg.MsgEvent, syncpkg.MsgDataUpdated, syncpkg.MsgRequestSync:
		return nil
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}
