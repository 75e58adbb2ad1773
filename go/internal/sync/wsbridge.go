package sync

import (
	"encoding/json"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 64
)

// WSTransport is a websocket client on the relay. The relay fans every
// message out to every other connected peer, which includes browser windows
// speaking the same JSON envelope.
type WSTransport struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	mu      stdsync.Mutex
	handler func(Message)
	closed  bool
}

var _ Transport = (*WSTransport)(nil)

// NewWSTransport dials the relay and starts the read and write pumps.
func NewWSTransport(url string) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}

	t := &WSTransport{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}
	go t.readPump()
	go t.writePump()

	log.Info().Str("url", url).Msg("sync channel connected to relay")
	return t, nil
}

func (t *WSTransport) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal sync message: %w", err)
	}
	select {
	case t.send <- data:
		return nil
	case <-t.done:
		return ErrTransportClosed
	}
}

func (t *WSTransport) SetHandler(fn func(Message)) {
	t.mu.Lock()
	t.handler = fn
	t.mu.Unlock()
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.handler = nil
	t.mu.Unlock()

	close(t.done)
	return t.conn.Close()
}

func (t *WSTransport) readPump() {
	defer t.Close()

	t.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	t.conn.SetPongHandler(func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("relay read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("dropping undecodable relay message")
			continue
		}

		t.mu.Lock()
		fn := t.handler
		t.mu.Unlock()
		if fn != nil {
			fn(msg)
		}
	}
}

func (t *WSTransport) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-t.send:
			t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Msg("relay write error")
				return
			}
		case <-ticker.C:
			t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-t.done:
			t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			t.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
