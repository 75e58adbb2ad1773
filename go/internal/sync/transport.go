package sync

import "errors"

// ErrTransportClosed is returned by Send after Close.
var ErrTransportClosed = errors.New("transport closed")

// Transport moves messages between same-machine auction contexts. Delivery
// is fire-and-forget, at-most-once, and must not be assumed ordered; the
// adapter's dedup-by-id makes application idempotent regardless.
//
// Implementations: MemBus endpoints (same process), NATSTransport (local
// broker), WSTransport (websocket relay). A browser window speaking the same
// JSON envelope over the relay is a peer like any other.
type Transport interface {
	// Send broadcasts one message to every other endpoint on the channel.
	Send(msg Message) error
	// SetHandler registers the receive callback. A nil handler drops
	// inbound messages.
	SetHandler(fn func(Message))
	// Close releases the channel. Safe to call more than once.
	Close() error
}
