package sync

import (
	stdsync "sync"
)

// MemBus is an in-process stand-in for the browser's BroadcastChannel: every
// endpoint sees every message sent by any other endpoint, never its own.
// Delivery is synchronous on the sender's goroutine, which keeps tests
// deterministic; handlers must therefore not call back into Send in a way
// that loops (the adapter's self-echo drop already prevents this).
type MemBus struct {
	mu        stdsync.Mutex
	endpoints map[*MemEndpoint]struct{}
}

// NewMemBus creates an empty bus.
func NewMemBus() *MemBus {
	return &MemBus{endpoints: make(map[*MemEndpoint]struct{})}
}

// Endpoint opens a new endpoint on the bus. Each context owns exactly one.
func (b *MemBus) Endpoint() *MemEndpoint {
	ep := &MemEndpoint{bus: b}
	b.mu.Lock()
	b.endpoints[ep] = struct{}{}
	b.mu.Unlock()
	return ep
}

func (b *MemBus) broadcast(from *MemEndpoint, msg Message) {
	b.mu.Lock()
	targets := make([]*MemEndpoint, 0, len(b.endpoints))
	for ep := range b.endpoints {
		if ep != from {
			targets = append(targets, ep)
		}
	}
	b.mu.Unlock()

	for _, ep := range targets {
		ep.deliver(msg)
	}
}

func (b *MemBus) remove(ep *MemEndpoint) {
	b.mu.Lock()
	delete(b.endpoints, ep)
	b.mu.Unlock()
}

// MemEndpoint is one context's handle on a MemBus.
type MemEndpoint struct {
	bus *MemBus

	mu      stdsync.Mutex
	handler func(Message)
	closed  bool
}

var _ Transport = (*MemEndpoint)(nil)

func (ep *MemEndpoint) Send(msg Message) error {
	ep.mu.Lock()
	closed := ep.closed
	ep.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}
	ep.bus.broadcast(ep, msg)
	return nil
}

func (ep *MemEndpoint) SetHandler(fn func(Message)) {
	ep.mu.Lock()
	ep.handler = fn
	ep.mu.Unlock()
}

func (ep *MemEndpoint) Close() error {
	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		return nil
	}
	ep.closed = true
	ep.handler = nil
	ep.mu.Unlock()
	ep.bus.remove(ep)
	return nil
}

func (ep *MemEndpoint) deliver(msg Message) {
	ep.mu.Lock()
	fn := ep.handler
	ep.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}
