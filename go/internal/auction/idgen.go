package auction

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces event ids. The only requirement is uniqueness within a
// context's lifetime; no cross-context ordering is assumed.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production generator.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return "evt_" + uuid.NewString()
}

// SequenceGenerator produces deterministic evt_<prefix>_<n> ids for tests.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Int64
}

func (g *SequenceGenerator) NewID() string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "evt"
	}
	return fmt.Sprintf("%s_%d", prefix, g.n.Add(1))
}
