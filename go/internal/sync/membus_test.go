package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemBusDeliversToAllButSender(t *testing.T) {
	bus := NewMemBus()
	a, b, c := bus.Endpoint(), bus.Endpoint(), bus.Endpoint()

	var aGot, bGot, cGot []Message
	a.SetHandler(func(m Message) { aGot = append(aGot, m) })
	b.SetHandler(func(m Message) { bGot = append(bGot, m) })
	c.SetHandler(func(m Message) { cGot = append(cGot, m) })

	require.NoError(t, a.Send(NewRequestSync(RolePresentation, 1)))

	assert.Empty(t, aGot, "sender never hears its own message")
	assert.Len(t, bGot, 1)
	assert.Len(t, cGot, 1)
}

func TestMemBusClosedEndpoint(t *testing.T) {
	bus := NewMemBus()
	a, b := bus.Endpoint(), bus.Endpoint()

	var got []Message
	b.SetHandler(func(m Message) { got = append(got, m) })

	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "close is idempotent")

	assert.ErrorIs(t, b.Send(NewRequestSync(RoleAdmin, 1)), ErrTransportClosed)

	// A closed endpoint no longer receives either.
	require.NoError(t, a.Send(NewRequestSync(RoleAdmin, 2)))
	assert.Empty(t, got)
}

func TestMemBusNilHandlerDropsMessages(t *testing.T) {
	bus := NewMemBus()
	a, _ := bus.Endpoint(), bus.Endpoint()

	assert.NotPanics(t, func() {
		require.NoError(t, a.Send(NewDataUpdated(RoleAdmin, 1)))
	})
}
