package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bwpl/auctioneer/go/internal/auction"
	syncpkg "github.com/bwpl/auctioneer/go/internal/sync"
)

func TestAdapterSwapSafeUnderConcurrentReads(t *testing.T) {
	store := auction.NewStore()
	svc := &Services{
		Auction: store,
		adapter: syncpkg.NewAdapter(syncpkg.RoleAdmin, store, nil),
	}
	next := syncpkg.NewAdapter(syncpkg.RoleAdmin, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handlers read the adapter while the relay loopback swaps it in.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1_000; i++ {
			svc.Adapter().BroadcastDataUpdated()
		}
	}()
	go func() {
		defer wg.Done()
		svc.swapAdapter(ctx, next)
	}()
	wg.Wait()

	assert.Same(t, next, svc.Adapter())
}

func TestRelayLoopbackFailureKeepsExistingAdapter(t *testing.T) {
	store := auction.NewStore()
	orig := syncpkg.NewAdapter(syncpkg.RoleAdmin, store, nil)
	svc := &Services{Auction: store, adapter: orig}

	cfg := defaultConfig()
	cfg.Server.Port = "1" // nothing listens here

	svc.connectRelayLoopback(context.Background(), cfg)

	assert.Same(t, orig, svc.Adapter(), "a failed dial must not discard the adapter")
}
