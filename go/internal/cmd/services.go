package main

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/bwpl/auctioneer/go/internal/auction"
	"github.com/bwpl/auctioneer/go/internal/effects"
	"github.com/bwpl/auctioneer/go/internal/gateway"
	"github.com/bwpl/auctioneer/go/internal/storage"
	syncpkg "github.com/bwpl/auctioneer/go/internal/sync"
)

// Services holds the wired components of the admin process.
type Services struct {
	Store   *storage.Repository
	Cache   *storage.Cache
	Auction *auction.Store
	Relay   *gateway.Relay
	Bidder  *effects.AutoBidder
	Keymap  *effects.Keymap
	Sounds  *effects.SoundBridge
	Overlay *effects.OverlayController

	// adapter is swapped in relay mode after the HTTP server is already
	// serving, so reads go through Adapter().
	mu      stdsync.Mutex
	adapter *syncpkg.Adapter
}

// Adapter returns the live sync adapter.
func (s *Services) Adapter() *syncpkg.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter
}

// swapAdapter installs a new adapter, detaching the old one.
func (s *Services) swapAdapter(ctx context.Context, next *syncpkg.Adapter) {
	s.mu.Lock()
	prev := s.adapter
	s.adapter = next
	s.mu.Unlock()

	if prev != nil {
		prev.Detach()
	}
	next.Attach(ctx)
}

func setupServices(ctx context.Context, cfg *Config, pool *pgxpool.Pool) (*Services, error) {
	repo := storage.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	cache := storage.NewCache(repo)
	if err := cache.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("initial record load: %w", err)
	}

	// Resume the live auction from the state file if one survives.
	opts := []auction.Option{}
	if st, ok, err := auction.LoadState(cfg.Auction.StateFile); err != nil {
		return nil, fmt.Errorf("load auction state: %w", err)
	} else if ok {
		log.Info().Str("path", cfg.Auction.StateFile).Msg("resuming auction state")
		opts = append(opts, auction.WithState(st))
	}
	store := auction.NewStore(opts...)

	relay := gateway.NewRelay(gateway.DefaultRelayConfig())

	// The admin context joins the channel over NATS when configured;
	// otherwise it rides its own relay once the server is listening.
	var transport syncpkg.Transport
	if cfg.Sync.Mode == "nats" {
		natsCfg := syncpkg.DefaultNATSConfig()
		if cfg.Sync.NATSURL != "" {
			natsCfg.URL = cfg.Sync.NATSURL
		}
		natsCfg.Subject = cfg.Sync.Subject
		t, err := syncpkg.NewNATSTransport(natsCfg)
		if err != nil {
			// Degraded mode is survivable; the adapter logs and carries on.
			log.Warn().Err(err).Msg("NATS unavailable, sync degraded")
		} else {
			transport = t
		}
	}

	adapter := syncpkg.NewAdapter(syncpkg.RoleAdmin, store, transport, syncpkg.WithFetcher(cache))

	overlayCfg := effects.DefaultOverlayConfig()
	if cfg.Auction.SoldOverlay > 0 {
		overlayCfg.SoldDuration = cfg.Auction.SoldOverlay
	}
	if cfg.Auction.UnsoldOverlay > 0 {
		overlayCfg.UnsoldDuration = cfg.Auction.UnsoldOverlay
	}

	bidder := effects.NewAutoBidder(store, cache, cache.Config())
	svc := &Services{
		Store:   repo,
		Cache:   cache,
		Auction: store,
		Relay:   relay,
		Bidder:  bidder,
		Sounds:  effects.NewSoundBridge(store, effects.LogPlayer{}),
		Overlay: effects.NewOverlayController(store, effects.WithOverlayConfig(overlayCfg)),
		adapter: adapter,
	}
	svc.Keymap = effects.NewKeymap(store, bidder, effects.KeyActions{
		Sold: func() error {
			st := store.State()
			if st.CurrentPlayerID == nil || st.CurrentBiddingTeamID == nil {
				return effects.ErrNoCurrentLot
			}
			if err := bidder.CheckSale(); err != nil {
				return err
			}
			if err := repo.MarkSold(ctx, *st.CurrentPlayerID, *st.CurrentBiddingTeamID, st.CurrentBid); err != nil {
				return err
			}
			store.MarkSold(*st.CurrentPlayerID, *st.CurrentBiddingTeamID, st.CurrentBid)
			return cache.Refresh(ctx)
		},
		Unsold: func() error {
			st := store.State()
			if st.CurrentPlayerID == nil {
				return effects.ErrNoCurrentLot
			}
			if err := repo.MarkUnsold(ctx, *st.CurrentPlayerID); err != nil {
				return err
			}
			store.MarkUnsold(*st.CurrentPlayerID)
			return cache.Refresh(ctx)
		},
		BasePrice: func(playerID uuid.UUID) int64 {
			leagueCfg := cache.Config()
			if p, ok := cache.Player(playerID); ok {
				if tier, ok := leagueCfg.TierByID(p.Tier); ok {
					return tier.BasePrice
				}
			}
			return leagueCfg.CheapestTierBasePrice()
		},
	})

	adapter.Attach(ctx)
	svc.Sounds.Attach()
	svc.Overlay.Attach()
	return svc, nil
}

const (
	loopbackDialAttempts = 5
	loopbackDialDelay    = 200 * time.Millisecond
)

// connectRelayLoopback joins the admin adapter to its own relay. Only used in
// relay mode. The dial races server startup, so it retries before declaring
// the channel degraded; a failure keeps the existing adapter in place.
func (s *Services) connectRelayLoopback(ctx context.Context, cfg *Config) {
	url := fmt.Sprintf("ws://127.0.0.1:%s/ws", cfg.Server.Port)

	var t *syncpkg.WSTransport
	var err error
	for attempt := 1; attempt <= loopbackDialAttempts; attempt++ {
		t, err = syncpkg.NewWSTransport(url)
		if err == nil {
			break
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("relay loopback dial failed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(loopbackDialDelay):
		}
	}
	if err != nil {
		log.Warn().Err(err).Msg("relay loopback unavailable, sync degraded")
		return
	}

	s.swapAdapter(ctx, syncpkg.NewAdapter(syncpkg.RoleAdmin, s.Auction, t, syncpkg.WithFetcher(s.Cache)))
}

// Close releases everything in reverse wiring order.
func (s *Services) Close() {
	s.Overlay.Detach()
	s.Sounds.Detach()
	s.Adapter().Detach()
}
