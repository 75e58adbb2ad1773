// Package effects turns the store's event stream into side effects: sound
// cues, result overlays, assisted bidding, and keyboard dispatch. Every
// bridge in this package keys off the event id, so a replayed or duplicated
// event never fires an effect twice.
package effects

import (
	stdsync "sync"

	"github.com/rs/zerolog/log"

	"github.com/bwpl/auctioneer/go/internal/auction"
)

// SoundPlayer renders one sound cue. Implementations run off-process audio,
// push cues to connected presentation clients, or just log.
type SoundPlayer interface {
	Play(soundID string)
}

// LogPlayer logs cues instead of playing them. Used headless and in tests.
type LogPlayer struct{}

func (LogPlayer) Play(soundID string) {
	log.Info().Str("sound_id", soundID).Msg("sound cue")
}

// PlayerFunc adapts a function to SoundPlayer.
type PlayerFunc func(soundID string)

func (f PlayerFunc) Play(soundID string) { f(soundID) }

// DefaultSoundMap maps event types to their sound cue ids. Events missing
// from the map are silent; sound/play events carry their cue id in the
// payload instead.
func DefaultSoundMap() map[auction.EventType]string {
	return map[auction.EventType]string{
		auction.EventPlayerSelect: "playerSelect",
		auction.EventPlayerSold:   "sold",
		auction.EventPlayerUnsold: "unsold",
		auction.EventBidUpdate:    "bidUpdate",
		auction.EventViewChange:   "transition",
	}
}

// SoundBridge watches the store and fires one cue per event. The global
// sound toggle is read at fire time, so muting takes effect immediately.
type SoundBridge struct {
	store  *auction.Store
	player SoundPlayer
	sounds map[auction.EventType]string

	mu          stdsync.Mutex
	lastFiredID string
	unsubscribe func()
}

// NewSoundBridge creates a bridge with the default event-to-cue mapping.
func NewSoundBridge(store *auction.Store, player SoundPlayer) *SoundBridge {
	return &SoundBridge{
		store:  store,
		player: player,
		sounds: DefaultSoundMap(),
	}
}

// Attach subscribes to the store. Idempotent.
func (b *SoundBridge) Attach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		return
	}
	b.unsubscribe = b.store.Subscribe(func(prev, next auction.State) {
		b.onTransition(next)
	})
}

// Detach unsubscribes. Idempotent.
func (b *SoundBridge) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *SoundBridge) onTransition(next auction.State) {
	evt := next.LastEvent
	if evt == nil {
		return
	}

	b.mu.Lock()
	if evt.ID == b.lastFiredID {
		b.mu.Unlock()
		return
	}
	b.lastFiredID = evt.ID
	b.mu.Unlock()

	if !next.SoundEnabled {
		return
	}

	if evt.Type == auction.EventSoundPlay {
		if id, ok := evt.PayloadString("soundId"); ok {
			b.player.Play(id)
		}
		return
	}
	if id, ok := b.sounds[evt.Type]; ok {
		b.player.Play(id)
	}
}
