// Package runtime coordinates queue mutations and snapshot propagation. It
// orchestrates the store, the ranking engine and the subscriber registry
// without containing priority rules itself.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/arfis/waiting-room-sub002/contract"
	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/ranking"
	"github.com/arfis/waiting-room-sub002/store"
)

// Hub fans ranked snapshots out to the live subscribers of each room.
//
// It provides whole-list replacement delivery with no replay: a subscriber
// that reconnects gets a fresh snapshot, not the messages it missed. Delivery
// to one subscriber never blocks the others; a sink that cannot absorb a
// snapshot within the write timeout is evicted.
//
// Hub is a contract.Worker: publishes requested through Publish are applied
// by Run, coalesced per room by store version.
type Hub struct {
	log         *slog.Logger
	registry    *Registry
	engine      *ranking.Engine
	store       *store.Store
	provider    contract.ConfigProvider
	sinkTimeout time.Duration

	mu            sync.Mutex
	dirty         map[string]struct{}
	wake          chan struct{}
	lastPublished map[string]uint64

	evictions EvictionCounter
}

// EvictionCounter is the slice of the telemetry monitor the hub feeds.
type EvictionCounter interface {
	IncrEvictions()
}

func NewHub(log *slog.Logger, registry *Registry, engine *ranking.Engine,
	s *store.Store, provider contract.ConfigProvider, sinkTimeout time.Duration) *Hub {
	return &Hub{
		log:           log,
		registry:      registry,
		engine:        engine,
		store:         s,
		provider:      provider,
		sinkTimeout:   sinkTimeout,
		dirty:         make(map[string]struct{}),
		wake:          make(chan struct{}, 1),
		lastPublished: make(map[string]uint64),
	}
}

// SetEvictionCounter attaches telemetry. Optional; call before Run.
func (h *Hub) SetEvictionCounter(counter EvictionCounter) {
	h.evictions = counter
}

// Subscribe registers a sink for a room and immediately delivers the current
// snapshot; the subscriber does not wait for the next mutation. The returned
// handle is passed to Unsubscribe.
func (h *Hub) Subscribe(ctx context.Context, roomID string, filter domain.StatusFilter, sink contract.SnapshotSink) (string, error) {
	// Reject unknown rooms before registering anything.
	version, err := h.store.Version(roomID)
	if err != nil {
		return "", err
	}

	snapshot, err := h.snapshot(ctx, roomID, filter, time.Now())
	if err != nil {
		return "", fmt.Errorf("initial snapshot: %w", err)
	}
	snapshot.Version = version

	// The initial delivery happens before registration: a concurrent fanout
	// must not hand this sink a newer snapshot that the initial one would
	// then overwrite.
	sub := Subscription{ID: uuid.NewString(), RoomID: roomID, Filter: filter, Sink: sink}
	if err := h.deliver(ctx, sub, snapshot); err != nil {
		return "", fmt.Errorf("initial delivery: %w", err)
	}
	h.registry.Subscribe(sub)

	// Mutations fanned out between the version read and registration missed
	// this subscriber. Clearing the published mark forces the next fanout
	// through the coalescing check.
	if current, err := h.store.Version(roomID); err == nil && current != version {
		h.mu.Lock()
		delete(h.lastPublished, roomID)
		h.mu.Unlock()
		h.Publish(roomID)
	}

	h.log.Debug("Subscriber registered", "room", roomID, "subscription", sub.ID)
	return sub.ID, nil
}

// Unsubscribe releases the subscriber's slot. Idempotent.
func (h *Hub) Unsubscribe(subscriptionID string) {
	h.registry.Unsubscribe(subscriptionID)
}

// Publish marks the room dirty and wakes the fanout loop. It never blocks the
// calling mutation: bursts of mutations on one room coalesce into a single
// fanout per observed store version.
func (h *Hub) Publish(roomID string) {
	h.mu.Lock()
	h.dirty[roomID] = struct{}{}
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Run consumes publish requests until the context is canceled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("Context done, stopping hub fanout")
			return nil
		case <-h.wake:
			for _, roomID := range h.drain() {
				h.fanout(ctx, roomID)
			}
		}
	}
}

func (h *Hub) drain() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms := lo.Keys(h.dirty)
	h.dirty = make(map[string]struct{})
	return rooms
}

// fanout recomputes the ranked view once per distinct subscribed filter and
// delivers it to every matching subscriber in parallel. A failing subscriber
// is evicted; the publish itself is never aborted.
func (h *Hub) fanout(ctx context.Context, roomID string) {
	subs := h.registry.SubscriptionsForRoom(roomID)
	if len(subs) == 0 {
		return
	}

	version, err := h.store.Version(roomID)
	if err != nil {
		h.log.Warn("Publish for unknown room dropped", "room", roomID, "error", err)
		return
	}
	h.mu.Lock()
	alreadyPublished := h.lastPublished[roomID] == version
	h.mu.Unlock()
	if alreadyPublished {
		return
	}

	now := time.Now()
	snapshots := make(map[string]domain.Snapshot)
	var wg sync.WaitGroup
	for _, sub := range subs {
		key := sub.Filter.Key()
		snapshot, ok := snapshots[key]
		if !ok {
			snapshot, err = h.snapshot(ctx, roomID, sub.Filter, now)
			if err != nil {
				h.log.Error("Snapshot computation failed", "room", roomID, "error", err)
				continue
			}
			snapshot.Version = version
			snapshots[key] = snapshot
		}

		wg.Add(1)
		go func(sub Subscription, snapshot domain.Snapshot) {
			defer wg.Done()
			if err := h.deliver(ctx, sub, snapshot); err != nil {
				// Unresponsive subscriber: evict, never surface to others.
				h.log.Warn("Evicting unresponsive subscriber",
					"room", roomID, "subscription", sub.ID, "error", err)
				h.registry.Unsubscribe(sub.ID)
				if h.evictions != nil {
					h.evictions.IncrEvictions()
				}
			}
		}(sub, snapshot)
	}
	wg.Wait()

	h.mu.Lock()
	h.lastPublished[roomID] = version
	h.mu.Unlock()
}

// deliver pushes one snapshot into one sink, bounded by the write timeout.
func (h *Hub) deliver(ctx context.Context, sub Subscription, snapshot domain.Snapshot) error {
	writeCtx, cancel := context.WithTimeout(ctx, h.sinkTimeout)
	defer cancel()
	return sub.Sink.Consume(writeCtx, snapshot)
}

func (h *Hub) snapshot(ctx context.Context, roomID string, filter domain.StatusFilter, now time.Time) (domain.Snapshot, error) {
	config, err := h.provider.PriorityConfig(ctx, roomID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	ranked, err := h.engine.Rank(roomID, filter, config, now)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return toSnapshot(roomID, filter, ranked), nil
}

func toSnapshot(roomID string, filter domain.StatusFilter, ranked []domain.RankedEntry) domain.Snapshot {
	return domain.Snapshot{
		RoomID: roomID,
		Filter: filter,
		Entries: lo.Map(ranked, func(r domain.RankedEntry, _ int) domain.SnapshotEntry {
			return domain.SnapshotEntry{
				ID:              r.ID,
				TicketNumber:    r.TicketNumber,
				Status:          r.Status,
				Position:        r.Position,
				ServicePoint:    r.ServicePoint,
				ServiceName:     r.ServiceName,
				ServiceDuration: r.ServiceDurationMinutes,
				CreatedAt:       r.CreatedAt,
				CardData:        r.CardData,
			}
		}),
	}
}
