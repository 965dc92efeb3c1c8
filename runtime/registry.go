package runtime

import (
	"sync"

	"github.com/arfis/waiting-room-sub002/contract"
	"github.com/arfis/waiting-room-sub002/domain"
)

type Set map[string]struct{}

// Subscription is one live subscriber: a display connected to a room with the
// status filter it wants to see.
type Subscription struct {
	ID     string
	RoomID string
	Filter domain.StatusFilter
	Sink   contract.SnapshotSink
}

// Registry tracks the live subscriber set per room. It decouples subscriber
// identity from room membership so eviction only needs the subscription id.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]Subscription // subscription id -> subscription
	roomMembers map[string]Set          // room id -> subscription ids
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]Subscription),
		roomMembers: make(map[string]Set),
	}
}

// Subscribe registers a subscriber for a room. If the room has no subscriber
// set yet it is initialized on the fly.
func (r *Registry) Subscribe(sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sub.ID] = sub

	if _, ok := r.roomMembers[sub.RoomID]; !ok {
		r.roomMembers[sub.RoomID] = make(Set)
	}
	r.roomMembers[sub.RoomID][sub.ID] = struct{}{}
}

// Unsubscribe removes a subscriber. It is idempotent and leaves no empty room
// sets behind.
func (r *Registry) Unsubscribe(subscriptionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.sessions[subscriptionID]
	if !ok {
		return
	}
	delete(r.sessions, subscriptionID)

	if members, ok := r.roomMembers[sub.RoomID]; ok {
		delete(members, subscriptionID)
		if len(members) == 0 {
			delete(r.roomMembers, sub.RoomID)
		}
	}
}

// SubscriptionsForRoom returns the active subscriptions of a room. Returns
// nil when the room has no subscribers.
func (r *Registry) SubscriptionsForRoom(roomID string) []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var subs []Subscription
	for id := range members {
		if sub, exists := r.sessions[id]; exists {
			subs = append(subs, sub)
		}
	}
	return subs
}
