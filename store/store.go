// Package store holds the in-memory authoritative table of queue entries.
// Each room is an independently lockable arena so operations on one room
// never block another.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/errors"
)

// now is swapped out in tests.
var now = time.Now

// Store is the EntryStore. Entries are kept by room then entry id. Every
// successful mutation bumps the room's monotonic version counter; the hub
// uses it to decide whether a publish is warranted.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*arena
}

type arena struct {
	mu        sync.RWMutex
	entries   map[string]domain.Entry
	version   uint64
	ticketSeq uint64
}

func New() *Store {
	return &Store{rooms: make(map[string]*arena)}
}

// EnsureRoom registers a room arena. Rooms come from the admin collaborator;
// registering twice is a no-op.
func (s *Store) EnsureRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		s.rooms[roomID] = &arena{entries: make(map[string]domain.Entry)}
	}
}

func (s *Store) room(roomID string) (*arena, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", roomID, errors.ErrRoomNotFound)
	}
	return a, nil
}

// Upsert inserts or replaces an entry. The room must already be registered.
func (s *Store) Upsert(entry domain.Entry) error {
	a, err := s.room(entry.RoomID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[entry.ID] = entry
	a.version++
	return nil
}

// Get returns a copy of the entry.
func (s *Store) Get(roomID, entryID string) (domain.Entry, error) {
	a, err := s.room(roomID)
	if err != nil {
		return domain.Entry{}, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	entry, ok := a.entries[entryID]
	if !ok {
		return domain.Entry{}, fmt.Errorf("entry %q in room %q: %w", entryID, roomID, errors.ErrEntryNotFound)
	}
	return entry, nil
}

// List returns all entries in the room matching the filter, in no particular
// order. The result is a copy: callers rank or mutate it freely without
// observing later store changes.
func (s *Store) List(roomID string, filter domain.StatusFilter) ([]domain.Entry, error) {
	a, err := s.room(roomID)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []domain.Entry
	for _, entry := range a.entries {
		if filter.Contains(entry.Status) {
			out = append(out, entry)
		}
	}
	return out, nil
}

// MutateStatus validates the transition against the status machine, applies
// it and returns the updated entry.
func (s *Store) MutateStatus(roomID, entryID string, next domain.Status) (domain.Entry, error) {
	a, err := s.room(roomID)
	if err != nil {
		return domain.Entry{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.entries[entryID]
	if !ok {
		return domain.Entry{}, fmt.Errorf("entry %q in room %q: %w", entryID, roomID, errors.ErrEntryNotFound)
	}
	if !entry.Status.CanTransition(next) {
		return domain.Entry{}, fmt.Errorf("%s -> %s: %w", entry.Status, next, errors.ErrInvalidTransition)
	}
	entry.Status = next
	entry.UpdatedAt = now()
	a.entries[entryID] = entry
	a.version++
	return entry, nil
}

// Claim transitions the entry to CALLED and records the door or window it was
// called to as one mutation under the arena lock. Readers never observe a
// CALLED entry without its service point, and the version bumps once.
func (s *Store) Claim(roomID, entryID, servicePointID string) (domain.Entry, error) {
	a, err := s.room(roomID)
	if err != nil {
		return domain.Entry{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.entries[entryID]
	if !ok {
		return domain.Entry{}, fmt.Errorf("entry %q in room %q: %w", entryID, roomID, errors.ErrEntryNotFound)
	}
	if !entry.Status.CanTransition(domain.StatusCalled) {
		return domain.Entry{}, fmt.Errorf("%s -> %s: %w", entry.Status, domain.StatusCalled, errors.ErrInvalidTransition)
	}
	entry.Status = domain.StatusCalled
	entry.ServicePoint = servicePointID
	entry.UpdatedAt = now()
	a.entries[entryID] = entry
	a.version++
	return entry, nil
}

// Version returns the room's current mutation counter.
func (s *Store) Version(roomID string) (uint64, error) {
	a, err := s.room(roomID)
	if err != nil {
		return 0, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.version, nil
}

// NextTicketNumber hands out the next display ticket for the room, prefixed
// with the room's initial (room "triage" issues T-001, T-002, ...).
func (s *Store) NextTicketNumber(roomID string) (string, error) {
	a, err := s.room(roomID)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ticketSeq++
	prefix := "A"
	if roomID != "" {
		prefix = strings.ToUpper(roomID[:1])
	}
	return fmt.Sprintf("%s-%03d", prefix, a.ticketSeq), nil
}
