package domain

import "time"

// RankedEntry is an Entry with its derived ranking attached. Tier, fitness
// and position are recomputed on every read and are never stored back.
type RankedEntry struct {
	Entry
	Tier         int
	FitnessScore float64
	Position     int
}

// StatusFilter selects which statuses a view or subscriber is interested in.
// The canonical string form is sorted so that equal filters compare equal as
// map keys.
type StatusFilter []Status

// OperationalFilter is the view dispatch operations rank against.
var OperationalFilter = StatusFilter{StatusWaiting, StatusCalled}

// Contains reports whether the filter admits the given status. An empty
// filter admits everything.
func (f StatusFilter) Contains(s Status) bool {
	if len(f) == 0 {
		return true
	}
	for _, st := range f {
		if st == s {
			return true
		}
	}
	return false
}

// Key returns a canonical representation usable as a map key. Order of the
// statuses in the filter does not matter.
func (f StatusFilter) Key() string {
	seen := map[Status]bool{}
	for _, s := range f {
		seen[s] = true
	}
	key := ""
	for _, s := range []Status{StatusWaiting, StatusCalled, StatusInService,
		StatusCompleted, StatusSkipped, StatusCancelled, StatusNoShow} {
		if seen[s] {
			key += string(s) + ","
		}
	}
	return key
}

// Snapshot is the full ordered list delivered wholesale to a subscriber.
// Displays replace their state with it; there are no incremental diffs.
type Snapshot struct {
	RoomID  string          `json:"roomId"`
	Filter  StatusFilter    `json:"filter"`
	Version uint64          `json:"version"`
	Entries []SnapshotEntry `json:"entries"`
}

// SnapshotEntry is the wire shape of one ranked entry.
type SnapshotEntry struct {
	ID              string    `json:"id"`
	TicketNumber    string    `json:"ticketNumber"`
	Status          Status    `json:"status"`
	Position        int       `json:"position"`
	ServicePoint    string    `json:"servicePoint,omitempty"`
	ServiceName     string    `json:"serviceName,omitempty"`
	ServiceDuration int64     `json:"serviceDuration,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	CardData        *CardData `json:"cardData,omitempty"`
}
