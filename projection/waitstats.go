// Package projection builds derived views from observed snapshots. It
// handles deduplication across deliveries and keeps rolling aggregates.
// It never mutates the queue or talks to subscribers directly.
package projection

import (
	"context"
	"sync"
	"time"

	"github.com/arfis/waiting-room-sub002/domain"
)

// Summary is the per-room aggregate exposed to the stats endpoint.
type Summary struct {
	RoomID          string        `json:"roomId"`
	Waiting         int           `json:"waiting"`
	Called          int           `json:"called"`
	Served          int           `json:"served"`
	AverageWait     time.Duration `json:"-"`
	AverageWaitSecs float64       `json:"averageWaitSeconds"`
}

type roomStats struct {
	waiting    int
	called     int
	calledSeen map[string]struct{}
	served     int
	totalWait  time.Duration
}

// WaitStats is a snapshot sink deriving wait statistics from the stream of
// whole-list replacements. An entry contributes to the average exactly once,
// when it is first observed as CALLED.
type WaitStats struct {
	mu    sync.RWMutex
	rooms map[string]*roomStats
	now   func() time.Time
}

func NewWaitStats() *WaitStats {
	return &WaitStats{rooms: make(map[string]*roomStats), now: time.Now}
}

func (w *WaitStats) Consume(ctx context.Context, snapshot domain.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats, ok := w.rooms[snapshot.RoomID]
	if !ok {
		stats = &roomStats{calledSeen: make(map[string]struct{})}
		w.rooms[snapshot.RoomID] = stats
	}

	stats.waiting = 0
	stats.called = 0
	for _, entry := range snapshot.Entries {
		switch entry.Status {
		case domain.StatusWaiting:
			stats.waiting++
		case domain.StatusCalled:
			stats.called++
			if _, counted := stats.calledSeen[entry.ID]; !counted {
				stats.calledSeen[entry.ID] = struct{}{}
				stats.served++
				stats.totalWait += w.now().Sub(entry.CreatedAt)
			}
		}
	}
	return nil
}

// Summary reports the room's aggregates. The second return is false for a
// room no snapshot has been observed for yet.
func (w *WaitStats) Summary(roomID string) (Summary, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats, ok := w.rooms[roomID]
	if !ok {
		return Summary{}, false
	}
	summary := Summary{
		RoomID:  roomID,
		Waiting: stats.waiting,
		Called:  stats.called,
		Served:  stats.served,
	}
	if stats.served > 0 {
		summary.AverageWait = stats.totalWait / time.Duration(stats.served)
		summary.AverageWaitSecs = summary.AverageWait.Seconds()
	}
	return summary, true
}
