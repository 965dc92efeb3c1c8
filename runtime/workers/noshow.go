package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/arfis/waiting-room-sub002/contract"
	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/store"
)

// Dispatcher is the slice of the coordinator the no-show sweep drives.
type Dispatcher interface {
	MarkNoShow(ctx context.Context, roomID, entryID string) (domain.Entry, error)
}

// NoShowWorker sweeps every room on an interval and marks CALLED entries that
// were never served within the operational timeout as NO_SHOW. The transition
// goes through the coordinator so it is serialized and published like any
// staff-initiated mutation.
type NoShowWorker struct {
	log        *slog.Logger
	store      *store.Store
	provider   contract.ConfigProvider
	dispatcher Dispatcher
	timeout    time.Duration
	interval   time.Duration
}

func NewNoShowWorker(log *slog.Logger, s *store.Store, provider contract.ConfigProvider,
	dispatcher Dispatcher, timeout, interval time.Duration) *NoShowWorker {
	return &NoShowWorker{
		log:        log,
		store:      s,
		provider:   provider,
		dispatcher: dispatcher,
		timeout:    timeout,
		interval:   interval,
	}
}

func (w *NoShowWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping no-show sweep")
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *NoShowWorker) sweep(ctx context.Context) {
	rooms, err := w.provider.Rooms(ctx)
	if err != nil {
		w.log.Warn("No-show sweep could not list rooms", "error", err)
		return
	}

	deadline := time.Now().Add(-w.timeout)
	for _, room := range rooms {
		called, err := w.store.List(room.ID, domain.StatusFilter{domain.StatusCalled})
		if err != nil {
			continue
		}
		for _, entry := range called {
			if entry.UpdatedAt.After(deadline) {
				continue
			}
			if _, err := w.dispatcher.MarkNoShow(ctx, room.ID, entry.ID); err != nil {
				// The entry may have been served between the list and the
				// transition; that race is fine, skip it.
				w.log.Debug("No-show transition rejected", "room", room.ID,
					"entry", entry.ID, "error", err)
			}
		}
	}
}
