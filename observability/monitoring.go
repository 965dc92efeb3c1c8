// Package observability reports operational telemetry about the running
// engine: queue depths per room, process memory, counters for dropped
// subscribers. Log-based; no external metrics backend is assumed.
package observability

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/arfis/waiting-room-sub002/contract"
	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/store"
)

// Monitor is a contract.Worker logging a telemetry line per interval. The
// per-room breakdown uses the same operational view the displays subscribe
// to, so its numbers match what is on screen.
type Monitor struct {
	log      *slog.Logger
	store    *store.Store
	provider contract.ConfigProvider
	interval time.Duration

	evictions  uint64
	admissions uint64
}

func NewMonitor(log *slog.Logger, s *store.Store, provider contract.ConfigProvider, interval time.Duration) *Monitor {
	return &Monitor{log: log, store: s, provider: provider, interval: interval}
}

// IncrEvictions counts subscribers dropped for not keeping up.
func (m *Monitor) IncrEvictions() {
	atomic.AddUint64(&m.evictions, 1)
}

// IncrAdmissions counts entries admitted since startup.
func (m *Monitor) IncrAdmissions() {
	atomic.AddUint64(&m.admissions, 1)
}

func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Debug("Context done, stopping monitor")
			return nil
		case <-ticker.C:
			m.report(ctx)
		}
	}
}

func (m *Monitor) report(ctx context.Context) {
	rooms, err := m.provider.Rooms(ctx)
	if err != nil {
		m.log.Warn("Telemetry could not list rooms", "error", err)
		return
	}

	var waiting, called, inService int
	for _, room := range rooms {
		entries, err := m.store.List(room.ID, domain.OperationalFilter)
		if err != nil {
			continue
		}
		var roomWaiting, roomCalled int
		for _, entry := range entries {
			switch entry.Status {
			case domain.StatusWaiting:
				roomWaiting++
			case domain.StatusCalled:
				roomCalled++
			}
		}
		waiting += roomWaiting
		called += roomCalled

		busy, err := m.store.List(room.ID, domain.StatusFilter{domain.StatusInService})
		if err == nil {
			inService += len(busy)
		}
		m.log.Debug("Room depth", "room", room.ID, "waiting", roomWaiting, "called", roomCalled)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.log.Info("Telemetry",
		"rooms", len(rooms),
		"waiting", waiting,
		"called", called,
		"inService", inService,
		"admissions", atomic.LoadUint64(&m.admissions),
		"evictions", atomic.LoadUint64(&m.evictions),
		"allocMb", mem.Alloc/1024/1024,
		"numGC", mem.NumGC,
	)
}
