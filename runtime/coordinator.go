package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arfis/waiting-room-sub002/contract"
	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/errors"
	"github.com/arfis/waiting-room-sub002/ranking"
	"github.com/arfis/waiting-room-sub002/store"
)

// Publisher is the slice of the hub the coordinator needs.
type Publisher interface {
	Publish(roomID string)
}

// Coordinator serializes priority-sensitive mutations per room. The per-room
// exclusive section is what makes two concurrent CallNext invocations on the
// same room unable to claim the same entry; rooms never contend with each
// other.
type Coordinator struct {
	log      *slog.Logger
	store    *store.Store
	engine   *ranking.Engine
	provider contract.ConfigProvider
	hub      Publisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	admissions AdmissionCounter
}

// AdmissionCounter is the slice of the telemetry monitor fed on Join.
type AdmissionCounter interface {
	IncrAdmissions()
}

func NewCoordinator(log *slog.Logger, s *store.Store, engine *ranking.Engine,
	provider contract.ConfigProvider, hub Publisher) *Coordinator {
	return &Coordinator{
		log:      log,
		store:    s,
		engine:   engine,
		provider: provider,
		hub:      hub,
		locks:    make(map[string]*sync.Mutex),
	}
}

// SetAdmissionCounter attaches telemetry. Optional.
func (c *Coordinator) SetAdmissionCounter(counter AdmissionCounter) {
	c.admissions = counter
}

func (c *Coordinator) roomLock(roomID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[roomID] = lock
	}
	return lock
}

// Join admits a person: generates the entry id and ticket number, stores the
// entry as WAITING and publishes the room.
func (c *Coordinator) Join(ctx context.Context, roomID string, admission domain.Admission) (domain.Entry, error) {
	lock := c.roomLock(roomID)
	lock.Lock()

	ticket, err := c.store.NextTicketNumber(roomID)
	if err != nil {
		lock.Unlock()
		return domain.Entry{}, err
	}
	now := time.Now()
	entry := domain.Entry{
		ID:                     uuid.NewString(),
		RoomID:                 roomID,
		TicketNumber:           ticket,
		Status:                 domain.StatusWaiting,
		CreatedAt:              now,
		UpdatedAt:              now,
		Symbols:                admission.Symbols,
		AppointmentTime:        admission.AppointmentTime,
		Age:                    admission.Age,
		ManualOverride:         admission.ManualOverride,
		ServiceName:            admission.ServiceName,
		ServiceDurationMinutes: admission.ServiceDurationMinutes,
		CardData:               admission.CardData,
	}
	if err := c.store.Upsert(entry); err != nil {
		lock.Unlock()
		return domain.Entry{}, err
	}
	lock.Unlock()

	c.log.Info("Entry admitted", "room", roomID, "entry", entry.ID, "ticket", entry.TicketNumber)
	if c.admissions != nil {
		c.admissions.IncrAdmissions()
	}
	c.hub.Publish(roomID)
	return entry, nil
}

// CallNext claims the highest-ranked WAITING entry for a service point. With
// no WAITING entries it fails with ErrEmptyQueue, which callers must treat as
// an idle state, not a fault. The claim is a single store mutation: no reader
// sees the entry CALLED without its service point.
func (c *Coordinator) CallNext(ctx context.Context, roomID, servicePointID string) (domain.Entry, error) {
	if servicePointID != "" {
		room, err := c.provider.Room(ctx, roomID)
		if err != nil {
			return domain.Entry{}, err
		}
		if !room.HasServicePoint(servicePointID) {
			return domain.Entry{}, fmt.Errorf("service point %q in room %q: %w",
				servicePointID, roomID, errors.ErrServicePointNotFound)
		}
	}

	lock := c.roomLock(roomID)
	lock.Lock()

	config, err := c.priorityConfig(ctx, roomID)
	if err != nil {
		lock.Unlock()
		return domain.Entry{}, err
	}
	ranked, err := c.engine.Rank(roomID, domain.StatusFilter{domain.StatusWaiting}, config, time.Now())
	if err != nil {
		lock.Unlock()
		return domain.Entry{}, err
	}
	if len(ranked) == 0 {
		lock.Unlock()
		return domain.Entry{}, fmt.Errorf("room %q: %w", roomID, errors.ErrEmptyQueue)
	}

	next := ranked[0]
	entry, err := c.store.Claim(roomID, next.ID, servicePointID)
	if err != nil {
		lock.Unlock()
		return domain.Entry{}, err
	}
	lock.Unlock()

	c.log.Info("Called next entry", "room", roomID, "entry", entry.ID,
		"ticket", entry.TicketNumber, "servicePoint", servicePointID)
	c.hub.Publish(roomID)
	return entry, nil
}

// FinishCurrent completes a CALLED or IN_SERVICE entry.
func (c *Coordinator) FinishCurrent(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return c.transition(roomID, entryID, domain.StatusCompleted, "Finished entry")
}

// StartService moves a called person to IN_SERVICE once they arrive.
func (c *Coordinator) StartService(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return c.transition(roomID, entryID, domain.StatusInService, "Service started")
}

// Cancel withdraws a WAITING entry, user or staff initiated.
func (c *Coordinator) Cancel(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return c.transition(roomID, entryID, domain.StatusCancelled, "Entry cancelled")
}

// Skip defers a called person; Requeue later returns them to the queue.
func (c *Coordinator) Skip(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return c.transition(roomID, entryID, domain.StatusSkipped, "Entry skipped")
}

// Requeue returns a skipped person to WAITING.
func (c *Coordinator) Requeue(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return c.transition(roomID, entryID, domain.StatusWaiting, "Entry requeued")
}

// MarkNoShow records that a called person never arrived.
func (c *Coordinator) MarkNoShow(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return c.transition(roomID, entryID, domain.StatusNoShow, "Entry marked no-show")
}

// transition is the shared validate-mutate-publish path. Invalid transitions
// and missing entries are caller errors, returned as-is and never retried.
func (c *Coordinator) transition(roomID, entryID string, next domain.Status, logMsg string) (domain.Entry, error) {
	lock := c.roomLock(roomID)
	lock.Lock()
	entry, err := c.store.MutateStatus(roomID, entryID, next)
	lock.Unlock()
	if err != nil {
		return domain.Entry{}, err
	}

	c.log.Info(logMsg, "room", roomID, "entry", entry.ID, "ticket", entry.TicketNumber)
	c.hub.Publish(roomID)
	return entry, nil
}

// GetRanked returns the current ordered view of a room. Pure read: it takes
// no room lock and may run concurrently with mutations on the same room.
func (c *Coordinator) GetRanked(ctx context.Context, roomID string, filter domain.StatusFilter) ([]domain.RankedEntry, error) {
	config, err := c.priorityConfig(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return c.engine.Rank(roomID, filter, config, time.Now())
}

// priorityConfig fetches the room's config snapshot, degrading incomplete
// sections to neutral defaults. Incompleteness is logged, never raised.
func (c *Coordinator) priorityConfig(ctx context.Context, roomID string) (domain.PriorityConfig, error) {
	config, err := c.provider.PriorityConfig(ctx, roomID)
	if err != nil {
		return domain.PriorityConfig{}, err
	}
	if defaulted := config.Normalize(); len(defaulted) > 0 {
		c.log.Debug("Priority config incomplete, using neutral defaults",
			"room", roomID, "sections", defaulted)
	}
	return config, nil
}
