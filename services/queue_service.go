package services

import (
	"context"

	"github.com/arfis/waiting-room-sub002/contract"
	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/runtime"
)

type IQueueService interface {
	Join(ctx context.Context, roomID string, admission domain.Admission) (domain.Entry, error)
	CallNext(ctx context.Context, roomID, servicePointID string) (domain.Entry, error)
	StartService(ctx context.Context, roomID, entryID string) (domain.Entry, error)
	FinishCurrent(ctx context.Context, roomID, entryID string) (domain.Entry, error)
	Cancel(ctx context.Context, roomID, entryID string) (domain.Entry, error)
	Skip(ctx context.Context, roomID, entryID string) (domain.Entry, error)
	Requeue(ctx context.Context, roomID, entryID string) (domain.Entry, error)
	MarkNoShow(ctx context.Context, roomID, entryID string) (domain.Entry, error)
	GetRanked(ctx context.Context, roomID string, filter domain.StatusFilter) ([]domain.RankedEntry, error)
	Rooms(ctx context.Context) ([]domain.Room, error)
	ServicePoints(ctx context.Context, roomID string) ([]domain.ServicePoint, error)
	Subscribe(ctx context.Context, roomID string, filter domain.StatusFilter, sink contract.SnapshotSink) (string, error)
	Unsubscribe(subscriptionID string)
}

// QueueService is the single entry point the transports talk to. It adds no
// behavior of its own: mutations and reads go to the coordinator, live
// subscriptions to the hub, room metadata to the config provider.
type QueueService struct {
	coordinator *runtime.Coordinator
	hub         *runtime.Hub
	provider    contract.ConfigProvider
}

func NewQueueService(coordinator *runtime.Coordinator, hub *runtime.Hub, provider contract.ConfigProvider) *QueueService {
	return &QueueService{coordinator: coordinator, hub: hub, provider: provider}
}

func (s *QueueService) Join(ctx context.Context, roomID string, admission domain.Admission) (domain.Entry, error) {
	return s.coordinator.Join(ctx, roomID, admission)
}

func (s *QueueService) CallNext(ctx context.Context, roomID, servicePointID string) (domain.Entry, error) {
	return s.coordinator.CallNext(ctx, roomID, servicePointID)
}

func (s *QueueService) StartService(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return s.coordinator.StartService(ctx, roomID, entryID)
}

func (s *QueueService) FinishCurrent(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return s.coordinator.FinishCurrent(ctx, roomID, entryID)
}

func (s *QueueService) Cancel(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return s.coordinator.Cancel(ctx, roomID, entryID)
}

func (s *QueueService) Skip(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return s.coordinator.Skip(ctx, roomID, entryID)
}

func (s *QueueService) Requeue(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return s.coordinator.Requeue(ctx, roomID, entryID)
}

func (s *QueueService) MarkNoShow(ctx context.Context, roomID, entryID string) (domain.Entry, error) {
	return s.coordinator.MarkNoShow(ctx, roomID, entryID)
}

func (s *QueueService) GetRanked(ctx context.Context, roomID string, filter domain.StatusFilter) ([]domain.RankedEntry, error) {
	return s.coordinator.GetRanked(ctx, roomID, filter)
}

func (s *QueueService) Rooms(ctx context.Context) ([]domain.Room, error) {
	return s.provider.Rooms(ctx)
}

func (s *QueueService) ServicePoints(ctx context.Context, roomID string) ([]domain.ServicePoint, error) {
	room, err := s.provider.Room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return room.ServicePoints, nil
}

func (s *QueueService) Subscribe(ctx context.Context, roomID string, filter domain.StatusFilter, sink contract.SnapshotSink) (string, error) {
	return s.hub.Subscribe(ctx, roomID, filter, sink)
}

func (s *QueueService) Unsubscribe(subscriptionID string) {
	s.hub.Unsubscribe(subscriptionID)
}
