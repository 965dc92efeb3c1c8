//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/arfis/waiting-room-sub002/domain"
)

// SnapshotSink is the delivery surface of one live subscriber. Consume must
// honor ctx: the hub bounds every write attempt and evicts sinks that block.
type SnapshotSink interface {
	Consume(ctx context.Context, snapshot domain.Snapshot) error
}

// ConfigProvider is the configuration collaborator. Results are read-only
// snapshots fetched per operation; the engine does not cache them.
type ConfigProvider interface {
	Rooms(ctx context.Context) ([]domain.Room, error)
	Room(ctx context.Context, roomID string) (domain.Room, error)
	PriorityConfig(ctx context.Context, roomID string) (domain.PriorityConfig, error)
}

// Worker doesn't protect itself; the supervisor recovers its panics.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker for
// logging and supervision, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
