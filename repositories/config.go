// Package repositories loads the static configuration the engine reads:
// rooms, their service points and the per-room priority documents. The
// documents are owned by the admin collaborator; this process only reads them.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/errors"
)

// roomDocument is one room as stored in the configuration file. A room
// without its own priority document inherits the file-level default.
type roomDocument struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	ServicePoints  []domain.ServicePoint  `json:"servicePoints"`
	PriorityConfig *domain.PriorityConfig `json:"priorityConfig,omitempty"`
}

type configDocument struct {
	DefaultPriorityConfig *domain.PriorityConfig `json:"defaultPriorityConfig,omitempty"`
	Rooms                 []roomDocument         `json:"rooms"`
}

// FileConfigRepository serves room and priority configuration from a JSON
// file read once at startup. Reload swaps the document atomically, so a
// SIGHUP handler can refresh configuration without a restart.
type FileConfigRepository struct {
	log  *slog.Logger
	path string

	mu  sync.RWMutex
	doc configDocument
}

func NewFileConfigRepository(log *slog.Logger, path string) (*FileConfigRepository, error) {
	r := &FileConfigRepository{log: log, path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the configuration file. On failure the previous document
// stays in effect.
func (r *FileConfigRepository) Reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read rooms config %s: %w", r.path, err)
	}
	var doc configDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse rooms config %s: %w", r.path, err)
	}
	if len(doc.Rooms) == 0 {
		return fmt.Errorf("rooms config %s declares no rooms", r.path)
	}

	r.mu.Lock()
	r.doc = doc
	r.mu.Unlock()
	r.log.Info("Rooms configuration loaded", "path", r.path, "rooms", len(doc.Rooms))
	return nil
}

func (r *FileConfigRepository) Rooms(ctx context.Context) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]domain.Room, 0, len(r.doc.Rooms))
	for _, room := range r.doc.Rooms {
		rooms = append(rooms, domain.Room{ID: room.ID, Name: room.Name, ServicePoints: room.ServicePoints})
	}
	return rooms, nil
}

func (r *FileConfigRepository) Room(ctx context.Context, roomID string) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.doc.Rooms {
		if room.ID == roomID {
			return domain.Room{ID: room.ID, Name: room.Name, ServicePoints: room.ServicePoints}, nil
		}
	}
	return domain.Room{}, fmt.Errorf("room %q: %w", roomID, errors.ErrRoomNotFound)
}

// PriorityConfig returns the room's own priority document, falling back to
// the file-level default and finally to the built-in default. A room unknown
// to the file is an error; a room without a document is not.
func (r *FileConfigRepository) PriorityConfig(ctx context.Context, roomID string) (domain.PriorityConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.doc.Rooms {
		if room.ID != roomID {
			continue
		}
		if room.PriorityConfig != nil {
			return *room.PriorityConfig, nil
		}
		if r.doc.DefaultPriorityConfig != nil {
			return *r.doc.DefaultPriorityConfig, nil
		}
		return domain.DefaultPriorityConfig(), nil
	}
	return domain.PriorityConfig{}, fmt.Errorf("room %q: %w", roomID, errors.ErrRoomNotFound)
}
