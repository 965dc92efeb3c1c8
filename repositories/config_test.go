package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/errors"
	"github.com/arfis/waiting-room-sub002/logs"
)

const roomsFixture = `{
  "defaultPriorityConfig": {
    "version": "1.0",
    "priorityModel": {
      "algorithm": {"orderingFields": ["tier", "fitnessScore"]},
      "tiers": [{"id": 0, "name": "EVERYONE", "condition": {}}],
      "fitness": {"contributions": {}}
    }
  },
  "rooms": [
    {
      "id": "triage",
      "name": "Triage",
      "servicePoints": [{"id": "window-1", "name": "Window 1"}]
    },
    {
      "id": "dental",
      "name": "Dental",
      "servicePoints": [],
      "priorityConfig": {
        "version": "2.0",
        "priorityModel": {
          "algorithm": {"orderingFields": ["tier", "fitnessScore"]},
          "tiers": [{"id": 0, "name": "URGENT", "condition": {"symbolsAnyOf": ["STATIM"]}}],
          "fitness": {"contributions": {}}
        }
      }
    }
  ]
}`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rooms.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newRepository(t *testing.T, content string) *FileConfigRepository {
	t.Helper()
	repo, err := NewFileConfigRepository(logs.GetLoggerFromString("ERROR"), writeFixture(t, content))
	require.NoError(t, err)
	return repo
}

func TestFileConfigRepository_Rooms(t *testing.T) {
	req := require.New(t)
	repo := newRepository(t, roomsFixture)

	rooms, err := repo.Rooms(context.Background())
	req.NoError(err)
	req.Len(rooms, 2)
	req.Equal("triage", rooms[0].ID)
	req.True(rooms[0].HasServicePoint("window-1"))
	req.False(rooms[1].HasServicePoint("window-1"))
}

func TestFileConfigRepository_RoomLookup(t *testing.T) {
	req := require.New(t)
	repo := newRepository(t, roomsFixture)

	room, err := repo.Room(context.Background(), "dental")
	req.NoError(err)
	req.Equal("Dental", room.Name)

	_, err = repo.Room(context.Background(), "ghost")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestFileConfigRepository_PriorityConfigFallbackChain(t *testing.T) {
	req := require.New(t)
	repo := newRepository(t, roomsFixture)
	ctx := context.Background()

	// Room with its own document.
	config, err := repo.PriorityConfig(ctx, "dental")
	req.NoError(err)
	req.Equal("2.0", config.Version)

	// Room inheriting the file-level default.
	config, err = repo.PriorityConfig(ctx, "triage")
	req.NoError(err)
	req.Equal("1.0", config.Version)

	_, err = repo.PriorityConfig(ctx, "ghost")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestFileConfigRepository_BuiltInDefaultWhenFileHasNone(t *testing.T) {
	req := require.New(t)
	repo := newRepository(t, `{"rooms": [{"id": "triage", "name": "Triage"}]}`)

	config, err := repo.PriorityConfig(context.Background(), "triage")
	req.NoError(err)
	req.NotEmpty(config.PriorityModel.Tiers)
	req.Equal(domain.DefaultPriorityConfig().Version, config.Version)
}

func TestFileConfigRepository_RejectsEmptyAndMalformedFiles(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromString("ERROR")

	_, err := NewFileConfigRepository(log, writeFixture(t, `{"rooms": []}`))
	req.Error(err)

	_, err = NewFileConfigRepository(log, writeFixture(t, `{not json`))
	req.Error(err)

	_, err = NewFileConfigRepository(log, filepath.Join(t.TempDir(), "missing.json"))
	req.Error(err)
}

func TestFileConfigRepository_ReloadKeepsPreviousDocumentOnFailure(t *testing.T) {
	req := require.New(t)
	path := writeFixture(t, roomsFixture)
	repo, err := NewFileConfigRepository(logs.GetLoggerFromString("ERROR"), path)
	req.NoError(err)

	req.NoError(os.WriteFile(path, []byte(`{broken`), 0o600))
	req.Error(repo.Reload())

	rooms, err := repo.Rooms(context.Background())
	req.NoError(err)
	req.Len(rooms, 2)
}
