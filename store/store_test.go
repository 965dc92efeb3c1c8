package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/errors"
)

func newEntry(roomID string) domain.Entry {
	return domain.Entry{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Status:    domain.StatusWaiting,
		CreatedAt: time.Now(),
	}
}

func TestStore_UpsertUnknownRoomFails(t *testing.T) {
	req := require.New(t)
	s := New()

	err := s.Upsert(newEntry("triage"))
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestStore_UpsertAndGet(t *testing.T) {
	req := require.New(t)
	s := New()
	s.EnsureRoom("triage")

	entry := newEntry("triage")
	req.NoError(s.Upsert(entry))

	got, err := s.Get("triage", entry.ID)
	req.NoError(err)
	req.Equal(entry.ID, got.ID)

	_, err = s.Get("triage", "missing")
	req.ErrorIs(err, errors.ErrEntryNotFound)
}

func TestStore_ListFiltersByStatus(t *testing.T) {
	req := require.New(t)
	s := New()
	s.EnsureRoom("triage")

	waiting := newEntry("triage")
	called := newEntry("triage")
	called.Status = domain.StatusCalled
	done := newEntry("triage")
	done.Status = domain.StatusCompleted
	req.NoError(s.Upsert(waiting))
	req.NoError(s.Upsert(called))
	req.NoError(s.Upsert(done))

	operational, err := s.List("triage", domain.OperationalFilter)
	req.NoError(err)
	req.Len(operational, 2)

	all, err := s.List("triage", nil)
	req.NoError(err)
	req.Len(all, 3)
}

func TestStore_MutateStatusValidatesTransition(t *testing.T) {
	req := require.New(t)
	s := New()
	s.EnsureRoom("triage")

	entry := newEntry("triage")
	req.NoError(s.Upsert(entry))

	updated, err := s.MutateStatus("triage", entry.ID, domain.StatusCalled)
	req.NoError(err)
	req.Equal(domain.StatusCalled, updated.Status)

	_, err = s.MutateStatus("triage", entry.ID, domain.StatusWaiting)
	req.ErrorIs(err, errors.ErrInvalidTransition)

	// Rejected mutation must not have been applied.
	got, err := s.Get("triage", entry.ID)
	req.NoError(err)
	req.Equal(domain.StatusCalled, got.Status)
}

func TestStore_VersionBumpsOnEveryMutation(t *testing.T) {
	req := require.New(t)
	s := New()
	s.EnsureRoom("triage")

	v0, err := s.Version("triage")
	req.NoError(err)

	entry := newEntry("triage")
	req.NoError(s.Upsert(entry))
	v1, _ := s.Version("triage")
	req.Equal(v0+1, v1)

	_, err = s.MutateStatus("triage", entry.ID, domain.StatusCalled)
	req.NoError(err)
	v2, _ := s.Version("triage")
	req.Equal(v1+1, v2)

	// Failed mutations leave the version untouched.
	_, err = s.MutateStatus("triage", entry.ID, domain.StatusWaiting)
	req.Error(err)
	v3, _ := s.Version("triage")
	req.Equal(v2, v3)
}

func TestStore_RoomsAreIndependent(t *testing.T) {
	req := require.New(t)
	s := New()
	s.EnsureRoom("triage")
	s.EnsureRoom("dental")

	req.NoError(s.Upsert(newEntry("triage")))

	entries, err := s.List("dental", nil)
	req.NoError(err)
	req.Empty(entries)

	vDental, _ := s.Version("dental")
	req.Zero(vDental)
}

func TestStore_NextTicketNumberSequencesPerRoom(t *testing.T) {
	req := require.New(t)
	s := New()
	s.EnsureRoom("triage")
	s.EnsureRoom("dental")

	t1, err := s.NextTicketNumber("triage")
	req.NoError(err)
	t2, _ := s.NextTicketNumber("triage")
	d1, _ := s.NextTicketNumber("dental")

	req.Equal("T-001", t1)
	req.Equal("T-002", t2)
	req.Equal("D-001", d1)
}

func TestStore_ClaimAppliesStatusAndServicePointAsOneMutation(t *testing.T) {
	req := require.New(t)
	s := New()
	s.EnsureRoom("triage")

	entry := newEntry("triage")
	req.NoError(s.Upsert(entry))
	before, _ := s.Version("triage")

	claimed, err := s.Claim("triage", entry.ID, "window-1")
	req.NoError(err)
	req.Equal(domain.StatusCalled, claimed.Status)
	req.Equal("window-1", claimed.ServicePoint)

	after, _ := s.Version("triage")
	req.Equal(before+1, after)
}

func TestStore_ClaimValidatesTransition(t *testing.T) {
	req := require.New(t)
	s := New()
	s.EnsureRoom("triage")

	entry := newEntry("triage")
	entry.Status = domain.StatusCompleted
	req.NoError(s.Upsert(entry))
	before, _ := s.Version("triage")

	_, err := s.Claim("triage", entry.ID, "window-1")
	req.ErrorIs(err, errors.ErrInvalidTransition)

	// Rejected claim leaves the entry and the version untouched.
	got, err := s.Get("triage", entry.ID)
	req.NoError(err)
	req.Equal(domain.StatusCompleted, got.Status)
	req.Empty(got.ServicePoint)
	after, _ := s.Version("triage")
	req.Equal(before, after)

	_, err = s.Claim("triage", "missing", "window-1")
	req.ErrorIs(err, errors.ErrEntryNotFound)
}
