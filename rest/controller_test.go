package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/errors"
	"github.com/arfis/waiting-room-sub002/logs"
	"github.com/arfis/waiting-room-sub002/projection"
	"github.com/arfis/waiting-room-sub002/ranking"
	"github.com/arfis/waiting-room-sub002/runtime"
	"github.com/arfis/waiting-room-sub002/services"
	"github.com/arfis/waiting-room-sub002/store"
)

type fixtureProvider struct {
	rooms []domain.Room
}

func (p fixtureProvider) Rooms(ctx context.Context) ([]domain.Room, error) {
	return p.rooms, nil
}

func (p fixtureProvider) Room(ctx context.Context, roomID string) (domain.Room, error) {
	for _, room := range p.rooms {
		if room.ID == roomID {
			return room, nil
		}
	}
	return domain.Room{}, errors.ErrRoomNotFound
}

func (p fixtureProvider) PriorityConfig(ctx context.Context, roomID string) (domain.PriorityConfig, error) {
	return domain.DefaultPriorityConfig(), nil
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := logs.GetLoggerFromString("ERROR")

	s := store.New()
	s.EnsureRoom("triage")
	provider := fixtureProvider{rooms: []domain.Room{{
		ID:   "triage",
		Name: "Triage",
		ServicePoints: []domain.ServicePoint{
			{ID: "window-1", Name: "Window 1"},
		},
	}}}

	engine := ranking.New(s)
	hub := runtime.NewHub(log, runtime.NewRegistry(), engine, s, provider, time.Second)
	coordinator := runtime.NewCoordinator(log, s, engine, provider, hub)
	service := services.NewQueueService(coordinator, hub, provider)

	return NewServer(NewQueueController(log, service))
}

func doJSON(t *testing.T, server *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)
	return recorder
}

func decodeEntry(t *testing.T, recorder *httptest.ResponseRecorder) EntryResponse {
	t.Helper()
	var entry EntryResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &entry))
	return entry
}

func TestJoinThenListEntries(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	recorder := doJSON(t, server, http.MethodPost, "/api/rooms/triage/entries",
		`{"symbols": ["VIP"], "serviceName": "Consultation"}`)
	req.Equal(http.StatusCreated, recorder.Code)
	created := decodeEntry(t, recorder)
	req.NotEmpty(created.ID)
	req.Equal("T-001", created.TicketNumber)
	req.Equal(domain.StatusWaiting, created.Status)

	recorder = doJSON(t, server, http.MethodGet, "/api/rooms/triage/entries?status=WAITING", "")
	req.Equal(http.StatusOK, recorder.Code)
	var entries []EntryResponse
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &entries))
	req.Len(entries, 1)
	req.Equal(created.ID, entries[0].ID)
	req.Equal(1, entries[0].Position)
}

func TestJoinUnknownRoomIs404(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	recorder := doJSON(t, server, http.MethodPost, "/api/rooms/ghost/entries", `{}`)
	req.Equal(http.StatusNotFound, recorder.Code)

	var response ErrorResponse
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	req.Equal("ROOM_NOT_FOUND", response.Code)
}

func TestJoinRejectsInvalidPayload(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	recorder := doJSON(t, server, http.MethodPost, "/api/rooms/triage/entries", `{"age": -3}`)
	req.Equal(http.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	req.Equal("VALIDATION_FAILED", response.Code)
}

func TestCallNextEmptyQueueIs409(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	recorder := doJSON(t, server, http.MethodPost, "/api/rooms/triage/call-next", `{}`)
	req.Equal(http.StatusConflict, recorder.Code)

	var response ErrorResponse
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	req.Equal("EMPTY_QUEUE", response.Code)
}

func TestCallNextAssignsServicePoint(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/rooms/triage/entries", `{}`)
	recorder := doJSON(t, server, http.MethodPost, "/api/rooms/triage/call-next",
		`{"servicePointId": "window-1"}`)
	req.Equal(http.StatusOK, recorder.Code)

	called := decodeEntry(t, recorder)
	req.Equal(domain.StatusCalled, called.Status)
	req.Equal("window-1", called.ServicePoint)
}

func TestCallNextUnknownServicePointIs404(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/rooms/triage/entries", `{}`)
	recorder := doJSON(t, server, http.MethodPost, "/api/rooms/triage/call-next",
		`{"servicePointId": "window-99"}`)
	req.Equal(http.StatusNotFound, recorder.Code)

	var response ErrorResponse
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	req.Equal("SERVICE_POINT_NOT_FOUND", response.Code)

	// The entry stays claimable.
	recorder = doJSON(t, server, http.MethodPost, "/api/rooms/triage/call-next",
		`{"servicePointId": "window-1"}`)
	req.Equal(http.StatusOK, recorder.Code)
}

func TestEntryLifecycleOverHTTP(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	created := decodeEntry(t, doJSON(t, server, http.MethodPost, "/api/rooms/triage/entries", `{}`))
	doJSON(t, server, http.MethodPost, "/api/rooms/triage/call-next", `{}`)

	base := "/api/rooms/triage/entries/" + created.ID
	recorder := doJSON(t, server, http.MethodPost, base+"/start", "")
	req.Equal(http.StatusOK, recorder.Code)
	req.Equal(domain.StatusInService, decodeEntry(t, recorder).Status)

	recorder = doJSON(t, server, http.MethodPost, base+"/finish", "")
	req.Equal(http.StatusOK, recorder.Code)
	req.Equal(domain.StatusCompleted, decodeEntry(t, recorder).Status)

	// Completed is terminal.
	recorder = doJSON(t, server, http.MethodPost, base+"/cancel", "")
	req.Equal(http.StatusConflict, recorder.Code)
	var response ErrorResponse
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	req.Equal("INVALID_TRANSITION", response.Code)
}

func TestSkipRequeueNoShowRoutes(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	created := decodeEntry(t, doJSON(t, server, http.MethodPost, "/api/rooms/triage/entries", `{}`))
	doJSON(t, server, http.MethodPost, "/api/rooms/triage/call-next", `{}`)
	base := "/api/rooms/triage/entries/" + created.ID

	recorder := doJSON(t, server, http.MethodPost, base+"/skip", "")
	req.Equal(http.StatusOK, recorder.Code)
	req.Equal(domain.StatusSkipped, decodeEntry(t, recorder).Status)

	recorder = doJSON(t, server, http.MethodPost, base+"/requeue", "")
	req.Equal(http.StatusOK, recorder.Code)
	req.Equal(domain.StatusWaiting, decodeEntry(t, recorder).Status)

	doJSON(t, server, http.MethodPost, "/api/rooms/triage/call-next", "")
	recorder = doJSON(t, server, http.MethodPost, base+"/no-show", "")
	req.Equal(http.StatusOK, recorder.Code)
	req.Equal(domain.StatusNoShow, decodeEntry(t, recorder).Status)
}

func TestRoomsAndServicePoints(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	recorder := doJSON(t, server, http.MethodGet, "/api/rooms", "")
	req.Equal(http.StatusOK, recorder.Code)
	var rooms []domain.Room
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &rooms))
	req.Len(rooms, 1)

	recorder = doJSON(t, server, http.MethodGet, "/api/rooms/triage/service-points", "")
	req.Equal(http.StatusOK, recorder.Code)
	var points []domain.ServicePoint
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &points))
	req.Len(points, 1)
	req.Equal("window-1", points[0].ID)
}

func TestStatsEndpoint(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromString("ERROR")

	s := store.New()
	s.EnsureRoom("triage")
	provider := fixtureProvider{rooms: []domain.Room{{ID: "triage", Name: "Triage"}}}
	engine := ranking.New(s)
	hub := runtime.NewHub(log, runtime.NewRegistry(), engine, s, provider, time.Second)
	coordinator := runtime.NewCoordinator(log, s, engine, provider, hub)
	service := services.NewQueueService(coordinator, hub, provider)

	stats := projection.NewWaitStats()
	_, err := hub.Subscribe(context.Background(), "triage", domain.OperationalFilter, stats)
	req.NoError(err)

	controller := NewQueueController(log, service)
	controller.SetStats(stats)
	server := NewServer(controller)

	recorder := doJSON(t, server, http.MethodGet, "/api/rooms/triage/stats", "")
	req.Equal(http.StatusOK, recorder.Code)
	var summary projection.Summary
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &summary))
	req.Zero(summary.Waiting)

	recorder = doJSON(t, server, http.MethodGet, "/api/rooms/ghost/stats", "")
	req.Equal(http.StatusNotFound, recorder.Code)
}

func TestUnknownStatusFilterIsRejected(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	recorder := doJSON(t, server, http.MethodGet, "/api/rooms/triage/entries?status=LOITERING", "")
	req.Equal(http.StatusBadRequest, recorder.Code)
}
