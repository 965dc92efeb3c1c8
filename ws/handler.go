// Package ws bridges live room snapshots onto websocket connections. Each
// connection is one hub subscription: the hub pushes into a buffered sink,
// the write pump drains it onto the wire.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message is the wire envelope. Displays key on Type and replace their whole
// list with Entries on every queue_update.
type Message struct {
	Type    string                 `json:"type"`
	RoomID  string                 `json:"roomId"`
	Version uint64                 `json:"version"`
	Entries []domain.SnapshotEntry `json:"entries"`
}

// connSink adapts one websocket connection to the hub's sink contract. When
// the buffer is full and the hub's write timeout elapses, Consume fails and
// the hub evicts the subscription.
type connSink struct {
	ch chan domain.Snapshot
}

func (s *connSink) Consume(ctx context.Context, snapshot domain.Snapshot) error {
	select {
	case s.ch <- snapshot:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Handler struct {
	log        *slog.Logger
	service    services.IQueueService
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewHandler(log *slog.Logger, service services.IQueueService, bufferSize int) *Handler {
	return &Handler{
		log:     log,
		service: service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bufferSize: bufferSize,
	}
}

// Register mounts the queue stream endpoint on the Echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/ws/rooms/:roomId", h.HandleQueue)
}

// HandleQueue upgrades the connection and streams snapshots until the client
// disconnects. The subscription's initial snapshot arrives before any queue
// mutation the client could observe.
func (h *Handler) HandleQueue(ctx echo.Context) error {
	roomID := ctx.Param("roomId")
	filter := parseFilter(ctx.QueryParam("status"))

	conn, err := h.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return err
	}

	sink := &connSink{ch: make(chan domain.Snapshot, h.bufferSize)}
	subscriptionID, err := h.service.Subscribe(ctx.Request().Context(), roomID, filter, sink)
	if err != nil {
		h.log.Debug("Websocket subscribe rejected", "room", roomID, "error", err)
		deadline := time.Now().Add(writeWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown room"), deadline)
		return conn.Close()
	}
	h.log.Info("Display connected", "room", roomID, "subscription", subscriptionID)

	done := make(chan struct{})
	go h.writePump(conn, roomID, sink.ch, done)

	h.readPump(conn)

	close(done)
	h.service.Unsubscribe(subscriptionID)
	h.log.Info("Display disconnected", "room", roomID, "subscription", subscriptionID)
	return conn.Close()
}

// readPump discards client frames; the protocol is server-push only. It
// returns when the connection drops or the client stops answering pings.
func (h *Handler) readPump(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Websocket read failed", "error", err)
			}
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, roomID string, snapshots <-chan domain.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case snapshot := <-snapshots:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			message := Message{
				Type:    "queue_update",
				RoomID:  snapshot.RoomID,
				Version: snapshot.Version,
				Entries: snapshot.Entries,
			}
			if err := conn.WriteJSON(message); err != nil {
				h.log.Debug("Websocket write failed", "room", roomID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// parseFilter reads the optional status query. Unknown names are dropped
// rather than rejected: a display with a stale filter still gets the
// operational view.
func parseFilter(raw string) domain.StatusFilter {
	if raw == "" {
		return domain.OperationalFilter
	}
	var filter domain.StatusFilter
	for _, part := range strings.Split(raw, ",") {
		status := domain.Status(strings.ToUpper(strings.TrimSpace(part)))
		if status.Valid() {
			filter = append(filter, status)
		}
	}
	if len(filter) == 0 {
		return domain.OperationalFilter
	}
	return filter
}
