// Package rest exposes the queue operations over HTTP. It owns request
// validation and error-to-status mapping; all queue semantics live behind
// the service interface.
package rest

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/errors"
	"github.com/arfis/waiting-room-sub002/projection"
	"github.com/arfis/waiting-room-sub002/services"
)

// StatsSource serves the per-room aggregates kept by the wait projection.
type StatsSource interface {
	Summary(roomID string) (projection.Summary, bool)
}

type QueueController struct {
	log      *slog.Logger
	service  services.IQueueService
	stats    StatsSource
	validate *validator.Validate
}

func NewQueueController(log *slog.Logger, service services.IQueueService) *QueueController {
	return &QueueController{log: log, service: service, validate: validator.New()}
}

// SetStats attaches the wait projection. Without it the stats endpoint
// reports 404 for every room.
func (c *QueueController) SetStats(stats StatsSource) {
	c.stats = stats
}

func (c *QueueController) Stats(ctx echo.Context) error {
	roomID := ctx.Param("roomId")
	if c.stats == nil {
		return ctx.JSON(http.StatusNotFound, ErrorResponse{Code: "STATS_UNAVAILABLE", Message: "statistics are not collected"})
	}
	summary, ok := c.stats.Summary(roomID)
	if !ok {
		// Validate the room so unknown rooms and not-yet-observed rooms differ.
		if _, err := c.service.ServicePoints(ctx.Request().Context(), roomID); err != nil {
			return c.fail(ctx, err)
		}
		summary = projection.Summary{RoomID: roomID}
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (c *QueueController) Rooms(ctx echo.Context) error {
	rooms, err := c.service.Rooms(ctx.Request().Context())
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (c *QueueController) ServicePoints(ctx echo.Context) error {
	points, err := c.service.ServicePoints(ctx.Request().Context(), ctx.Param("roomId"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, points)
}

func (c *QueueController) Join(ctx echo.Context) error {
	var request JoinRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "malformed admission payload")
	}
	if err := c.validate.Struct(request); err != nil {
		return badRequest(ctx, err.Error())
	}

	entry, err := c.service.Join(ctx.Request().Context(), ctx.Param("roomId"), request.toAdmission())
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, toEntryResponse(entry))
}

func (c *QueueController) Entries(ctx echo.Context) error {
	filter, err := parseStatusFilter(ctx.QueryParam("status"))
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	ranked, err := c.service.GetRanked(ctx.Request().Context(), ctx.Param("roomId"), filter)
	if err != nil {
		return c.fail(ctx, err)
	}
	responses := make([]EntryResponse, 0, len(ranked))
	for _, entry := range ranked {
		responses = append(responses, toRankedResponse(entry))
	}
	return ctx.JSON(http.StatusOK, responses)
}

func (c *QueueController) CallNext(ctx echo.Context) error {
	var request CallNextRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "malformed call-next payload")
	}
	if err := c.validate.Struct(request); err != nil {
		return badRequest(ctx, err.Error())
	}

	entry, err := c.service.CallNext(ctx.Request().Context(), ctx.Param("roomId"), request.ServicePointID)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toEntryResponse(entry))
}

func (c *QueueController) StartService(ctx echo.Context) error {
	return c.mutate(ctx, c.service.StartService)
}

func (c *QueueController) Finish(ctx echo.Context) error {
	return c.mutate(ctx, c.service.FinishCurrent)
}

func (c *QueueController) Cancel(ctx echo.Context) error {
	return c.mutate(ctx, c.service.Cancel)
}

func (c *QueueController) Skip(ctx echo.Context) error {
	return c.mutate(ctx, c.service.Skip)
}

func (c *QueueController) Requeue(ctx echo.Context) error {
	return c.mutate(ctx, c.service.Requeue)
}

func (c *QueueController) MarkNoShow(ctx echo.Context) error {
	return c.mutate(ctx, c.service.MarkNoShow)
}

type entryMutation func(ctx context.Context, roomID, entryID string) (domain.Entry, error)

func (c *QueueController) mutate(ctx echo.Context, op entryMutation) error {
	entry, err := op(ctx.Request().Context(), ctx.Param("roomId"), ctx.Param("entryId"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toEntryResponse(entry))
}

// fail maps domain errors to HTTP statuses. Not-found and conflicts are
// caller errors logged at debug; everything else is a server fault.
func (c *QueueController) fail(ctx echo.Context, err error) error {
	switch {
	case stderrors.Is(err, errors.ErrRoomNotFound):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{Code: "ROOM_NOT_FOUND", Message: err.Error()})
	case stderrors.Is(err, errors.ErrEntryNotFound):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{Code: "ENTRY_NOT_FOUND", Message: err.Error()})
	case stderrors.Is(err, errors.ErrServicePointNotFound):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{Code: "SERVICE_POINT_NOT_FOUND", Message: err.Error()})
	case stderrors.Is(err, errors.ErrEmptyQueue):
		return ctx.JSON(http.StatusConflict, ErrorResponse{Code: "EMPTY_QUEUE", Message: err.Error()})
	case stderrors.Is(err, errors.ErrInvalidTransition):
		return ctx.JSON(http.StatusConflict, ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	default:
		c.log.Error("Request failed", "path", ctx.Path(), "error", err)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL", Message: "internal error"})
	}
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{Code: "VALIDATION_FAILED", Message: message})
}

// parseStatusFilter turns "WAITING,CALLED" into a filter. Empty means all
// statuses; an unknown status name is a caller error.
func parseStatusFilter(raw string) (domain.StatusFilter, error) {
	if raw == "" {
		return nil, nil
	}
	var filter domain.StatusFilter
	for _, part := range strings.Split(raw, ",") {
		status := domain.Status(strings.ToUpper(strings.TrimSpace(part)))
		if !status.Valid() {
			return nil, fmt.Errorf("unknown status %q", part)
		}
		filter = append(filter, status)
	}
	return filter, nil
}
