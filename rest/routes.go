package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewServer builds the Echo instance with the queue API mounted under /api.
// The websocket endpoint is registered separately by the caller so the
// transport packages stay independent.
func NewServer(controller *QueueController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.GET("/rooms", controller.Rooms)

	rooms := api.Group("/rooms/:roomId")
	rooms.GET("/service-points", controller.ServicePoints)
	rooms.GET("/stats", controller.Stats)
	rooms.GET("/entries", controller.Entries)
	rooms.POST("/entries", controller.Join)
	rooms.POST("/call-next", controller.CallNext)

	entry := rooms.Group("/entries/:entryId")
	entry.POST("/start", controller.StartService)
	entry.POST("/finish", controller.Finish)
	entry.POST("/cancel", controller.Cancel)
	entry.POST("/skip", controller.Skip)
	entry.POST("/requeue", controller.Requeue)
	entry.POST("/no-show", controller.MarkNoShow)

	return e
}
