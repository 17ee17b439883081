package router

import (
	"shiftboard-api/core/constants"
	"shiftboard-api/core/middleware"
	"shiftboard-api/modules/event/controller"

	"github.com/labstack/echo/v4"
)

// EventRouter handles event routes
type EventRouter struct {
	EventController *controller.EventController
}

// NewEventRouter creates a new router
func NewEventRouter(eventController *controller.EventController) *EventRouter {
	return &EventRouter{
		EventController: eventController,
	}
}

// Setup registers event routes
func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	eventRoutes := privateRoutes.Group("/events", mw.AuthMiddleware())

	// Reads are open to any authenticated org member
	eventRoutes.GET("", r.EventController.ListEvents)
	eventRoutes.GET("/:id", r.EventController.GetEvent)
	eventRoutes.GET("/:id/changelog", r.EventController.GetChangeLog)

	// Self-service join/leave needs no admin permission
	eventRoutes.POST("/:id/toggle", r.EventController.ToggleAssignment)

	// Administrative mutations are permission-gated (fail closed)
	eventRoutes.POST("", r.EventController.CreateEvent, mw.RequirePermission(constants.PermissionEventsCreate))
	eventRoutes.PUT("/:id", r.EventController.UpdateEvent, mw.RequirePermission(constants.PermissionEventsUpdate))
	eventRoutes.PUT("/:id/time", r.EventController.UpdateEventTime, mw.RequirePermission(constants.PermissionEventsUpdate))
	eventRoutes.POST("/:id/confirm", r.EventController.ConfirmEvent, mw.RequirePermission(constants.PermissionEventsUpdate))
	eventRoutes.DELETE("/:id", r.EventController.DeleteEvent, mw.RequirePermission(constants.PermissionEventsDelete))
}
