package event

import (
	"shiftboard-api/core/cache"
	"shiftboard-api/core/database"
	"shiftboard-api/core/middleware"
	"shiftboard-api/modules/event/controller"
	"shiftboard-api/modules/event/entity"
	"shiftboard-api/modules/event/repository"
	"shiftboard-api/modules/event/router"
	"shiftboard-api/modules/event/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the event module and registers routes
func Init(e *echo.Echo, db database.IDatabase, c cache.Cache, mw *middleware.Middleware, notifier service.AssignmentNotifier) {
	repo := repository.NewEventRepository(db)
	deriver := service.NewStatusDeriver(entity.DefaultStatusTable())
	publisher := service.NewLiveUpdatePublisher(c)
	svc := service.NewEventService(repo, deriver, publisher, notifier)
	ctrl := controller.NewEventController(svc)
	rtr := router.NewEventRouter(ctrl)

	rtr.Setup(e, mw)
}
