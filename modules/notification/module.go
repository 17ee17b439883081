package notification

import (
	"shiftboard-api/core/database"
	"shiftboard-api/core/middleware"
	"shiftboard-api/modules/notification/controller"
	"shiftboard-api/modules/notification/repository"
	"shiftboard-api/modules/notification/router"
	"shiftboard-api/modules/notification/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

// Init wires the notification module and returns the service so the
// background worker can register its task handlers against it.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware) *service.NotificationService {
	notificationRepository := repository.NewNotificationRepository(db)
	notificationService := service.NewNotificationService(notificationRepository)
	notificationController := controller.NewNotificationController(notificationService)
	notificationRouter := router.NewNotificationRouter(notificationController)
	notificationRouter.Setup(e, mw)

	return notificationService
}

// RegisterWorker attaches the notification task handlers to an asynq mux.
func RegisterWorker(mux *asynq.ServeMux, svc *service.NotificationService) {
	handler := service.NewTaskHandler(svc)
	handler.Register(mux)
}
