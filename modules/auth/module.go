package auth

import (
	"shiftboard-api/core/cache"
	"shiftboard-api/core/middleware"
	"shiftboard-api/modules/auth/controller"
	"shiftboard-api/modules/auth/router"
	"shiftboard-api/modules/auth/service"

	"github.com/labstack/echo/v4"
)

// Init wires the auth module.
func Init(e *echo.Echo, c cache.Cache, mw *middleware.Middleware) {
	authService := service.NewAuthService(c)
	authController := controller.NewAuthController(authService)
	authRouter := router.NewAuthRouter(authController)
	authRouter.Setup(e, mw)
}
