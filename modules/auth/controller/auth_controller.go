package controller

import (
	"shiftboard-api/core/controller"
	"shiftboard-api/core/middleware"
	"shiftboard-api/core/utils"
	"shiftboard-api/modules/auth/service"

	"github.com/labstack/echo/v4"
)

type AuthController struct {
	controller.BaseController
	AuthService *service.AuthService
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{
		BaseController: controller.NewBaseController(),
		AuthService:    svc,
	}
}

// Logout handles POST /auth/logout
// @Summary Log out
// @Description Revoke the presented access token for its remaining lifetime
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.AppError
// @Router /private/auth/logout [post]
func (c *AuthController) Logout(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	token, appErr := utils.GetTokenFromHeader(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	if appErr := c.AuthService.Logout(ctx.Request().Context(), token, claims); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Logged out")
}
