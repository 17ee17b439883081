package controller

import (
	"shiftboard-api/core/controller"
	"shiftboard-api/core/errors"
	"shiftboard-api/core/middleware"
	"shiftboard-api/core/params"
	"shiftboard-api/modules/notification/dto"
	"shiftboard-api/modules/notification/service"

	"github.com/labstack/echo/v4"
)

type NotificationController struct {
	controller.BaseController
	NotificationService *service.NotificationService
}

func NewNotificationController(svc *service.NotificationService) *NotificationController {
	return &NotificationController{
		BaseController:      controller.NewBaseController(),
		NotificationService: svc,
	}
}

// GetMyNotifications handles GET /notifications
// @Summary List notifications
// @Tags Notification
// @Security BearerAuth
// @Produce json
// @Success 200 {object} entity.PaginatedNotificationEntity
// @Router /private/notifications [get]
func (c *NotificationController) GetMyNotifications(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	result, err := c.NotificationService.GetMyNotifications(ctx.Request().Context(), claims.UserID, params.NewQueryParams(ctx))
	if err != nil {
		return c.InternalServerError(errors.ErrGetFailed, "Failed to get notifications")
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// MarkAsRead handles POST /notifications/read
// @Summary Mark notifications as read
// @Tags Notification
// @Security BearerAuth
// @Accept json
// @Param request body dto.MarkAsReadRequest true "Notification IDs; empty marks all"
// @Success 200 {object} map[string]string
// @Router /private/notifications/read [post]
func (c *NotificationController) MarkAsRead(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	var req dto.MarkAsReadRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	var err error
	if len(req.IDs) == 0 {
		err = c.NotificationService.MarkAllAsRead(ctx.Request().Context(), claims.UserID)
	} else {
		err = c.NotificationService.MarkAsRead(ctx.Request().Context(), claims.UserID, req.IDs)
	}
	if err != nil {
		return c.InternalServerError(errors.ErrUpdateFailed, "Failed to mark notifications as read")
	}

	return c.SuccessResponse(ctx, nil, "Notifications marked as read")
}

// CountUnread handles GET /notifications/unread-count
// @Summary Count unread notifications
// @Tags Notification
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UnreadCountResponse
// @Router /private/notifications/unread-count [get]
func (c *NotificationController) CountUnread(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	count, err := c.NotificationService.CountUnread(ctx.Request().Context(), claims.UserID)
	if err != nil {
		return c.InternalServerError(errors.ErrGetFailed, "Failed to count notifications")
	}

	return c.SuccessResponse(ctx, dto.UnreadCountResponse{Count: count}, "Success")
}
