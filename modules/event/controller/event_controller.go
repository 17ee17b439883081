package controller

import (
	"shiftboard-api/core/controller"
	"shiftboard-api/core/errors"
	"shiftboard-api/core/middleware"
	"shiftboard-api/core/params"
	"shiftboard-api/core/utils"
	"shiftboard-api/modules/event/dto"
	"shiftboard-api/modules/event/service"

	"github.com/labstack/echo/v4"
)

// EventController handles event HTTP requests
type EventController struct {
	controller.BaseController
	EventService service.EventServiceInterface
}

// NewEventController creates a new controller
func NewEventController(svc service.EventServiceInterface) *EventController {
	return &EventController{
		BaseController: controller.NewBaseController(),
		EventService:   svc,
	}
}

// CreateEvent handles POST /events
// @Summary Create event
// @Description Create a bookable event with assignments, categories, field values and requirement rules
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Event payload"
// @Success 200 {object} dto.MutationResult
// @Failure 400 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Router /private/events [post]
func (c *EventController) CreateEvent(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	var req dto.CreateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.Create(ctx.Request().Context(), claims, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	if result.HasConflicts() {
		return c.SuccessResponse(ctx, result, "Conflicts detected, nothing was saved")
	}
	if len(result.Blocking) > 0 {
		return c.SuccessResponse(ctx, result, "Requirements not met, nothing was saved")
	}
	if result.NeedsAcknowledgement() {
		return c.SuccessResponse(ctx, result, "Warnings need confirmation, nothing was saved")
	}
	return c.SuccessResponse(ctx, result, "Event created successfully")
}

// GetEvent handles GET /events/:id
// @Summary Get event
// @Description Get an event projection including derived status and assignments
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id} [get]
func (c *EventController) GetEvent(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	eventID, err := utils.ToUUID(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.GetByID(ctx.Request().Context(), claims, eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// ListEvents handles GET /events
// @Summary List events
// @Description List events of the caller's organizations
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param page_number query int false "Page number"
// @Param page_size query int false "Page size"
// @Param search query string false "Title search"
// @Success 200 {object} dto.EventResponse
// @Router /private/events [get]
func (c *EventController) ListEvents(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	result, appErr := c.EventService.ListByOrgs(ctx.Request().Context(), claims, params.NewQueryParams(ctx))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// UpdateEvent handles PUT /events/:id
// @Summary Update event
// @Description Full update with replace-all semantics for provided collections
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.EventPatch true "Patch payload"
// @Success 200 {object} dto.MutationResult
// @Failure 400 {object} errors.AppError
// @Router /private/events/{id} [put]
func (c *EventController) UpdateEvent(ctx echo.Context) error {
	return c.update(ctx, dto.PatchKindFull)
}

// UpdateEventTime handles PUT /events/:id/time
// @Summary Update event time
// @Description Move the event; current assignees are re-validated against the new interval
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.EventPatch true "Time patch"
// @Success 200 {object} dto.MutationResult
// @Failure 400 {object} errors.AppError
// @Router /private/events/{id}/time [put]
func (c *EventController) UpdateEventTime(ctx echo.Context) error {
	return c.update(ctx, dto.PatchKindTimeOnly)
}

// update maps the route to the patch kind explicitly; the kind is never
// sniffed from which fields the payload happens to carry.
func (c *EventController) update(ctx echo.Context, kind dto.PatchKind) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	eventID, err := utils.ToUUID(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var patch dto.EventPatch
	if err := ctx.Bind(&patch); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	patch.Kind = kind

	result, appErr := c.EventService.Update(ctx.Request().Context(), claims, eventID, &patch)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	if result.HasConflicts() {
		return c.SuccessResponse(ctx, result, "Conflicts detected, nothing was saved")
	}
	if len(result.Blocking) > 0 {
		return c.SuccessResponse(ctx, result, "Requirements not met, nothing was saved")
	}
	if result.NeedsAcknowledgement() {
		return c.SuccessResponse(ctx, result, "Warnings need confirmation, nothing was saved")
	}
	return c.SuccessResponse(ctx, result, "Event updated successfully")
}

// ToggleAssignment handles POST /events/:id/toggle
// @Summary Join or leave an event
// @Description Idempotent self-service join/leave; joining fails hard on an overlapping booking
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/toggle [post]
func (c *EventController) ToggleAssignment(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	eventID, err := utils.ToUUID(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.Toggle(ctx.Request().Context(), claims, eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Assignment toggled")
}

// ConfirmEvent handles POST /events/:id/confirm
// @Summary Confirm event
// @Description Set the sticky confirmed status; reset by the next assignment change
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Router /private/events/{id}/confirm [post]
func (c *EventController) ConfirmEvent(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	eventID, err := utils.ToUUID(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.Confirm(ctx.Request().Context(), claims, eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Event confirmed")
}

// DeleteEvent handles DELETE /events/:id
// @Summary Delete event
// @Description Delete an event and cascade its assignments, rules and log entries
// @Tags Event
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} map[string]string
// @Router /private/events/{id} [delete]
func (c *EventController) DeleteEvent(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	eventID, err := utils.ToUUID(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	if appErr := c.EventService.Delete(ctx.Request().Context(), claims, eventID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Event deleted successfully")
}

// GetChangeLog handles GET /events/:id/changelog
// @Summary List audit entries
// @Description Append-only change log of an event, newest first
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} entity.PaginatedChangeLog
// @Router /private/events/{id}/changelog [get]
func (c *EventController) GetChangeLog(ctx echo.Context) error {
	claims, appErr := middleware.ClaimsFromContext(ctx)
	if appErr != nil {
		return c.Unauthorized(appErr.Code, appErr.Message)
	}

	eventID, err := utils.ToUUID(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.GetChangeLog(ctx.Request().Context(), claims, eventID, params.NewQueryParams(ctx))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}
