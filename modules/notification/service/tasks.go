package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shiftboard-api/core/constants"
	"shiftboard-api/core/logger"
	eventEntity "shiftboard-api/modules/event/entity"
	"shiftboard-api/modules/notification/dto"
	"shiftboard-api/modules/notification/entity"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeAssignmentChange = "notification:assignment_change"
	TaskTypeTimeChange       = "notification:time_change"
)

type AssignmentChangePayload struct {
	EventID    uuid.UUID   `json:"event_id"`
	EventTitle string      `json:"event_title"`
	StartTime  time.Time   `json:"start_time"`
	EndTime    time.Time   `json:"end_time"`
	Added      []uuid.UUID `json:"added"`
	Removed    []uuid.UUID `json:"removed"`
}

type TimeChangePayload struct {
	EventID    uuid.UUID   `json:"event_id"`
	EventTitle string      `json:"event_title"`
	StartTime  time.Time   `json:"start_time"`
	EndTime    time.Time   `json:"end_time"`
	UserIDs    []uuid.UUID `json:"user_ids"`
}

// Dispatcher enqueues notification work after booking mutations. It
// implements the event module's AssignmentNotifier; enqueue failures
// are logged and never fail the originating mutation.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) NotifyAssignmentChange(ctx context.Context, event *eventEntity.BookableEvent, added, removed []uuid.UUID) {
	if d == nil || d.client == nil {
		return
	}

	payload, err := json.Marshal(AssignmentChangePayload{
		EventID:    event.ID,
		EventTitle: event.Title,
		StartTime:  event.StartTime,
		EndTime:    event.EndTime,
		Added:      added,
		Removed:    removed,
	})
	if err != nil {
		logger.Error("Dispatcher:NotifyAssignmentChange:Marshal:Error:", err)
		return
	}

	task := asynq.NewTask(TaskTypeAssignmentChange, payload)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(constants.QueueNotifications)); err != nil {
		logger.Error("Dispatcher:NotifyAssignmentChange:Enqueue:Error:", err)
	}
}

func (d *Dispatcher) NotifyTimeChange(ctx context.Context, event *eventEntity.BookableEvent, userIDs []uuid.UUID) {
	if d == nil || d.client == nil {
		return
	}

	payload, err := json.Marshal(TimeChangePayload{
		EventID:    event.ID,
		EventTitle: event.Title,
		StartTime:  event.StartTime,
		EndTime:    event.EndTime,
		UserIDs:    userIDs,
	})
	if err != nil {
		logger.Error("Dispatcher:NotifyTimeChange:Marshal:Error:", err)
		return
	}

	task := asynq.NewTask(TaskTypeTimeChange, payload)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(constants.QueueNotifications)); err != nil {
		logger.Error("Dispatcher:NotifyTimeChange:Enqueue:Error:", err)
	}
}

// TaskHandler turns queued notification tasks into notification rows.
type TaskHandler struct {
	svc *NotificationService
}

func NewTaskHandler(svc *NotificationService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeAssignmentChange, h.HandleAssignmentChange)
	mux.HandleFunc(TaskTypeTimeChange, h.HandleTimeChange)
}

func (h *TaskHandler) HandleAssignmentChange(ctx context.Context, t *asynq.Task) error {
	var payload AssignmentChangePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error("TaskHandler:HandleAssignmentChange:Unmarshal:Error:", err)
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	data := map[string]any{"event_id": payload.EventID.String()}

	for _, userID := range payload.Added {
		err := h.svc.Create(ctx, &dto.CreateNotificationRequest{
			UserID:  userID,
			Title:   "New assignment",
			Message: fmt.Sprintf("You were assigned to %q", payload.EventTitle),
			Type:    entity.TypeEventAssigned,
			Data:    data,
		})
		if err != nil {
			return err
		}
	}

	for _, userID := range payload.Removed {
		err := h.svc.Create(ctx, &dto.CreateNotificationRequest{
			UserID:  userID,
			Title:   "Assignment removed",
			Message: fmt.Sprintf("You were removed from %q", payload.EventTitle),
			Type:    entity.TypeEventRemoved,
			Data:    data,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (h *TaskHandler) HandleTimeChange(ctx context.Context, t *asynq.Task) error {
	var payload TimeChangePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error("TaskHandler:HandleTimeChange:Unmarshal:Error:", err)
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	data := map[string]any{
		"event_id":   payload.EventID.String(),
		"start_time": payload.StartTime,
		"end_time":   payload.EndTime,
	}

	for _, userID := range payload.UserIDs {
		err := h.svc.Create(ctx, &dto.CreateNotificationRequest{
			UserID:  userID,
			Title:   "Event time changed",
			Message: fmt.Sprintf("%q was moved to a new time", payload.EventTitle),
			Type:    entity.TypeEventTimeChanged,
			Data:    data,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
