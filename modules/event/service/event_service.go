package service

import (
	"context"
	"fmt"
	"time"

	coreEntity "shiftboard-api/core/entity"
	"shiftboard-api/core/errors"
	"shiftboard-api/core/logger"
	"shiftboard-api/core/params"
	"shiftboard-api/core/utils"
	"shiftboard-api/modules/event/dto"
	"shiftboard-api/modules/event/entity"
	"shiftboard-api/modules/event/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
)

// AssignmentNotifier is implemented by the notification module. A nil
// notifier disables notifications; dispatch happens after the mutation
// is committed and never fails it.
type AssignmentNotifier interface {
	NotifyAssignmentChange(ctx context.Context, event *entity.BookableEvent, added, removed []uuid.UUID)
	NotifyTimeChange(ctx context.Context, event *entity.BookableEvent, userIDs []uuid.UUID)
}

// EventService orchestrates create/update/toggle operations: conflict
// detection, requirement validation, status derivation, atomic
// persistence and audit logging.
//
// There is no optimistic-lock version counter: two administrators can
// both read a stale assignment set, both pass their conflict checks and
// both persist; the second replace-all silently wins. This is an
// accepted limitation, not a bug to patch here.
type EventService struct {
	repo      repository.EventRepositoryInterface
	deriver   *StatusDeriver
	conflicts *ConflictDetector
	validator *RequirementValidator
	changelog *ChangeLogger
	publisher *LiveUpdatePublisher
	notifier  AssignmentNotifier
}

// EventServiceInterface defines the service contract
type EventServiceInterface interface {
	Create(ctx context.Context, claims *utils.TokenClaims, req *dto.CreateEventRequest) (*dto.MutationResult, *errors.AppError)
	Update(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID, patch *dto.EventPatch) (*dto.MutationResult, *errors.AppError)
	Toggle(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError)
	Confirm(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError)
	Delete(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID) *errors.AppError
	GetByID(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError)
	ListByOrgs(ctx context.Context, claims *utils.TokenClaims, p params.QueryParams) (*coreEntity.Pagination[dto.EventResponse], *errors.AppError)
	GetChangeLog(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID, p params.QueryParams) (*entity.PaginatedChangeLog, *errors.AppError)
}

func NewEventService(repo repository.EventRepositoryInterface, deriver *StatusDeriver, publisher *LiveUpdatePublisher, notifier AssignmentNotifier) EventServiceInterface {
	return &EventService{
		repo:      repo,
		deriver:   deriver,
		conflicts: NewConflictDetector(repo),
		validator: NewRequirementValidator(),
		changelog: NewChangeLogger(repo),
		publisher: publisher,
		notifier:  notifier,
	}
}

// Create persists a new event with all of its associations in one
// transaction. Conflicts and unacknowledged requirement warnings are
// soft failures: they come back as data and nothing is persisted.
func (s *EventService) Create(ctx context.Context, claims *utils.TokenClaims, req *dto.CreateEventRequest) (*dto.MutationResult, *errors.AppError) {
	if req.OrgID == uuid.Nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "missing organization id", nil)
	}
	if req.Title == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "missing title", nil)
	}
	if !req.AllDay && !req.EndTime.After(req.StartTime) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end must be after start", nil)
	}
	if !claims.InOrg(req.OrgID) {
		return nil, errors.NewAppError(errors.ErrForbidden, "not a member of this organization", nil)
	}

	start, end := entity.NormalizeInterval(req.StartTime, req.EndTime, req.AllDay)

	if len(req.AssignedUserIDs) > 0 && !req.DisableConflictCheck {
		conflicts, err := s.conflicts.CheckConflicts(ctx, req.AssignedUserIDs, start, end, ExcludeNone())
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check conflicts", err)
		}
		if len(conflicts) > 0 {
			return &dto.MutationResult{Conflicts: dto.ToConflictDTOs(conflicts)}, nil
		}
	}

	rules, appErr := s.hydrateRules(ctx, uuid.Nil, req.Rules)
	if appErr != nil {
		return nil, appErr
	}
	reqResult, appErr := s.evaluateRequirements(ctx, req.AssignedUserIDs, rules, req.Capacity)
	if appErr != nil {
		return nil, appErr
	}
	// Warnings are soft but still withhold persistence until the caller
	// acknowledges them and retries.
	if len(reqResult.Blocking) > 0 || (len(reqResult.Warning) > 0 && !req.AcknowledgeWarnings) {
		return &dto.MutationResult{Blocking: reqResult.Blocking, Warning: reqResult.Warning}, nil
	}

	ev := &entity.BookableEvent{
		OrgID:     req.OrgID,
		Title:     req.Title,
		Slug:      slug.Make(req.Title) + "-" + utils.GenerateID(),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		AllDay:    req.AllDay,
		Capacity:  req.Capacity,
		Status:    s.deriver.Derive(req.Capacity, len(req.AssignedUserIDs), false),
	}
	if req.Description != "" {
		ev.Description = &req.Description
	}

	err := s.repo.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.InsertEvent(ctx, tx, ev); err != nil {
			return err
		}
		if err := s.repo.ReplaceCategories(ctx, tx, ev.ID, req.CategoryIDs); err != nil {
			return err
		}
		if err := s.repo.ReplaceFieldValues(ctx, tx, ev.ID, fieldValuesFromInputs(ev.ID, req.FieldValues)); err != nil {
			return err
		}
		if err := s.repo.ReplaceAssignments(ctx, tx, ev.ID, req.AssignedUserIDs); err != nil {
			return err
		}
		if err := s.repo.ReplaceRules(ctx, tx, ev.ID, rules); err != nil {
			return err
		}
		return s.changelog.Record(ctx, tx, ev.ID, claims.UserID, true, nil, req.AssignedUserIDs)
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "failed to create event", err)
	}

	resp, appErr := s.buildResponse(ctx, ev)
	if appErr != nil {
		return nil, appErr
	}

	s.publisher.PublishEventChange(ctx, LiveUpdateEventCreated, ev.OrgID, resp)
	if s.notifier != nil && len(req.AssignedUserIDs) > 0 {
		s.notifier.NotifyAssignmentChange(ctx, ev, req.AssignedUserIDs, nil)
	}

	return &dto.MutationResult{Event: resp, Warning: reqResult.Warning}, nil
}

// Update applies a tagged patch. Full patches use replace-all semantics
// for every provided collection; time-only patches re-validate the
// current assignees against the new interval.
func (s *EventService) Update(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID, patch *dto.EventPatch) (*dto.MutationResult, *errors.AppError) {
	ev, appErr := s.loadForOrg(ctx, claims, eventID)
	if appErr != nil {
		return nil, appErr
	}

	switch patch.Kind {
	case dto.PatchKindTimeOnly:
		return s.updateTime(ctx, claims, ev, patch)
	case dto.PatchKindFull:
		return s.updateFull(ctx, claims, ev, patch)
	default:
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "unknown patch kind", nil)
	}
}

func (s *EventService) updateTime(ctx context.Context, claims *utils.TokenClaims, ev *entity.BookableEvent, patch *dto.EventPatch) (*dto.MutationResult, *errors.AppError) {
	if patch.StartTime == nil || patch.EndTime == nil {
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "time-only patch requires start and end", nil)
	}

	newAllDay := ev.AllDay
	if patch.AllDay != nil {
		newAllDay = *patch.AllDay
	}
	if !newAllDay && !patch.EndTime.After(*patch.StartTime) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end must be after start", nil)
	}

	assigned, err := s.repo.GetAssignedUserIDs(ctx, ev.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load assignments", err)
	}

	// Only the event's current assignees are re-validated against the
	// new interval. Conflicts abort the time change entirely.
	if !patch.DisableConflictCheck {
		start, end := entity.NormalizeInterval(*patch.StartTime, *patch.EndTime, newAllDay)
		conflicts, err := s.conflicts.CheckConflicts(ctx, assigned, start, end, ExcludeEvent(ev.ID))
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check conflicts", err)
		}
		if len(conflicts) > 0 {
			return &dto.MutationResult{Conflicts: dto.ToConflictDTOs(conflicts)}, nil
		}
	}

	ev.StartTime = *patch.StartTime
	ev.EndTime = *patch.EndTime
	ev.AllDay = newAllDay

	err = s.repo.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateEvent(ctx, tx, ev); err != nil {
			return err
		}
		return s.changelog.Record(ctx, tx, ev.ID, claims.UserID, false, assigned, assigned)
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "failed to update event time", err)
	}

	resp, appErr := s.buildResponse(ctx, ev)
	if appErr != nil {
		return nil, appErr
	}

	s.publisher.PublishEventChange(ctx, LiveUpdateEventUpdated, ev.OrgID, resp)
	if s.notifier != nil && len(assigned) > 0 {
		s.notifier.NotifyTimeChange(ctx, ev, assigned)
	}

	return &dto.MutationResult{Event: resp}, nil
}

func (s *EventService) updateFull(ctx context.Context, claims *utils.TokenClaims, ev *entity.BookableEvent, patch *dto.EventPatch) (*dto.MutationResult, *errors.AppError) {
	previous, err := s.repo.GetAssignedUserIDs(ctx, ev.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load assignments", err)
	}

	newStart := ev.StartTime
	newEnd := ev.EndTime
	newAllDay := ev.AllDay
	if patch.StartTime != nil {
		newStart = *patch.StartTime
	}
	if patch.EndTime != nil {
		newEnd = *patch.EndTime
	}
	if patch.AllDay != nil {
		newAllDay = *patch.AllDay
	}
	if !newAllDay && !newEnd.After(newStart) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end must be after start", nil)
	}

	current := previous
	if patch.AssignedUserIDs != nil {
		current = *patch.AssignedUserIDs

		if !patch.DisableConflictCheck {
			start, end := entity.NormalizeInterval(newStart, newEnd, newAllDay)
			conflicts, err := s.conflicts.CheckConflicts(ctx, current, start, end, ExcludeEvent(ev.ID))
			if err != nil {
				return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check conflicts", err)
			}
			if len(conflicts) > 0 {
				// Soft failure: previous assignment state untouched.
				return &dto.MutationResult{Conflicts: dto.ToConflictDTOs(conflicts)}, nil
			}
		}
	}

	newCapacity := ev.Capacity
	if patch.Capacity != nil {
		newCapacity = *patch.Capacity
	}

	var rules []entity.RequirementRule
	if patch.Rules != nil {
		hydrated, appErr := s.hydrateRules(ctx, ev.ID, *patch.Rules)
		if appErr != nil {
			return nil, appErr
		}
		rules = hydrated
	} else {
		existing, err := s.repo.GetRules(ctx, ev.ID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load rules", err)
		}
		rules = existing
	}

	reqResult, appErr := s.evaluateRequirements(ctx, current, rules, newCapacity)
	if appErr != nil {
		return nil, appErr
	}
	// Like conflicts, unacknowledged warnings leave the previous state
	// untouched.
	if len(reqResult.Blocking) > 0 || (len(reqResult.Warning) > 0 && !patch.AcknowledgeWarnings) {
		return &dto.MutationResult{Blocking: reqResult.Blocking, Warning: reqResult.Warning}, nil
	}

	if patch.Title != nil {
		ev.Title = *patch.Title
	}
	if patch.Description != nil {
		ev.Description = patch.Description
	}
	ev.StartTime = newStart
	ev.EndTime = newEnd
	ev.AllDay = newAllDay
	ev.Capacity = newCapacity

	// Changing the assignment set resets the sticky confirmed state.
	assignmentChanged := !utils.UUIDsEqualSet(previous, current)
	ev.ManuallyConfirmed = ev.ManuallyConfirmed && !assignmentChanged
	ev.Status = s.deriver.Derive(ev.Capacity, len(current), ev.ManuallyConfirmed)

	err = s.repo.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateEvent(ctx, tx, ev); err != nil {
			return err
		}
		if patch.CategoryIDs != nil {
			if err := s.repo.ReplaceCategories(ctx, tx, ev.ID, *patch.CategoryIDs); err != nil {
				return err
			}
		}
		if patch.FieldValues != nil {
			if err := s.repo.ReplaceFieldValues(ctx, tx, ev.ID, fieldValuesFromInputs(ev.ID, *patch.FieldValues)); err != nil {
				return err
			}
		}
		if patch.AssignedUserIDs != nil {
			if err := s.repo.ReplaceAssignments(ctx, tx, ev.ID, current); err != nil {
				return err
			}
		}
		if patch.Rules != nil {
			if err := s.repo.ReplaceRules(ctx, tx, ev.ID, rules); err != nil {
				return err
			}
		}
		return s.changelog.Record(ctx, tx, ev.ID, claims.UserID, false, previous, current)
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "failed to update event", err)
	}

	resp, appErr := s.buildResponse(ctx, ev)
	if appErr != nil {
		return nil, appErr
	}

	s.publisher.PublishEventChange(ctx, LiveUpdateEventUpdated, ev.OrgID, resp)
	if s.notifier != nil {
		added, removed := diffUsers(previous, current)
		if len(added) > 0 || len(removed) > 0 {
			s.notifier.NotifyAssignmentChange(ctx, ev, added, removed)
		}
	}

	return &dto.MutationResult{Event: resp, Warning: reqResult.Warning}, nil
}

// Toggle is the idempotent self-service join/leave. Leaving never needs
// a conflict check; joining reports the first overlap as a hard,
// blocking error rather than the soft conflicts-plus-retry flow.
func (s *EventService) Toggle(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	ev, appErr := s.loadForOrg(ctx, claims, eventID)
	if appErr != nil {
		return nil, appErr
	}

	previous, err := s.repo.GetAssignedUserIDs(ctx, ev.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load assignments", err)
	}

	joining := !containsUser(previous, claims.UserID)
	var current []uuid.UUID

	if joining {
		// Capacity is soft: overbooking a full event just keeps it in the
		// assigned status. The only hard failure is an overlapping booking.
		start, end := ev.Interval()
		conflicts, err := s.conflicts.CheckConflicts(ctx, []uuid.UUID{claims.UserID}, start, end, ExcludeEvent(ev.ID))
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check conflicts", err)
		}
		if len(conflicts) > 0 {
			first := conflicts[0]
			msg := fmt.Sprintf("already booked on %q from %s to %s",
				first.Event.Title,
				first.Event.StartTime.Format(time.RFC3339),
				first.Event.EndTime.Format(time.RFC3339))
			return nil, errors.NewAppError(errors.ErrAlreadyBooked, msg, nil)
		}

		current = append(append([]uuid.UUID{}, previous...), claims.UserID)
	} else {
		current = removeUser(previous, claims.UserID)
	}

	// The assignment set changed, so the sticky confirmed state resets.
	ev.ManuallyConfirmed = false
	ev.Status = s.deriver.Derive(ev.Capacity, len(current), false)

	err = s.repo.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		if joining {
			if err := s.repo.InsertAssignment(ctx, tx, ev.ID, claims.UserID); err != nil {
				return err
			}
		} else {
			if err := s.repo.DeleteAssignment(ctx, tx, ev.ID, claims.UserID); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateStatus(ctx, tx, ev.ID, ev.Status, ev.ManuallyConfirmed); err != nil {
			return err
		}
		return s.changelog.Record(ctx, tx, ev.ID, claims.UserID, false, previous, current)
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "failed to toggle assignment", err)
	}

	resp, appErr := s.buildResponse(ctx, ev)
	if appErr != nil {
		return nil, appErr
	}

	s.publisher.PublishEventChange(ctx, LiveUpdateEventUpdated, ev.OrgID, resp)
	if s.notifier != nil {
		if joining {
			s.notifier.NotifyAssignmentChange(ctx, ev, []uuid.UUID{claims.UserID}, nil)
		} else {
			s.notifier.NotifyAssignmentChange(ctx, ev, nil, []uuid.UUID{claims.UserID})
		}
	}

	return resp, nil
}

// Confirm sets the sticky confirmed state. It is exited only when the
// assignment set changes again.
func (s *EventService) Confirm(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	ev, appErr := s.loadForOrg(ctx, claims, eventID)
	if appErr != nil {
		return nil, appErr
	}

	assigned, err := s.repo.GetAssignedUserIDs(ctx, ev.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load assignments", err)
	}

	ev.ManuallyConfirmed = true
	ev.Status = s.deriver.Derive(ev.Capacity, len(assigned), true)

	err = s.repo.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateStatus(ctx, tx, ev.ID, ev.Status, true); err != nil {
			return err
		}
		return s.changelog.Record(ctx, tx, ev.ID, claims.UserID, false, assigned, assigned)
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "failed to confirm event", err)
	}

	resp, appErr := s.buildResponse(ctx, ev)
	if appErr != nil {
		return nil, appErr
	}

	s.publisher.PublishEventChange(ctx, LiveUpdateEventUpdated, ev.OrgID, resp)
	return resp, nil
}

// Delete removes the event and cascades assignments, rules and log
// entries.
func (s *EventService) Delete(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID) *errors.AppError {
	ev, appErr := s.loadForOrg(ctx, claims, eventID)
	if appErr != nil {
		return appErr
	}

	err := s.repo.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		return s.repo.DeleteEvent(ctx, tx, ev.ID)
	})
	if err != nil {
		return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete event", err)
	}

	s.publisher.PublishEventChange(ctx, LiveUpdateEventDeleted, ev.OrgID, map[string]any{"id": ev.ID})
	return nil
}

func (s *EventService) GetByID(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	ev, appErr := s.loadForOrg(ctx, claims, eventID)
	if appErr != nil {
		return nil, appErr
	}
	return s.buildResponse(ctx, ev)
}

func (s *EventService) ListByOrgs(ctx context.Context, claims *utils.TokenClaims, p params.QueryParams) (*coreEntity.Pagination[dto.EventResponse], *errors.AppError) {
	page, err := s.repo.ListByOrgs(ctx, claims.OrgIDs, p)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to list events", err)
	}

	items := make([]dto.EventResponse, 0, len(page.Items))
	for i := range page.Items {
		resp, appErr := s.buildResponse(ctx, &page.Items[i])
		if appErr != nil {
			return nil, appErr
		}
		items = append(items, *resp)
	}

	return &coreEntity.Pagination[dto.EventResponse]{
		Items:      items,
		TotalItems: page.TotalItems,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}, nil
}

func (s *EventService) GetChangeLog(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID, p params.QueryParams) (*entity.PaginatedChangeLog, *errors.AppError) {
	if _, appErr := s.loadForOrg(ctx, claims, eventID); appErr != nil {
		return nil, appErr
	}

	page, err := s.repo.ListChangeLog(ctx, eventID, p)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to list change log", err)
	}
	return page, nil
}

// ===================== helpers =====================

func (s *EventService) loadForOrg(ctx context.Context, claims *utils.TokenClaims, eventID uuid.UUID) (*entity.BookableEvent, *errors.AppError) {
	ev, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to get event", err)
	}
	if ev == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	}
	if !claims.InOrg(ev.OrgID) {
		return nil, errors.NewAppError(errors.ErrForbidden, "not a member of this organization", nil)
	}
	return ev, nil
}

func (s *EventService) buildResponse(ctx context.Context, ev *entity.BookableEvent) (*dto.EventResponse, *errors.AppError) {
	assigned, err := s.repo.GetAssignedUserIDs(ctx, ev.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load assignments", err)
	}
	categories, err := s.repo.GetCategoryIDs(ctx, ev.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load categories", err)
	}
	fields, err := s.repo.GetFieldValues(ctx, ev.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load field values", err)
	}
	rules, err := s.repo.GetRules(ctx, ev.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load rules", err)
	}
	return dto.ToEventResponse(ev, assigned, categories, fields, rules), nil
}

// hydrateRules resolves rule inputs against the property catalog so
// validation messages can name the property.
func (s *EventService) hydrateRules(ctx context.Context, eventID uuid.UUID, inputs []dto.RuleInput) ([]entity.RequirementRule, *errors.AppError) {
	if len(inputs) == 0 {
		return []entity.RequirementRule{}, nil
	}

	propertyIDs := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		propertyIDs = append(propertyIDs, in.PropertyID)
	}

	properties, err := s.repo.GetProperties(ctx, propertyIDs)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load properties", err)
	}
	byID := make(map[uuid.UUID]entity.UserProperty, len(properties))
	for _, p := range properties {
		byID[p.ID] = p
	}

	rules := make([]entity.RequirementRule, 0, len(inputs))
	for _, in := range inputs {
		property, ok := byID[in.PropertyID]
		if !ok {
			return nil, errors.NewAppError(errors.ErrNotFound, "unknown user property: "+in.PropertyID.String(), nil)
		}
		rules = append(rules, entity.RequirementRule{
			EventID:          eventID,
			PropertyID:       in.PropertyID,
			PropertyName:     property.Name,
			PropertyType:     property.Type,
			IsRequired:       in.IsRequired,
			MinMatchingUsers: in.MinMatchingUsers,
		})
	}
	return rules, nil
}

func (s *EventService) evaluateRequirements(ctx context.Context, assigned []uuid.UUID, rules []entity.RequirementRule, capacity int) (entity.RequirementResult, *errors.AppError) {
	if len(rules) == 0 {
		return entity.RequirementResult{Blocking: []string{}, Warning: []string{}}, nil
	}

	values, err := s.repo.GetUserPropertyValues(ctx, assigned)
	if err != nil {
		return entity.RequirementResult{}, errors.NewAppError(errors.ErrGetFailed, "failed to load property values", err)
	}

	capacityReached := capacity != entity.CapacityUnlimited && len(assigned) >= capacity
	result := s.validator.Evaluate(assigned, rules, values, capacityReached)

	if len(result.Blocking) > 0 || len(result.Warning) > 0 {
		logger.Info("EventService:EvaluateRequirements",
			"blocking", len(result.Blocking),
			"warning", len(result.Warning),
		)
	}
	return result, nil
}

func fieldValuesFromInputs(eventID uuid.UUID, inputs []dto.FieldValueInput) []entity.EventFieldValue {
	values := make([]entity.EventFieldValue, 0, len(inputs))
	for _, in := range inputs {
		values = append(values, entity.EventFieldValue{EventID: eventID, FieldID: in.FieldID, Value: in.Value})
	}
	return values
}

func diffUsers(previous, current []uuid.UUID) (added, removed []uuid.UUID) {
	for _, id := range current {
		if !containsUser(previous, id) {
			added = append(added, id)
		}
	}
	for _, id := range previous {
		if !containsUser(current, id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func removeUser(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
