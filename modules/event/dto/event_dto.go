package dto

import (
	"time"

	"shiftboard-api/modules/event/entity"

	"github.com/google/uuid"
)

type RuleInput struct {
	PropertyID       uuid.UUID `json:"property_id"`
	IsRequired       bool      `json:"is_required"`
	MinMatchingUsers int       `json:"min_matching_users"`
}

type FieldValueInput struct {
	FieldID uuid.UUID `json:"field_id"`
	Value   string    `json:"value"`
}

type CreateEventRequest struct {
	OrgID                uuid.UUID         `json:"org_id"`
	Title                string            `json:"title"`
	Description          string            `json:"description,omitempty"`
	StartTime            time.Time         `json:"start_time"`
	EndTime              time.Time         `json:"end_time"`
	AllDay               bool              `json:"all_day"`
	Capacity             int               `json:"capacity"`
	CategoryIDs          []uuid.UUID       `json:"category_ids"`
	FieldValues          []FieldValueInput `json:"field_values"`
	AssignedUserIDs      []uuid.UUID       `json:"assigned_user_ids"`
	Rules                []RuleInput       `json:"rules"`
	DisableConflictCheck bool              `json:"disable_conflict_check"`
	AcknowledgeWarnings  bool              `json:"acknowledge_warnings"`
}

// PatchKind distinguishes a full update payload from a lightweight
// time-only one. The caller picks the kind explicitly; it is never
// inferred from which fields happen to be set.
type PatchKind string

const (
	PatchKindFull     PatchKind = "full"
	PatchKindTimeOnly PatchKind = "timeOnly"
)

// EventPatch is the tagged update payload. For PatchKindFull, nil
// collection pointers mean "leave untouched"; non-nil ones are applied
// with replace-all semantics. PatchKindTimeOnly only reads StartTime,
// EndTime and AllDay.
type EventPatch struct {
	Kind                 PatchKind          `json:"kind"`
	Title                *string            `json:"title,omitempty"`
	Description          *string            `json:"description,omitempty"`
	StartTime            *time.Time         `json:"start_time,omitempty"`
	EndTime              *time.Time         `json:"end_time,omitempty"`
	AllDay               *bool              `json:"all_day,omitempty"`
	Capacity             *int               `json:"capacity,omitempty"`
	CategoryIDs          *[]uuid.UUID       `json:"category_ids,omitempty"`
	FieldValues          *[]FieldValueInput `json:"field_values,omitempty"`
	AssignedUserIDs      *[]uuid.UUID       `json:"assigned_user_ids,omitempty"`
	Rules                *[]RuleInput       `json:"rules,omitempty"`
	DisableConflictCheck bool               `json:"disable_conflict_check"`
	AcknowledgeWarnings  bool               `json:"acknowledge_warnings"`
}

type EventSummaryDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type ConflictDTO struct {
	UserID   uuid.UUID       `json:"user_id"`
	UserName string          `json:"user_name"`
	Event    EventSummaryDTO `json:"event"`
}

// EventResponse is the read projection consumed by calendar and table
// views: the event plus derived status and its full association sets.
type EventResponse struct {
	ID              uuid.UUID          `json:"id"`
	OrgID           uuid.UUID          `json:"org_id"`
	Title           string             `json:"title"`
	Slug            string             `json:"slug"`
	Description     *string            `json:"description,omitempty"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         time.Time          `json:"end_time"`
	AllDay          bool               `json:"all_day"`
	Capacity        int                `json:"capacity"`
	Status          entity.EventStatus `json:"status"`
	AssignedUserIDs []uuid.UUID        `json:"assigned_user_ids"`
	CategoryIDs     []uuid.UUID        `json:"category_ids"`
	FieldValues     []FieldValueInput  `json:"field_values"`
	Rules           []RuleInput        `json:"rules"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// MutationResult is the outcome of create/update operations. Conflicts
// and requirement lists are data, not errors: a nil Event means nothing
// was persisted, whether because of conflicts, blocking requirements or
// warnings still waiting for an explicit acknowledgement.
type MutationResult struct {
	Event     *EventResponse `json:"event,omitempty"`
	Conflicts []ConflictDTO  `json:"conflicts,omitempty"`
	Blocking  []string       `json:"blocking,omitempty"`
	Warning   []string       `json:"warning,omitempty"`
}

func (r *MutationResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

func (r *MutationResult) IsBlocked() bool {
	return len(r.Conflicts) > 0 || len(r.Blocking) > 0
}

// NeedsAcknowledgement reports a warning-only soft failure: the mutation
// was withheld until the caller confirms the warnings and retries with
// AcknowledgeWarnings set.
func (r *MutationResult) NeedsAcknowledgement() bool {
	return r.Event == nil && len(r.Conflicts) == 0 && len(r.Blocking) == 0 && len(r.Warning) > 0
}

func ToConflictDTOs(conflicts []entity.Conflict) []ConflictDTO {
	out := make([]ConflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, ConflictDTO{
			UserID:   c.UserID,
			UserName: c.UserName,
			Event: EventSummaryDTO{
				ID:        c.Event.ID,
				Title:     c.Event.Title,
				StartTime: c.Event.StartTime,
				EndTime:   c.Event.EndTime,
			},
		})
	}
	return out
}

func ToEventResponse(ev *entity.BookableEvent, assigned []uuid.UUID, categories []uuid.UUID, fields []entity.EventFieldValue, rules []entity.RequirementRule) *EventResponse {
	resp := &EventResponse{
		ID:              ev.ID,
		OrgID:           ev.OrgID,
		Title:           ev.Title,
		Slug:            ev.Slug,
		Description:     ev.Description,
		StartTime:       ev.StartTime,
		EndTime:         ev.EndTime,
		AllDay:          ev.AllDay,
		Capacity:        ev.Capacity,
		Status:          ev.Status,
		AssignedUserIDs: assigned,
		CategoryIDs:     categories,
		FieldValues:     make([]FieldValueInput, 0, len(fields)),
		Rules:           make([]RuleInput, 0, len(rules)),
		CreatedAt:       ev.CreatedAt,
		UpdatedAt:       ev.UpdatedAt,
	}
	if resp.AssignedUserIDs == nil {
		resp.AssignedUserIDs = []uuid.UUID{}
	}
	if resp.CategoryIDs == nil {
		resp.CategoryIDs = []uuid.UUID{}
	}
	for _, f := range fields {
		resp.FieldValues = append(resp.FieldValues, FieldValueInput{FieldID: f.FieldID, Value: f.Value})
	}
	for _, r := range rules {
		resp.Rules = append(resp.Rules, RuleInput{
			PropertyID:       r.PropertyID,
			IsRequired:       r.IsRequired,
			MinMatchingUsers: r.MinMatchingUsers,
		})
	}
	return resp
}
