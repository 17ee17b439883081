package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the derived lifecycle label of a bookable event.
type EventStatus string

const (
	EventStatusOpen      EventStatus = "open"
	EventStatusAssigned  EventStatus = "assigned"
	EventStatusConfirmed EventStatus = "confirmed"
)

// StatusTable is the status lookup injected into the deriver. There is
// deliberately no package-level fallback table; callers must pass one.
type StatusTable struct {
	Open      EventStatus
	Assigned  EventStatus
	Confirmed EventStatus
}

func DefaultStatusTable() StatusTable {
	return StatusTable{
		Open:      EventStatusOpen,
		Assigned:  EventStatusAssigned,
		Confirmed: EventStatusConfirmed,
	}
}

// CapacityUnlimited marks an event without a helper limit.
const CapacityUnlimited = -1

// BookableEvent is a time-bounded shift with a helper capacity, owned by
// an organization. All-day events are date-only with an inclusive end.
type BookableEvent struct {
	ID                uuid.UUID   `db:"id" json:"id"`
	OrgID             uuid.UUID   `db:"org_id" json:"org_id"`
	Title             string      `db:"title" json:"title"`
	Slug              string      `db:"slug" json:"slug"`
	Description       *string     `db:"description" json:"description,omitempty"`
	StartTime         time.Time   `db:"start_time" json:"start_time"`
	EndTime           time.Time   `db:"end_time" json:"end_time"`
	AllDay            bool        `db:"all_day" json:"all_day"`
	Capacity          int         `db:"capacity" json:"capacity"`
	Status            EventStatus `db:"status" json:"status"`
	ManuallyConfirmed bool        `db:"manually_confirmed" json:"manually_confirmed"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// Interval returns the event's half-open booking interval. All-day
// events normalize to [start of first day, start of the day after the
// last day) so the overlap predicate applies uniformly.
func (e *BookableEvent) Interval() (time.Time, time.Time) {
	return NormalizeInterval(e.StartTime, e.EndTime, e.AllDay)
}

func NormalizeInterval(start, end time.Time, allDay bool) (time.Time, time.Time) {
	if !allDay {
		return start, end
	}
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).AddDate(0, 0, 1)
	return s, e
}

// Assignment links a user to an event. Assignments are created and
// removed as whole rows, never mutated in place.
type Assignment struct {
	EventID   uuid.UUID `db:"event_id" json:"event_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EventCategory links an event to a category.
type EventCategory struct {
	EventID    uuid.UUID `db:"event_id" json:"event_id"`
	CategoryID uuid.UUID `db:"category_id" json:"category_id"`
}

// EventFieldValue stores the value of a custom field on an event.
type EventFieldValue struct {
	EventID uuid.UUID `db:"event_id" json:"event_id"`
	FieldID uuid.UUID `db:"field_id" json:"field_id"`
	Value   string    `db:"value" json:"value"`
}

// MinMatchingAllAssigned is the sentinel meaning "every currently
// assigned user must satisfy the rule's property".
const MinMatchingAllAssigned = -1

// RequirementRule demands that at least MinMatchingUsers of the assigned
// users carry a value for the referenced user property. Rules are
// replaced wholesale on event update, never patched.
type RequirementRule struct {
	ID               uuid.UUID `db:"id" json:"id"`
	EventID          uuid.UUID `db:"event_id" json:"event_id"`
	PropertyID       uuid.UUID `db:"property_id" json:"property_id"`
	PropertyName     string    `db:"property_name" json:"property_name"`
	PropertyType     string    `db:"property_type" json:"property_type"`
	IsRequired       bool      `db:"is_required" json:"is_required"`
	MinMatchingUsers int       `db:"min_matching_users" json:"min_matching_users"`
}

// UserProperty is a configurable property users can carry a value for
// (e.g. a driving licence flag), referenced by requirement rules.
type UserProperty struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	Type string    `db:"type" json:"type"`
}

// UserPropertyValue is the raw value a user carries for a property.
type UserPropertyValue struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	PropertyID   uuid.UUID `db:"property_id" json:"property_id"`
	PropertyType string    `db:"property_type" json:"property_type"`
	Value        *string   `db:"value" json:"value"`
}

// RequirementResult splits unmet rules by severity. Warnings may be
// acknowledged by the caller; blocking entries cannot, because the
// change would fill the last open slot.
type RequirementResult struct {
	Blocking []string `json:"blocking"`
	Warning  []string `json:"warning"`
}

func (r RequirementResult) Empty() bool {
	return len(r.Blocking) == 0 && len(r.Warning) == 0
}

// Conflict reports an existing assignment whose event overlaps a
// proposed interval for the same user.
type Conflict struct {
	UserID   uuid.UUID        `json:"user_id"`
	UserName string           `json:"user_name"`
	Event    ConflictingEvent `json:"event"`
}

type ConflictingEvent struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// AssignmentCandidate is a row the conflict query returns before the
// overlap predicate is applied: one existing assignment of one of the
// requested users, joined with its event and the user's display name.
type AssignmentCandidate struct {
	UserID     uuid.UUID `db:"user_id"`
	UserName   string    `db:"user_name"`
	EventID    uuid.UUID `db:"event_id"`
	EventTitle string    `db:"event_title"`
	StartTime  time.Time `db:"start_time"`
	EndTime    time.Time `db:"end_time"`
	AllDay     bool      `db:"all_day"`
}

func (c *AssignmentCandidate) Interval() (time.Time, time.Time) {
	return NormalizeInterval(c.StartTime, c.EndTime, c.AllDay)
}
