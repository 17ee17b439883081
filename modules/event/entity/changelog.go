package entity

import (
	"time"

	coreEntity "shiftboard-api/core/entity"

	"github.com/google/uuid"
)

// ChangeType is the semantic classification of a mutation for the audit log.
type ChangeType string

const (
	ChangeTypeCreate   ChangeType = "create"
	ChangeTypeAssign   ChangeType = "assign"
	ChangeTypeCancel   ChangeType = "cancel"
	ChangeTypeTakeover ChangeType = "takeover"
	ChangeTypeEdit     ChangeType = "edit"
)

// ChangeLogEntry is an append-only audit record. Entries are never
// updated or deleted by the engine; retention pruning is an external job.
type ChangeLogEntry struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	EventID        uuid.UUID  `db:"event_id" json:"event_id"`
	ActorUserID    uuid.UUID  `db:"actor_user_id" json:"actor_user_id"`
	ChangeType     ChangeType `db:"change_type" json:"change_type"`
	AffectedUserID *uuid.UUID `db:"affected_user_id" json:"affected_user_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type PaginatedChangeLog = coreEntity.Pagination[ChangeLogEntry]
