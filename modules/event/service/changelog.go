package service

import (
	"context"

	"shiftboard-api/modules/event/entity"
	"shiftboard-api/modules/event/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ChangeLogger classifies the semantic change type of a mutation and
// appends immutable audit entries.
type ChangeLogger struct {
	repo repository.EventRepositoryInterface
}

func NewChangeLogger(repo repository.EventRepositoryInterface) *ChangeLogger {
	return &ChangeLogger{repo: repo}
}

// ClassifyChangeTypes is a priority-ordered decision list; the first
// matching branch wins and the branches are mutually exclusive.
func (l *ChangeLogger) ClassifyChangeTypes(isNew bool, previous, current []uuid.UUID, actor uuid.UUID) []entity.ChangeType {
	if isNew {
		types := []entity.ChangeType{entity.ChangeTypeCreate}
		if len(current) > 0 {
			types = append(types, entity.ChangeTypeAssign)
		}
		return types
	}
	if len(previous) == 0 && len(current) > 0 {
		return []entity.ChangeType{entity.ChangeTypeAssign}
	}
	if len(previous) > 0 && len(current) == 0 {
		return []entity.ChangeType{entity.ChangeTypeCancel}
	}
	// An actor joining a shift that already had other helpers is a
	// takeover, distinct from the first assignment.
	if len(previous) > 0 && !containsUser(previous, actor) && containsUser(current, actor) {
		return []entity.ChangeType{entity.ChangeTypeTakeover}
	}
	if len(current) > len(previous) {
		return []entity.ChangeType{entity.ChangeTypeAssign}
	}
	if len(current) < len(previous) {
		return []entity.ChangeType{entity.ChangeTypeCancel}
	}
	return []entity.ChangeType{entity.ChangeTypeEdit}
}

// AffectedUserID attributes a log entry to the single most relevant
// user: the first addition, else the first removal, else the first
// remaining user, else nil.
func (l *ChangeLogger) AffectedUserID(previous, current []uuid.UUID) *uuid.UUID {
	for _, id := range current {
		if !containsUser(previous, id) {
			return &id
		}
	}
	for _, id := range previous {
		if !containsUser(current, id) {
			return &id
		}
	}
	if len(current) > 0 {
		return &current[0]
	}
	return nil
}

// Record classifies the mutation and appends one entry per change type
// inside the caller's transaction. Creation entries are about the event
// itself, so their affected user is forced to nil.
func (l *ChangeLogger) Record(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, actor uuid.UUID, isNew bool, previous, current []uuid.UUID) error {
	affected := l.AffectedUserID(previous, current)

	for _, changeType := range l.ClassifyChangeTypes(isNew, previous, current, actor) {
		entry := &entity.ChangeLogEntry{
			EventID:        eventID,
			ActorUserID:    actor,
			ChangeType:     changeType,
			AffectedUserID: affected,
		}
		if changeType == entity.ChangeTypeCreate {
			entry.AffectedUserID = nil
		}
		if err := l.repo.InsertChangeLog(ctx, tx, entry); err != nil {
			return err
		}
	}
	return nil
}

func containsUser(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
