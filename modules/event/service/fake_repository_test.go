package service

import (
	"context"
	"time"

	coreEntity "shiftboard-api/core/entity"
	"shiftboard-api/core/params"
	"shiftboard-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// fakeRepo is an in-memory EventRepositoryInterface. WithinTransaction
// snapshots the whole store and restores it when fn fails, mirroring a
// database rollback, so the atomicity of multi-table writes is
// observable in tests. failOn injects an error for a named method to
// force mid-transaction failures.
type fakeRepo struct {
	events         map[uuid.UUID]*entity.BookableEvent
	assignments    map[uuid.UUID][]uuid.UUID
	categories     map[uuid.UUID][]uuid.UUID
	fields         map[uuid.UUID][]entity.EventFieldValue
	rules          map[uuid.UUID][]entity.RequirementRule
	properties     map[uuid.UUID]entity.UserProperty
	propertyValues []entity.UserPropertyValue
	userNames      map[uuid.UUID]string
	changeLog      []entity.ChangeLogEntry
	failOn         map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events:      make(map[uuid.UUID]*entity.BookableEvent),
		assignments: make(map[uuid.UUID][]uuid.UUID),
		categories:  make(map[uuid.UUID][]uuid.UUID),
		fields:      make(map[uuid.UUID][]entity.EventFieldValue),
		rules:       make(map[uuid.UUID][]entity.RequirementRule),
		properties:  make(map[uuid.UUID]entity.UserProperty),
		userNames:   make(map[uuid.UUID]string),
		failOn:      make(map[string]error),
	}
}

func (f *fakeRepo) addEvent(ev *entity.BookableEvent, assigned ...uuid.UUID) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	f.events[ev.ID] = ev
	f.assignments[ev.ID] = append([]uuid.UUID{}, assigned...)
}

type fakeSnapshot struct {
	events      map[uuid.UUID]*entity.BookableEvent
	assignments map[uuid.UUID][]uuid.UUID
	categories  map[uuid.UUID][]uuid.UUID
	fields      map[uuid.UUID][]entity.EventFieldValue
	rules       map[uuid.UUID][]entity.RequirementRule
	changeLog   []entity.ChangeLogEntry
}

func (f *fakeRepo) snapshot() fakeSnapshot {
	s := fakeSnapshot{
		events:      make(map[uuid.UUID]*entity.BookableEvent, len(f.events)),
		assignments: make(map[uuid.UUID][]uuid.UUID, len(f.assignments)),
		categories:  make(map[uuid.UUID][]uuid.UUID, len(f.categories)),
		fields:      make(map[uuid.UUID][]entity.EventFieldValue, len(f.fields)),
		rules:       make(map[uuid.UUID][]entity.RequirementRule, len(f.rules)),
		changeLog:   append([]entity.ChangeLogEntry{}, f.changeLog...),
	}
	for id, ev := range f.events {
		clone := *ev
		s.events[id] = &clone
	}
	for id, v := range f.assignments {
		s.assignments[id] = append([]uuid.UUID{}, v...)
	}
	for id, v := range f.categories {
		s.categories[id] = append([]uuid.UUID{}, v...)
	}
	for id, v := range f.fields {
		s.fields[id] = append([]entity.EventFieldValue{}, v...)
	}
	for id, v := range f.rules {
		s.rules[id] = append([]entity.RequirementRule{}, v...)
	}
	return s
}

func (f *fakeRepo) restore(s fakeSnapshot) {
	f.events = s.events
	f.assignments = s.assignments
	f.categories = s.categories
	f.fields = s.fields
	f.rules = s.rules
	f.changeLog = s.changeLog
}

func (f *fakeRepo) WithinTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	snap := f.snapshot()
	if err := fn(nil); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.BookableEvent, error) {
	if err := f.failOn["GetByID"]; err != nil {
		return nil, err
	}
	ev, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	clone := *ev
	return &clone, nil
}

func (f *fakeRepo) ListByOrgs(ctx context.Context, orgIDs []uuid.UUID, p params.QueryParams) (*coreEntity.Pagination[entity.BookableEvent], error) {
	items := []entity.BookableEvent{}
	for _, ev := range f.events {
		for _, orgID := range orgIDs {
			if ev.OrgID == orgID {
				items = append(items, *ev)
			}
		}
	}
	return &coreEntity.Pagination[entity.BookableEvent]{
		Items:      items,
		TotalItems: len(items),
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
	}, nil
}

func (f *fakeRepo) GetAssignedUserIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	if err := f.failOn["GetAssignedUserIDs"]; err != nil {
		return nil, err
	}
	return append([]uuid.UUID{}, f.assignments[eventID]...), nil
}

func (f *fakeRepo) GetCategoryIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID{}, f.categories[eventID]...), nil
}

func (f *fakeRepo) GetFieldValues(ctx context.Context, eventID uuid.UUID) ([]entity.EventFieldValue, error) {
	return append([]entity.EventFieldValue{}, f.fields[eventID]...), nil
}

func (f *fakeRepo) GetRules(ctx context.Context, eventID uuid.UUID) ([]entity.RequirementRule, error) {
	return append([]entity.RequirementRule{}, f.rules[eventID]...), nil
}

func (f *fakeRepo) GetUserPropertyValues(ctx context.Context, userIDs []uuid.UUID) ([]entity.UserPropertyValue, error) {
	out := []entity.UserPropertyValue{}
	for _, v := range f.propertyValues {
		for _, id := range userIDs {
			if v.UserID == id {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) GetProperties(ctx context.Context, propertyIDs []uuid.UUID) ([]entity.UserProperty, error) {
	out := []entity.UserProperty{}
	for _, id := range propertyIDs {
		if p, ok := f.properties[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetCandidateAssignments(ctx context.Context, userIDs []uuid.UUID, excludeEventID *uuid.UUID) ([]entity.AssignmentCandidate, error) {
	if err := f.failOn["GetCandidateAssignments"]; err != nil {
		return nil, err
	}
	out := []entity.AssignmentCandidate{}
	for eventID, assigned := range f.assignments {
		if excludeEventID != nil && eventID == *excludeEventID {
			continue
		}
		ev, ok := f.events[eventID]
		if !ok {
			continue
		}
		for _, userID := range assigned {
			for _, requested := range userIDs {
				if userID == requested {
					out = append(out, entity.AssignmentCandidate{
						UserID:     userID,
						UserName:   f.userNames[userID],
						EventID:    eventID,
						EventTitle: ev.Title,
						StartTime:  ev.StartTime,
						EndTime:    ev.EndTime,
						AllDay:     ev.AllDay,
					})
				}
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertEvent(ctx context.Context, tx *sqlx.Tx, ev *entity.BookableEvent) error {
	if err := f.failOn["InsertEvent"]; err != nil {
		return err
	}
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = ev.CreatedAt
	clone := *ev
	f.events[ev.ID] = &clone
	return nil
}

func (f *fakeRepo) UpdateEvent(ctx context.Context, tx *sqlx.Tx, ev *entity.BookableEvent) error {
	if err := f.failOn["UpdateEvent"]; err != nil {
		return err
	}
	clone := *ev
	clone.UpdatedAt = time.Now()
	f.events[ev.ID] = &clone
	return nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, status entity.EventStatus, manuallyConfirmed bool) error {
	if err := f.failOn["UpdateStatus"]; err != nil {
		return err
	}
	if ev, ok := f.events[eventID]; ok {
		ev.Status = status
		ev.ManuallyConfirmed = manuallyConfirmed
	}
	return nil
}

func (f *fakeRepo) ReplaceCategories(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, categoryIDs []uuid.UUID) error {
	if err := f.failOn["ReplaceCategories"]; err != nil {
		return err
	}
	f.categories[eventID] = append([]uuid.UUID{}, categoryIDs...)
	return nil
}

func (f *fakeRepo) ReplaceFieldValues(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, values []entity.EventFieldValue) error {
	if err := f.failOn["ReplaceFieldValues"]; err != nil {
		return err
	}
	f.fields[eventID] = append([]entity.EventFieldValue{}, values...)
	return nil
}

func (f *fakeRepo) ReplaceAssignments(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, userIDs []uuid.UUID) error {
	if err := f.failOn["ReplaceAssignments"]; err != nil {
		return err
	}
	f.assignments[eventID] = append([]uuid.UUID{}, userIDs...)
	return nil
}

func (f *fakeRepo) ReplaceRules(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, rules []entity.RequirementRule) error {
	if err := f.failOn["ReplaceRules"]; err != nil {
		return err
	}
	f.rules[eventID] = append([]entity.RequirementRule{}, rules...)
	return nil
}

func (f *fakeRepo) InsertAssignment(ctx context.Context, tx *sqlx.Tx, eventID, userID uuid.UUID) error {
	if err := f.failOn["InsertAssignment"]; err != nil {
		return err
	}
	for _, existing := range f.assignments[eventID] {
		if existing == userID {
			return nil
		}
	}
	f.assignments[eventID] = append(f.assignments[eventID], userID)
	return nil
}

func (f *fakeRepo) DeleteAssignment(ctx context.Context, tx *sqlx.Tx, eventID, userID uuid.UUID) error {
	if err := f.failOn["DeleteAssignment"]; err != nil {
		return err
	}
	kept := []uuid.UUID{}
	for _, existing := range f.assignments[eventID] {
		if existing != userID {
			kept = append(kept, existing)
		}
	}
	f.assignments[eventID] = kept
	return nil
}

func (f *fakeRepo) DeleteEvent(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) error {
	if err := f.failOn["DeleteEvent"]; err != nil {
		return err
	}
	delete(f.events, eventID)
	delete(f.assignments, eventID)
	delete(f.categories, eventID)
	delete(f.fields, eventID)
	delete(f.rules, eventID)
	return nil
}

func (f *fakeRepo) InsertChangeLog(ctx context.Context, tx *sqlx.Tx, entry *entity.ChangeLogEntry) error {
	if err := f.failOn["InsertChangeLog"]; err != nil {
		return err
	}
	stored := *entry
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	f.changeLog = append(f.changeLog, stored)
	return nil
}

func (f *fakeRepo) ListChangeLog(ctx context.Context, eventID uuid.UUID, p params.QueryParams) (*entity.PaginatedChangeLog, error) {
	items := []entity.ChangeLogEntry{}
	for _, entry := range f.changeLog {
		if entry.EventID == eventID {
			items = append(items, entry)
		}
	}
	return &entity.PaginatedChangeLog{
		Items:      items,
		TotalItems: len(items),
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
	}, nil
}
