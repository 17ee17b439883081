package repository

import (
	"context"
	"database/sql"

	"shiftboard-api/core/database"
	coreEntity "shiftboard-api/core/entity"
	"shiftboard-api/core/logger"
	"shiftboard-api/core/params"
	"shiftboard-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EventRepository handles event database operations
type EventRepository struct {
	DB database.IDatabase
}

// NewEventRepository creates a new repository instance
func NewEventRepository(db database.IDatabase) *EventRepository {
	return &EventRepository{DB: db}
}

// EventRepositoryInterface defines the repository contract
type EventRepositoryInterface interface {
	WithinTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error

	// Event and projections
	GetByID(ctx context.Context, id uuid.UUID) (*entity.BookableEvent, error)
	ListByOrgs(ctx context.Context, orgIDs []uuid.UUID, p params.QueryParams) (*coreEntity.Pagination[entity.BookableEvent], error)
	GetAssignedUserIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	GetCategoryIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	GetFieldValues(ctx context.Context, eventID uuid.UUID) ([]entity.EventFieldValue, error)
	GetRules(ctx context.Context, eventID uuid.UUID) ([]entity.RequirementRule, error)
	GetUserPropertyValues(ctx context.Context, userIDs []uuid.UUID) ([]entity.UserPropertyValue, error)
	GetProperties(ctx context.Context, propertyIDs []uuid.UUID) ([]entity.UserProperty, error)

	// Conflict query (predicate applied by the service)
	GetCandidateAssignments(ctx context.Context, userIDs []uuid.UUID, excludeEventID *uuid.UUID) ([]entity.AssignmentCandidate, error)

	// Transactional writes
	InsertEvent(ctx context.Context, tx *sqlx.Tx, ev *entity.BookableEvent) error
	UpdateEvent(ctx context.Context, tx *sqlx.Tx, ev *entity.BookableEvent) error
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, status entity.EventStatus, manuallyConfirmed bool) error
	ReplaceCategories(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, categoryIDs []uuid.UUID) error
	ReplaceFieldValues(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, values []entity.EventFieldValue) error
	ReplaceAssignments(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, userIDs []uuid.UUID) error
	ReplaceRules(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, rules []entity.RequirementRule) error
	InsertAssignment(ctx context.Context, tx *sqlx.Tx, eventID, userID uuid.UUID) error
	DeleteAssignment(ctx context.Context, tx *sqlx.Tx, eventID, userID uuid.UUID) error
	DeleteEvent(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) error

	// Append-only audit log
	InsertChangeLog(ctx context.Context, tx *sqlx.Tx, entry *entity.ChangeLogEntry) error
	ListChangeLog(ctx context.Context, eventID uuid.UUID, p params.QueryParams) (*entity.PaginatedChangeLog, error)
}

func (r *EventRepository) WithinTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return r.DB.WithinTransaction(ctx, fn)
}

// ===================== Event reads =====================

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.BookableEvent, error) {
	query := `
		SELECT id, org_id, title, slug, description, start_time, end_time, all_day,
		       capacity, status, manually_confirmed, created_at, updated_at
		FROM events WHERE id = $1
	`

	var ev entity.BookableEvent
	err := r.DB.GetContext(ctx, &ev, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetByID", err)
		return nil, err
	}

	return &ev, nil
}

func (r *EventRepository) ListByOrgs(ctx context.Context, orgIDs []uuid.UUID, p params.QueryParams) (*coreEntity.Pagination[entity.BookableEvent], error) {
	if len(orgIDs) == 0 {
		return &coreEntity.Pagination[entity.BookableEvent]{
			Items:      []entity.BookableEvent{},
			PageNumber: p.PageNumber,
			PageSize:   p.PageSize,
		}, nil
	}

	baseQuery := `FROM events WHERE org_id IN (?)`
	args := []any{orgIDs}
	if p.Search != "" {
		baseQuery += ` AND title ILIKE ?`
		args = append(args, "%"+p.Search+"%")
	}

	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*) `+baseQuery, args...)
	if err != nil {
		return nil, err
	}
	countQuery = r.DB.SQLx().Rebind(countQuery)

	var totalItems int
	if err := r.DB.GetContext(ctx, &totalItems, countQuery, countArgs...); err != nil {
		logger.Error("EventRepository:ListByOrgs:Count:Error:", err)
		return nil, err
	}

	dataQuery, dataArgs, err := sqlx.In(`
		SELECT id, org_id, title, slug, description, start_time, end_time, all_day,
		       capacity, status, manually_confirmed, created_at, updated_at
		`+baseQuery+`
		ORDER BY start_time ASC
		LIMIT ? OFFSET ?`, append(args, p.PageSize, p.Offset())...)
	if err != nil {
		return nil, err
	}
	dataQuery = r.DB.SQLx().Rebind(dataQuery)

	var events []entity.BookableEvent
	if err := r.DB.SelectContext(ctx, &events, dataQuery, dataArgs...); err != nil {
		logger.Error("EventRepository:ListByOrgs:Select:Error:", err)
		return nil, err
	}

	return &coreEntity.Pagination[entity.BookableEvent]{
		Items:      events,
		TotalItems: totalItems,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
	}, nil
}

func (r *EventRepository) GetAssignedUserIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM assignments WHERE event_id = $1 ORDER BY created_at`

	var userIDs []uuid.UUID
	if err := r.DB.SelectContext(ctx, &userIDs, query, eventID); err != nil {
		logger.Error("EventRepository:GetAssignedUserIDs", err)
		return nil, err
	}
	return userIDs, nil
}

func (r *EventRepository) GetCategoryIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT category_id FROM event_categories WHERE event_id = $1`

	var ids []uuid.UUID
	if err := r.DB.SelectContext(ctx, &ids, query, eventID); err != nil {
		logger.Error("EventRepository:GetCategoryIDs", err)
		return nil, err
	}
	return ids, nil
}

func (r *EventRepository) GetFieldValues(ctx context.Context, eventID uuid.UUID) ([]entity.EventFieldValue, error) {
	query := `SELECT event_id, field_id, value FROM event_field_values WHERE event_id = $1`

	var values []entity.EventFieldValue
	if err := r.DB.SelectContext(ctx, &values, query, eventID); err != nil {
		logger.Error("EventRepository:GetFieldValues", err)
		return nil, err
	}
	return values, nil
}

func (r *EventRepository) GetRules(ctx context.Context, eventID uuid.UUID) ([]entity.RequirementRule, error) {
	query := `
		SELECT r.id, r.event_id, r.property_id, p.name AS property_name, p.type AS property_type,
		       r.is_required, r.min_matching_users
		FROM requirement_rules r
		JOIN user_properties p ON p.id = r.property_id
		WHERE r.event_id = $1
	`

	var rules []entity.RequirementRule
	if err := r.DB.SelectContext(ctx, &rules, query, eventID); err != nil {
		logger.Error("EventRepository:GetRules", err)
		return nil, err
	}
	return rules, nil
}

func (r *EventRepository) GetUserPropertyValues(ctx context.Context, userIDs []uuid.UUID) ([]entity.UserPropertyValue, error) {
	if len(userIDs) == 0 {
		return []entity.UserPropertyValue{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT v.user_id, v.property_id, p.type AS property_type, v.value
		FROM user_property_values v
		JOIN user_properties p ON p.id = v.property_id
		WHERE v.user_id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}
	query = r.DB.SQLx().Rebind(query)

	var values []entity.UserPropertyValue
	if err := r.DB.SelectContext(ctx, &values, query, args...); err != nil {
		logger.Error("EventRepository:GetUserPropertyValues", err)
		return nil, err
	}
	return values, nil
}

func (r *EventRepository) GetProperties(ctx context.Context, propertyIDs []uuid.UUID) ([]entity.UserProperty, error) {
	if len(propertyIDs) == 0 {
		return []entity.UserProperty{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, type FROM user_properties WHERE id IN (?)`, propertyIDs)
	if err != nil {
		return nil, err
	}
	query = r.DB.SQLx().Rebind(query)

	var properties []entity.UserProperty
	if err := r.DB.SelectContext(ctx, &properties, query, args...); err != nil {
		logger.Error("EventRepository:GetProperties", err)
		return nil, err
	}
	return properties, nil
}

// ===================== Conflict query =====================

// GetCandidateAssignments returns every existing assignment of the
// requested users (optionally excluding one event), joined with its
// event. The interval overlap test runs in the service; the query is
// scoped strictly to the requested user ids, not all participants.
func (r *EventRepository) GetCandidateAssignments(ctx context.Context, userIDs []uuid.UUID, excludeEventID *uuid.UUID) ([]entity.AssignmentCandidate, error) {
	if len(userIDs) == 0 {
		return []entity.AssignmentCandidate{}, nil
	}

	base := `
		SELECT a.user_id, u.name AS user_name, e.id AS event_id, e.title AS event_title,
		       e.start_time, e.end_time, e.all_day
		FROM assignments a
		JOIN events e ON e.id = a.event_id
		JOIN users u ON u.id = a.user_id
		WHERE a.user_id IN (?)`
	args := []any{userIDs}
	if excludeEventID != nil {
		base += ` AND e.id <> ?`
		args = append(args, *excludeEventID)
	}

	query, inArgs, err := sqlx.In(base, args...)
	if err != nil {
		return nil, err
	}
	query = r.DB.SQLx().Rebind(query)

	var candidates []entity.AssignmentCandidate
	if err := r.DB.SelectContext(ctx, &candidates, query, inArgs...); err != nil {
		logger.Error("EventRepository:GetCandidateAssignments", err)
		return nil, err
	}
	return candidates, nil
}

// ===================== Transactional writes =====================

func (r *EventRepository) InsertEvent(ctx context.Context, tx *sqlx.Tx, ev *entity.BookableEvent) error {
	query := `
		INSERT INTO events (org_id, title, slug, description, start_time, end_time, all_day,
		                    capacity, status, manually_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRowxContext(ctx, query,
		ev.OrgID, ev.Title, ev.Slug, ev.Description, ev.StartTime, ev.EndTime, ev.AllDay,
		ev.Capacity, ev.Status, ev.ManuallyConfirmed).
		Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		logger.Error("EventRepository:InsertEvent", err)
		return err
	}
	return nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, tx *sqlx.Tx, ev *entity.BookableEvent) error {
	query := `
		UPDATE events
		SET title = $2, slug = $3, description = $4, start_time = $5, end_time = $6,
		    all_day = $7, capacity = $8, status = $9, manually_confirmed = $10, updated_at = NOW()
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query,
		ev.ID, ev.Title, ev.Slug, ev.Description, ev.StartTime, ev.EndTime,
		ev.AllDay, ev.Capacity, ev.Status, ev.ManuallyConfirmed)
	if err != nil {
		logger.Error("EventRepository:UpdateEvent", err)
		return err
	}
	return nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, status entity.EventStatus, manuallyConfirmed bool) error {
	query := `UPDATE events SET status = $2, manually_confirmed = $3, updated_at = NOW() WHERE id = $1`

	_, err := tx.ExecContext(ctx, query, eventID, status, manuallyConfirmed)
	if err != nil {
		logger.Error("EventRepository:UpdateStatus", err)
		return err
	}
	return nil
}

func (r *EventRepository) ReplaceCategories(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, categoryIDs []uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_categories WHERE event_id = $1`, eventID); err != nil {
		logger.Error("EventRepository:ReplaceCategories:Delete:Error:", err)
		return err
	}
	for _, categoryID := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO event_categories (event_id, category_id) VALUES ($1, $2)`, eventID, categoryID)
		if err != nil {
			logger.Error("EventRepository:ReplaceCategories:Insert:Error:", err)
			return err
		}
	}
	return nil
}

func (r *EventRepository) ReplaceFieldValues(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, values []entity.EventFieldValue) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_field_values WHERE event_id = $1`, eventID); err != nil {
		logger.Error("EventRepository:ReplaceFieldValues:Delete:Error:", err)
		return err
	}
	for _, v := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO event_field_values (event_id, field_id, value) VALUES ($1, $2, $3)`,
			eventID, v.FieldID, v.Value)
		if err != nil {
			logger.Error("EventRepository:ReplaceFieldValues:Insert:Error:", err)
			return err
		}
	}
	return nil
}

func (r *EventRepository) ReplaceAssignments(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, userIDs []uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE event_id = $1`, eventID); err != nil {
		logger.Error("EventRepository:ReplaceAssignments:Delete:Error:", err)
		return err
	}
	for _, userID := range userIDs {
		if err := r.InsertAssignment(ctx, tx, eventID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *EventRepository) ReplaceRules(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, rules []entity.RequirementRule) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM requirement_rules WHERE event_id = $1`, eventID); err != nil {
		logger.Error("EventRepository:ReplaceRules:Delete:Error:", err)
		return err
	}
	for _, rule := range rules {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO requirement_rules (event_id, property_id, is_required, min_matching_users)
			VALUES ($1, $2, $3, $4)`,
			eventID, rule.PropertyID, rule.IsRequired, rule.MinMatchingUsers)
		if err != nil {
			logger.Error("EventRepository:ReplaceRules:Insert:Error:", err)
			return err
		}
	}
	return nil
}

func (r *EventRepository) InsertAssignment(ctx context.Context, tx *sqlx.Tx, eventID, userID uuid.UUID) error {
	query := `
		INSERT INTO assignments (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, eventID, userID); err != nil {
		logger.Error("EventRepository:InsertAssignment", err)
		return err
	}
	return nil
}

func (r *EventRepository) DeleteAssignment(ctx context.Context, tx *sqlx.Tx, eventID, userID uuid.UUID) error {
	query := `DELETE FROM assignments WHERE event_id = $1 AND user_id = $2`
	if _, err := tx.ExecContext(ctx, query, eventID, userID); err != nil {
		logger.Error("EventRepository:DeleteAssignment", err)
		return err
	}
	return nil
}

// DeleteEvent removes the event and all of its associated rows. The
// explicit deletes keep the cascade visible even without FK cascades.
func (r *EventRepository) DeleteEvent(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) error {
	statements := []string{
		`DELETE FROM change_log_entries WHERE event_id = $1`,
		`DELETE FROM requirement_rules WHERE event_id = $1`,
		`DELETE FROM assignments WHERE event_id = $1`,
		`DELETE FROM event_field_values WHERE event_id = $1`,
		`DELETE FROM event_categories WHERE event_id = $1`,
		`DELETE FROM events WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, eventID); err != nil {
			logger.Error("EventRepository:DeleteEvent", err)
			return err
		}
	}
	return nil
}

// ===================== Change log =====================

func (r *EventRepository) InsertChangeLog(ctx context.Context, tx *sqlx.Tx, entry *entity.ChangeLogEntry) error {
	query := `
		INSERT INTO change_log_entries (event_id, actor_user_id, change_type, affected_user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		entry.EventID, entry.ActorUserID, entry.ChangeType, entry.AffectedUserID).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		logger.Error("EventRepository:InsertChangeLog", err)
		return err
	}
	return nil
}

func (r *EventRepository) ListChangeLog(ctx context.Context, eventID uuid.UUID, p params.QueryParams) (*entity.PaginatedChangeLog, error) {
	baseQuery := `FROM change_log_entries WHERE event_id = $1`

	var totalItems int
	if err := r.DB.GetContext(ctx, &totalItems, `SELECT COUNT(*) `+baseQuery, eventID); err != nil {
		logger.Error("EventRepository:ListChangeLog:Count:Error:", err)
		return nil, err
	}

	query := `
		SELECT id, event_id, actor_user_id, change_type, affected_user_id, created_at
		` + baseQuery + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var entries []entity.ChangeLogEntry
	if err := r.DB.SelectContext(ctx, &entries, query, eventID, p.PageSize, p.Offset()); err != nil {
		logger.Error("EventRepository:ListChangeLog:Select:Error:", err)
		return nil, err
	}

	return &entity.PaginatedChangeLog{
		Items:      entries,
		TotalItems: totalItems,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
	}, nil
}
