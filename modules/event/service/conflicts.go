package service

import (
	"context"
	"time"

	"shiftboard-api/modules/event/entity"
	"shiftboard-api/modules/event/repository"

	"github.com/google/uuid"
)

// ExcludeRule scopes a conflict check. It is a small tagged union: skip
// the check entirely, exclude one event, or exclude nothing.
type ExcludeRule struct {
	all     bool
	eventID *uuid.UUID
}

// ExcludeAll bypasses the check entirely; used by internal calls that
// intentionally skip validation.
func ExcludeAll() ExcludeRule {
	return ExcludeRule{all: true}
}

// ExcludeEvent excludes the named event from the search, for updates
// where the event must not conflict with itself.
func ExcludeEvent(id uuid.UUID) ExcludeRule {
	return ExcludeRule{eventID: &id}
}

// ExcludeNone searches all existing events, for newly created ones.
func ExcludeNone() ExcludeRule {
	return ExcludeRule{}
}

// ConflictDetector finds existing assignments that overlap a proposed
// interval for any of a set of users.
type ConflictDetector struct {
	repo repository.EventRepositoryInterface
}

func NewConflictDetector(repo repository.EventRepositoryInterface) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// CheckConflicts returns every overlapping booking of the requested
// users within [start, end). The query is scoped to exactly those
// users; other participants of the candidate events are not considered.
func (d *ConflictDetector) CheckConflicts(ctx context.Context, userIDs []uuid.UUID, start, end time.Time, exclude ExcludeRule) ([]entity.Conflict, error) {
	if len(userIDs) == 0 || exclude.all {
		return []entity.Conflict{}, nil
	}

	candidates, err := d.repo.GetCandidateAssignments(ctx, userIDs, exclude.eventID)
	if err != nil {
		return nil, err
	}

	conflicts := make([]entity.Conflict, 0)
	for _, c := range candidates {
		otherStart, otherEnd := c.Interval()
		if !overlaps(start, end, otherStart, otherEnd) {
			continue
		}
		conflicts = append(conflicts, entity.Conflict{
			UserID:   c.UserID,
			UserName: c.UserName,
			Event: entity.ConflictingEvent{
				ID:        c.EventID,
				Title:     c.EventTitle,
				StartTime: c.StartTime,
				EndTime:   c.EndTime,
			},
		})
	}
	return conflicts, nil
}

// overlaps is the three-way interval test: the other event starts
// within [start, end), ends within (start, end], or fully encompasses
// [start, end]. Boundary-touching events (one ends exactly when the
// other starts) do not overlap.
func overlaps(start, end, otherStart, otherEnd time.Time) bool {
	startsWithin := !otherStart.Before(start) && otherStart.Before(end)
	endsWithin := otherEnd.After(start) && !otherEnd.After(end)
	encompasses := !otherStart.After(start) && !otherEnd.Before(end)
	return startsWithin || endsWithin || encompasses
}
