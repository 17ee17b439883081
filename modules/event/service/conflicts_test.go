package service

import (
	"context"
	"testing"
	"time"

	"shiftboard-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour int) time.Time {
	return time.Date(2026, time.March, 10, hour, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                            string
		start, end, otherStart, otherEnd time.Time
		want                            bool
	}{
		{"other starts within", at(10), at(14), at(12), at(16), true},
		{"other ends within", at(10), at(14), at(8), at(12), true},
		{"other encompasses", at(10), at(14), at(8), at(16), true},
		{"other inside", at(10), at(14), at(11), at(13), true},
		{"identical", at(10), at(14), at(10), at(14), true},
		{"before, touching boundary", at(10), at(14), at(8), at(10), false},
		{"after, touching boundary", at(10), at(14), at(14), at(16), false},
		{"fully before", at(10), at(14), at(6), at(8), false},
		{"fully after", at(10), at(14), at(16), at(18), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overlaps(tt.start, tt.end, tt.otherStart, tt.otherEnd))
		})
	}
}

func TestConflictDetector_ScopedToRequestedUsers(t *testing.T) {
	repo := newFakeRepo()
	detector := NewConflictDetector(repo)

	alice := uuid.New()
	bob := uuid.New()
	repo.userNames[alice] = "Alice"
	repo.userNames[bob] = "Bob"

	// Bob has an overlapping booking, Alice does not. Only Alice is
	// being assigned, so Bob's booking must not surface.
	busy := &entity.BookableEvent{Title: "Bob's shift", StartTime: at(10), EndTime: at(14)}
	repo.addEvent(busy, bob)

	conflicts, err := detector.CheckConflicts(context.Background(), []uuid.UUID{alice}, at(11), at(13), ExcludeNone())
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Assigning Bob to the same interval does surface it.
	conflicts, err = detector.CheckConflicts(context.Background(), []uuid.UUID{bob}, at(11), at(13), ExcludeNone())
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, bob, conflicts[0].UserID)
	assert.Equal(t, "Bob", conflicts[0].UserName)
	assert.Equal(t, busy.ID, conflicts[0].Event.ID)
	assert.Equal(t, "Bob's shift", conflicts[0].Event.Title)
}

func TestConflictDetector_ExcludeRules(t *testing.T) {
	repo := newFakeRepo()
	detector := NewConflictDetector(repo)

	user := uuid.New()
	busy := &entity.BookableEvent{Title: "Existing", StartTime: at(10), EndTime: at(14)}
	repo.addEvent(busy, user)

	// ExcludeAll bypasses the check entirely; the repository is never hit.
	repo.failOn["GetCandidateAssignments"] = assert.AnError
	conflicts, err := detector.CheckConflicts(context.Background(), []uuid.UUID{user}, at(10), at(14), ExcludeAll())
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	delete(repo.failOn, "GetCandidateAssignments")

	// Excluding the event itself: an update must not conflict with the
	// event's own current booking.
	conflicts, err = detector.CheckConflicts(context.Background(), []uuid.UUID{user}, at(10), at(14), ExcludeEvent(busy.ID))
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	conflicts, err = detector.CheckConflicts(context.Background(), []uuid.UUID{user}, at(10), at(14), ExcludeNone())
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
}

func TestConflictDetector_EmptyUserList(t *testing.T) {
	repo := newFakeRepo()
	repo.failOn["GetCandidateAssignments"] = assert.AnError
	detector := NewConflictDetector(repo)

	conflicts, err := detector.CheckConflicts(context.Background(), nil, at(10), at(14), ExcludeNone())
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestConflictDetector_AllDayNormalization(t *testing.T) {
	repo := newFakeRepo()
	detector := NewConflictDetector(repo)

	user := uuid.New()
	// All-day event whose stored times are mid-day; its effective
	// interval expands to [startOfDay, dayAfterEnd).
	busy := &entity.BookableEvent{
		Title:     "All day",
		StartTime: time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC),
		AllDay:    true,
	}
	repo.addEvent(busy, user)

	// An evening booking on the same day overlaps the expanded interval.
	conflicts, err := detector.CheckConflicts(context.Background(), []uuid.UUID{user}, at(20), at(22), ExcludeNone())
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)

	// Midnight of the next day touches the boundary only.
	nextDay := time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)
	conflicts, err = detector.CheckConflicts(context.Background(), []uuid.UUID{user}, nextDay, nextDay.Add(2*time.Hour), ExcludeNone())
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
