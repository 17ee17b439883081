package client

import (
	"context"
	"testing"
	"time"

	"shiftboard-api/modules/event/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	method   string
	override bool
	ack      bool
}

// scriptedAPI returns queued MutationResults in order and records every
// call with its override and acknowledge flags.
type scriptedAPI struct {
	calls   []apiCall
	results []*dto.MutationResult
	err     error
	event   *dto.EventResponse
}

func (a *scriptedAPI) next() *dto.MutationResult {
	r := a.results[0]
	a.results = a.results[1:]
	return r
}

func (a *scriptedAPI) GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventResponse, error) {
	a.calls = append(a.calls, apiCall{method: "get"})
	return a.event, a.err
}

func (a *scriptedAPI) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.MutationResult, error) {
	a.calls = append(a.calls, apiCall{method: "create", override: req.DisableConflictCheck, ack: req.AcknowledgeWarnings})
	if a.err != nil {
		return nil, a.err
	}
	return a.next(), nil
}

func (a *scriptedAPI) UpdateEvent(ctx context.Context, id uuid.UUID, patch *dto.EventPatch) (*dto.MutationResult, error) {
	a.calls = append(a.calls, apiCall{method: "update", override: patch.DisableConflictCheck, ack: patch.AcknowledgeWarnings})
	if a.err != nil {
		return nil, a.err
	}
	return a.next(), nil
}

func (a *scriptedAPI) ToggleAssignment(ctx context.Context, id uuid.UUID) (*dto.EventResponse, error) {
	a.calls = append(a.calls, apiCall{method: "toggle"})
	if a.err != nil {
		return nil, a.err
	}
	return a.event, nil
}

func decide(d Decision) ConflictResolver {
	return ResolverFunc(func(ctx context.Context, conflicts []dto.ConflictDTO) (Decision, error) {
		return d, nil
	})
}

func decideWarnings(d Decision) WarningResolver {
	return WarningResolverFunc(func(ctx context.Context, warnings []string) (Decision, error) {
		return d, nil
	})
}

func sampleEvent() *dto.EventResponse {
	desc := "original"
	return &dto.EventResponse{
		ID:              uuid.New(),
		OrgID:           uuid.New(),
		Title:           "Shift",
		Description:     &desc,
		StartTime:       time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC),
		Capacity:        2,
		Status:          "open",
		AssignedUserIDs: []uuid.UUID{uuid.New()},
	}
}

func sampleConflict() dto.ConflictDTO {
	return dto.ConflictDTO{
		UserID:   uuid.New(),
		UserName: "Helper",
		Event: dto.EventSummaryDTO{
			ID:    uuid.New(),
			Title: "Existing booking",
		},
	}
}

func TestSyncClient_Update_CommitsServerState(t *testing.T) {
	cached := sampleEvent()
	updated := *cached
	updated.Title = "Renamed"

	api := &scriptedAPI{results: []*dto.MutationResult{{Event: &updated}}}
	c := NewSyncClient(api, decide(DecisionAbort), nil, nil)
	c.Prime(cached)

	title := "Renamed"
	outcome, err := c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title},
		func(e *dto.EventResponse) { e.Title = title })
	require.NoError(t, err)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, "Renamed", outcome.Event.Title)
	assert.Equal(t, "Renamed", c.Cached(cached.ID).Title)
}

func TestSyncClient_Update_ConflictRestoresExactSnapshot(t *testing.T) {
	cached := sampleEvent()
	api := &scriptedAPI{results: []*dto.MutationResult{{Conflicts: []dto.ConflictDTO{sampleConflict()}}}}
	c := NewSyncClient(api, decide(DecisionAbort), nil, nil)
	c.Prime(cached)

	title := "Speculative"
	outcome, err := c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title},
		func(e *dto.EventResponse) {
			e.Title = title
			e.AssignedUserIDs = append(e.AssignedUserIDs, uuid.New())
		})
	require.NoError(t, err)
	assert.True(t, outcome.Aborted)

	// The cache holds the exact pre-mutation state, not a merge.
	restored := c.Cached(cached.ID)
	assert.Equal(t, cached.Title, restored.Title)
	assert.Equal(t, cached.AssignedUserIDs, restored.AssignedUserIDs)
	assert.Equal(t, *cached.Description, *restored.Description)
}

func TestSyncClient_Update_OverrideRetriesWithFlag(t *testing.T) {
	cached := sampleEvent()
	committed := *cached
	committed.Title = "Forced through"

	api := &scriptedAPI{results: []*dto.MutationResult{
		{Conflicts: []dto.ConflictDTO{sampleConflict()}},
		{Event: &committed},
	}}
	c := NewSyncClient(api, decide(DecisionOverride), nil, nil)
	c.Prime(cached)

	title := "Forced through"
	outcome, err := c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, "Forced through", outcome.Event.Title)

	require.Len(t, api.calls, 2)
	assert.False(t, api.calls[0].override)
	assert.True(t, api.calls[1].override)
}

func TestSyncClient_Update_AbortAndNavigate(t *testing.T) {
	cached := sampleEvent()
	conflict := sampleConflict()
	api := &scriptedAPI{results: []*dto.MutationResult{{Conflicts: []dto.ConflictDTO{conflict}}}}
	c := NewSyncClient(api, decide(DecisionAbortAndNavigate), nil, nil)
	c.Prime(cached)

	title := "Doomed"
	outcome, err := c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title}, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Aborted)
	require.NotNil(t, outcome.NavigateTo)
	assert.Equal(t, conflict.Event.ID, *outcome.NavigateTo)
	// Only the initial request was sent.
	assert.Len(t, api.calls, 1)
}

func TestSyncClient_Update_TransportErrorRollsBack(t *testing.T) {
	cached := sampleEvent()
	api := &scriptedAPI{err: assert.AnError}
	c := NewSyncClient(api, decide(DecisionAbort), nil, nil)
	c.Prime(cached)

	title := "Never lands"
	_, err := c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title},
		func(e *dto.EventResponse) { e.Title = title })
	require.Error(t, err)
	assert.Equal(t, cached.Title, c.Cached(cached.ID).Title)
}

func TestSyncClient_Update_BlockedRequirementAborts(t *testing.T) {
	cached := sampleEvent()
	api := &scriptedAPI{results: []*dto.MutationResult{{Blocking: []string{"rule unmet"}}}}
	c := NewSyncClient(api, decide(DecisionOverride), nil, nil)
	c.Prime(cached)

	title := "Blocked"
	outcome, err := c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title},
		func(e *dto.EventResponse) { e.Title = title })
	require.NoError(t, err)
	assert.True(t, outcome.Aborted)
	assert.Equal(t, []string{"rule unmet"}, outcome.Blocking)
	// Requirement blocks never reach the conflict dialog.
	assert.Len(t, api.calls, 1)
	assert.Equal(t, cached.Title, c.Cached(cached.ID).Title)
}

func TestSyncClient_Update_WarningConfirmedRetriesWithAcknowledgement(t *testing.T) {
	cached := sampleEvent()
	committed := *cached
	committed.Title = "Confirmed anyway"

	api := &scriptedAPI{results: []*dto.MutationResult{
		{Warning: []string{"only 0 of 1 helpers have first aid"}},
		{Event: &committed},
	}}
	c := NewSyncClient(api, decide(DecisionAbort), decideWarnings(DecisionOverride), nil)
	c.Prime(cached)

	title := "Confirmed anyway"
	outcome, err := c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, "Confirmed anyway", outcome.Event.Title)

	require.Len(t, api.calls, 2)
	assert.False(t, api.calls[0].ack)
	assert.True(t, api.calls[1].ack)
	// Acknowledging warnings never disables the conflict check.
	assert.False(t, api.calls[1].override)
	assert.Equal(t, "Confirmed anyway", c.Cached(cached.ID).Title)
}

func TestSyncClient_Update_WarningDeclinedRestoresSnapshot(t *testing.T) {
	cached := sampleEvent()
	api := &scriptedAPI{results: []*dto.MutationResult{
		{Warning: []string{"only 0 of 1 helpers have first aid"}},
	}}
	c := NewSyncClient(api, decide(DecisionOverride), decideWarnings(DecisionAbort), nil)
	c.Prime(cached)

	title := "Speculative"
	outcome, err := c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title},
		func(e *dto.EventResponse) { e.Title = title })
	require.NoError(t, err)
	assert.True(t, outcome.Aborted)
	assert.Equal(t, []string{"only 0 of 1 helpers have first aid"}, outcome.Warning)
	// Only the initial request was sent and the cache was rolled back.
	assert.Len(t, api.calls, 1)
	assert.Equal(t, cached.Title, c.Cached(cached.ID).Title)
}

func TestSyncClient_Create_WarningConfirmedRetriesWithAcknowledgement(t *testing.T) {
	created := sampleEvent()
	api := &scriptedAPI{results: []*dto.MutationResult{
		{Warning: []string{"only 1 of 2 helpers have first aid"}},
		{Event: created},
	}}
	c := NewSyncClient(api, decide(DecisionAbort), decideWarnings(DecisionOverride), nil)

	outcome, err := c.Create(context.Background(), &dto.CreateEventRequest{Title: "New shift"})
	require.NoError(t, err)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, created.ID, outcome.Event.ID)

	require.Len(t, api.calls, 2)
	assert.True(t, api.calls[1].ack)
}

func TestSyncClient_InvalidationFiresOnSettlement(t *testing.T) {
	cached := sampleEvent()
	var invalidated []uuid.UUID
	api := &scriptedAPI{results: []*dto.MutationResult{
		{Event: cached},
		{Conflicts: []dto.ConflictDTO{sampleConflict()}},
	}}
	c := NewSyncClient(api, decide(DecisionAbort), nil, func(id uuid.UUID) {
		invalidated = append(invalidated, id)
	})
	c.Prime(cached)

	title := "First"
	_, err := c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title}, nil)
	require.NoError(t, err)
	_, err = c.Update(context.Background(), cached.ID, &dto.EventPatch{Kind: dto.PatchKindFull, Title: &title}, nil)
	require.NoError(t, err)

	// Success and conflict both invalidate.
	assert.Equal(t, []uuid.UUID{cached.ID, cached.ID}, invalidated)
}

func TestSyncClient_Toggle_RollsBackOnHardError(t *testing.T) {
	cached := sampleEvent()
	api := &scriptedAPI{err: assert.AnError}
	c := NewSyncClient(api, decide(DecisionAbort), nil, nil)
	c.Prime(cached)

	joiner := uuid.New()
	_, err := c.Toggle(context.Background(), cached.ID, func(e *dto.EventResponse) {
		e.AssignedUserIDs = append(e.AssignedUserIDs, joiner)
	})
	require.Error(t, err)
	assert.Equal(t, cached.AssignedUserIDs, c.Cached(cached.ID).AssignedUserIDs)
}

func TestSyncClient_Create_OverrideFlow(t *testing.T) {
	created := sampleEvent()
	api := &scriptedAPI{results: []*dto.MutationResult{
		{Conflicts: []dto.ConflictDTO{sampleConflict()}},
		{Event: created},
	}}
	c := NewSyncClient(api, decide(DecisionOverride), nil, nil)

	outcome, err := c.Create(context.Background(), &dto.CreateEventRequest{Title: "New shift"})
	require.NoError(t, err)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, created.ID, outcome.Event.ID)

	require.Len(t, api.calls, 2)
	assert.True(t, api.calls[1].override)
	// The committed event is now cached.
	assert.NotNil(t, c.Cached(created.ID))
}

func TestSyncClient_SnapshotIsolation(t *testing.T) {
	cached := sampleEvent()
	c := NewSyncClient(&scriptedAPI{}, decide(DecisionAbort), nil, nil)
	c.Prime(cached)

	// Mutating the caller's copy after priming must not leak in.
	cached.Title = "Mutated outside"
	assert.Equal(t, "Shift", c.Cached(cached.ID).Title)

	// Mutating a returned copy must not leak either.
	copy := c.Cached(cached.ID)
	copy.AssignedUserIDs[0] = uuid.Nil
	assert.NotEqual(t, uuid.Nil, c.Cached(cached.ID).AssignedUserIDs[0])
}
