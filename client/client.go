// Package client implements the optimistic cache layer used by UI
// frontends: mutations are applied speculatively against a local event
// cache, then reconciled with the server's response. Conflicts and
// requirement warnings roll the cache back to an exact pre-mutation
// snapshot and hand the decision to a resolver, which may retry the
// mutation with the conflict check disabled or the warnings
// acknowledged.
package client

import (
	"context"
	"sync"

	"shiftboard-api/core/logger"
	"shiftboard-api/modules/event/dto"

	"github.com/google/uuid"
)

// EventAPI is the server surface the sync client drives. It is
// implemented by the HTTP client in transport.go; tests substitute an
// in-process fake.
type EventAPI interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventResponse, error)
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.MutationResult, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, patch *dto.EventPatch) (*dto.MutationResult, error)
	ToggleAssignment(ctx context.Context, id uuid.UUID) (*dto.EventResponse, error)
}

// Decision is the user's answer to a conflict dialog.
type Decision int

const (
	// DecisionAbort abandons the mutation.
	DecisionAbort Decision = iota
	// DecisionOverride retries the mutation with conflict checking
	// disabled on the server.
	DecisionOverride
	// DecisionAbortAndNavigate abandons the mutation and asks the UI to
	// open the first conflicting event.
	DecisionAbortAndNavigate
)

// ConflictResolver presents the conflict dialog. Resolve blocks until
// the user answers.
type ConflictResolver interface {
	Resolve(ctx context.Context, conflicts []dto.ConflictDTO) (Decision, error)
}

// ResolverFunc adapts a function to the ConflictResolver interface.
type ResolverFunc func(ctx context.Context, conflicts []dto.ConflictDTO) (Decision, error)

func (f ResolverFunc) Resolve(ctx context.Context, conflicts []dto.ConflictDTO) (Decision, error) {
	return f(ctx, conflicts)
}

// WarningResolver presents the requirement-warning dialog. The server
// withholds a warned mutation until it is re-issued with the warnings
// acknowledged; ResolveWarnings blocks until the user answers. A nil
// resolver aborts warned mutations.
type WarningResolver interface {
	ResolveWarnings(ctx context.Context, warnings []string) (Decision, error)
}

// WarningResolverFunc adapts a function to the WarningResolver interface.
type WarningResolverFunc func(ctx context.Context, warnings []string) (Decision, error)

func (f WarningResolverFunc) ResolveWarnings(ctx context.Context, warnings []string) (Decision, error) {
	return f(ctx, warnings)
}

// Outcome is the settled result of an optimistic mutation.
type Outcome struct {
	// Event is the server's authoritative state after a successful
	// mutation; nil when the mutation was aborted or blocked.
	Event *dto.EventResponse
	// Aborted is true when the user declined to override a conflict.
	Aborted bool
	// NavigateTo carries the conflicting event the UI should open when
	// the user chose to abort and inspect it.
	NavigateTo *uuid.UUID
	// Blocking and Warning are requirement messages passed through for
	// the UI to render.
	Blocking []string
	Warning  []string
}

// SyncClient caches EventResponse projections per event ID and applies
// mutations optimistically. All cache access is serialized; the
// speculative window spans the server round-trip, so concurrent
// unrelated mutations on other keys are unaffected.
type SyncClient struct {
	api        EventAPI
	resolver   ConflictResolver
	warnings   WarningResolver
	invalidate func(eventID uuid.UUID)

	mu    sync.Mutex
	cache map[uuid.UUID]*dto.EventResponse
}

// NewSyncClient builds a SyncClient. warnings may be nil, in which case
// warned mutations are aborted. invalidate is called after every settled
// mutation (success or failure) so the UI can re-fetch; it may be nil.
func NewSyncClient(api EventAPI, resolver ConflictResolver, warnings WarningResolver, invalidate func(eventID uuid.UUID)) *SyncClient {
	return &SyncClient{
		api:        api,
		resolver:   resolver,
		warnings:   warnings,
		invalidate: invalidate,
		cache:      make(map[uuid.UUID]*dto.EventResponse),
	}
}

// Prime seeds the cache with a fetched event projection.
func (c *SyncClient) Prime(event *dto.EventResponse) {
	if event == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[event.ID] = cloneEvent(event)
}

// Cached returns a copy of the cached projection, or nil when the event
// is not cached.
func (c *SyncClient) Cached(id uuid.UUID) *dto.EventResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneEvent(c.cache[id])
}

// Fetch loads an event from the server and primes the cache.
func (c *SyncClient) Fetch(ctx context.Context, id uuid.UUID) (*dto.EventResponse, error) {
	event, err := c.api.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Prime(event)
	return event, nil
}

// Update applies patch optimistically: the cached entry is mutated by
// speculate (when non-nil) before the request is sent, and restored to
// its exact pre-mutation snapshot on any error, conflict or withheld
// warning. Conflicts are routed through the conflict resolver and
// warnings through the warning resolver; a proceed answer re-issues the
// same patch with the conflict check disabled or the warnings
// acknowledged.
func (c *SyncClient) Update(ctx context.Context, id uuid.UUID, patch *dto.EventPatch, speculate func(*dto.EventResponse)) (*Outcome, error) {
	snap := c.snapshot(id)
	if speculate != nil {
		c.mutate(id, speculate)
	}
	defer c.settle(id)

	result, err := c.api.UpdateEvent(ctx, id, patch)
	if err != nil {
		c.restore(id, snap)
		return nil, err
	}

	if result.HasConflicts() {
		c.restore(id, snap)
		return c.resolveConflicts(ctx, id, patch, result.Conflicts)
	}
	if len(result.Blocking) > 0 {
		c.restore(id, snap)
		return &Outcome{Aborted: true, Blocking: result.Blocking, Warning: result.Warning}, nil
	}
	if result.NeedsAcknowledgement() {
		c.restore(id, snap)
		return c.resolveUpdateWarnings(ctx, id, patch, result.Warning)
	}

	c.commit(result.Event)
	return &Outcome{Event: result.Event, Warning: result.Warning}, nil
}

// Create sends a create request. There is no cache entry to speculate
// on yet, so conflicts only drive the dialog/override flow.
func (c *SyncClient) Create(ctx context.Context, req *dto.CreateEventRequest) (*Outcome, error) {
	result, err := c.api.CreateEvent(ctx, req)
	if err != nil {
		return nil, err
	}

	if result.HasConflicts() {
		decision, derr := c.resolver.Resolve(ctx, result.Conflicts)
		if derr != nil {
			return nil, derr
		}
		switch decision {
		case DecisionOverride:
			retry := *req
			retry.DisableConflictCheck = true
			retryResult, rerr := c.api.CreateEvent(ctx, &retry)
			if rerr != nil {
				return nil, rerr
			}
			if len(retryResult.Blocking) > 0 {
				return &Outcome{Aborted: true, Blocking: retryResult.Blocking, Warning: retryResult.Warning}, nil
			}
			if retryResult.NeedsAcknowledgement() {
				return c.resolveCreateWarnings(ctx, &retry, retryResult.Warning)
			}
			c.commit(retryResult.Event)
			return &Outcome{Event: retryResult.Event, Warning: retryResult.Warning}, nil
		case DecisionAbortAndNavigate:
			target := result.Conflicts[0].Event.ID
			return &Outcome{Aborted: true, NavigateTo: &target}, nil
		default:
			return &Outcome{Aborted: true}, nil
		}
	}
	if len(result.Blocking) > 0 {
		return &Outcome{Aborted: true, Blocking: result.Blocking, Warning: result.Warning}, nil
	}
	if result.NeedsAcknowledgement() {
		return c.resolveCreateWarnings(ctx, req, result.Warning)
	}

	c.commit(result.Event)
	return &Outcome{Event: result.Event, Warning: result.Warning}, nil
}

// Toggle joins or leaves an event for the current user. The server
// rejects a conflicting join outright, so there is no dialog here: the
// cache entry is restored and the error surfaces to the caller.
func (c *SyncClient) Toggle(ctx context.Context, id uuid.UUID, speculate func(*dto.EventResponse)) (*dto.EventResponse, error) {
	snap := c.snapshot(id)
	if speculate != nil {
		c.mutate(id, speculate)
	}
	defer c.settle(id)

	event, err := c.api.ToggleAssignment(ctx, id)
	if err != nil {
		c.restore(id, snap)
		return nil, err
	}
	c.commit(event)
	return event, nil
}

func (c *SyncClient) resolveConflicts(ctx context.Context, id uuid.UUID, patch *dto.EventPatch, conflicts []dto.ConflictDTO) (*Outcome, error) {
	decision, err := c.resolver.Resolve(ctx, conflicts)
	if err != nil {
		return nil, err
	}

	switch decision {
	case DecisionOverride:
		retry := *patch
		retry.DisableConflictCheck = true
		result, rerr := c.api.UpdateEvent(ctx, id, &retry)
		if rerr != nil {
			return nil, rerr
		}
		if len(result.Blocking) > 0 {
			return &Outcome{Aborted: true, Blocking: result.Blocking, Warning: result.Warning}, nil
		}
		if result.NeedsAcknowledgement() {
			return c.resolveUpdateWarnings(ctx, id, &retry, result.Warning)
		}
		c.commit(result.Event)
		return &Outcome{Event: result.Event, Warning: result.Warning}, nil
	case DecisionAbortAndNavigate:
		target := conflicts[0].Event.ID
		return &Outcome{Aborted: true, NavigateTo: &target}, nil
	default:
		return &Outcome{Aborted: true}, nil
	}
}

// resolveUpdateWarnings routes a warning-only soft failure through the
// warning dialog; a proceed answer re-issues the patch with the
// warnings acknowledged.
func (c *SyncClient) resolveUpdateWarnings(ctx context.Context, id uuid.UUID, patch *dto.EventPatch, warnings []string) (*Outcome, error) {
	if c.warnings == nil {
		return &Outcome{Aborted: true, Warning: warnings}, nil
	}
	decision, err := c.warnings.ResolveWarnings(ctx, warnings)
	if err != nil {
		return nil, err
	}
	if decision != DecisionOverride {
		return &Outcome{Aborted: true, Warning: warnings}, nil
	}

	retry := *patch
	retry.AcknowledgeWarnings = true
	result, err := c.api.UpdateEvent(ctx, id, &retry)
	if err != nil {
		return nil, err
	}
	if len(result.Blocking) > 0 {
		return &Outcome{Aborted: true, Blocking: result.Blocking, Warning: result.Warning}, nil
	}
	c.commit(result.Event)
	return &Outcome{Event: result.Event, Warning: result.Warning}, nil
}

func (c *SyncClient) resolveCreateWarnings(ctx context.Context, req *dto.CreateEventRequest, warnings []string) (*Outcome, error) {
	if c.warnings == nil {
		return &Outcome{Aborted: true, Warning: warnings}, nil
	}
	decision, err := c.warnings.ResolveWarnings(ctx, warnings)
	if err != nil {
		return nil, err
	}
	if decision != DecisionOverride {
		return &Outcome{Aborted: true, Warning: warnings}, nil
	}

	retry := *req
	retry.AcknowledgeWarnings = true
	result, err := c.api.CreateEvent(ctx, &retry)
	if err != nil {
		return nil, err
	}
	if len(result.Blocking) > 0 {
		return &Outcome{Aborted: true, Blocking: result.Blocking, Warning: result.Warning}, nil
	}
	c.commit(result.Event)
	return &Outcome{Event: result.Event, Warning: result.Warning}, nil
}

// snapshot returns an immutable copy of the current cache entry, or nil
// when the event is not cached.
func (c *SyncClient) snapshot(id uuid.UUID) *dto.EventResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneEvent(c.cache[id])
}

func (c *SyncClient) mutate(id uuid.UUID, fn func(*dto.EventResponse)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.cache[id]; ok {
		fn(entry)
	}
}

// restore puts back the exact pre-mutation snapshot. A nil snapshot
// means the entry did not exist, so any speculative entry is dropped.
func (c *SyncClient) restore(id uuid.UUID, snap *dto.EventResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap == nil {
		delete(c.cache, id)
		return
	}
	c.cache[id] = cloneEvent(snap)
}

func (c *SyncClient) commit(event *dto.EventResponse) {
	if event == nil {
		return
	}
	c.mu.Lock()
	c.cache[event.ID] = cloneEvent(event)
	c.mu.Unlock()
}

func (c *SyncClient) settle(id uuid.UUID) {
	if c.invalidate == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("SyncClient:settle", "panic", r)
		}
	}()
	c.invalidate(id)
}

func cloneEvent(event *dto.EventResponse) *dto.EventResponse {
	if event == nil {
		return nil
	}
	out := *event
	if event.Description != nil {
		desc := *event.Description
		out.Description = &desc
	}
	out.AssignedUserIDs = append([]uuid.UUID(nil), event.AssignedUserIDs...)
	out.CategoryIDs = append([]uuid.UUID(nil), event.CategoryIDs...)
	out.FieldValues = append([]dto.FieldValueInput(nil), event.FieldValues...)
	out.Rules = append([]dto.RuleInput(nil), event.Rules...)
	return &out
}
