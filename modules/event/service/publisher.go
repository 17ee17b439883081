package service

import (
	"context"
	"encoding/json"

	"shiftboard-api/core/cache"
	"shiftboard-api/core/constants"
	"shiftboard-api/core/logger"

	"github.com/google/uuid"
)

// Live-update event types consumed by other open clients for cache
// invalidation.
const (
	LiveUpdateEventCreated = "event:created"
	LiveUpdateEventUpdated = "event:updated"
	LiveUpdateEventDeleted = "event:deleted"
)

type liveUpdateEnvelope struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	OrgID   uuid.UUID `json:"org_id"`
}

// LiveUpdatePublisher fans out structured change events over redis
// pub/sub after successful mutations. Publish failures are logged, not
// surfaced: the mutation has already been persisted.
type LiveUpdatePublisher struct {
	cache cache.Cache
}

func NewLiveUpdatePublisher(c cache.Cache) *LiveUpdatePublisher {
	return &LiveUpdatePublisher{cache: c}
}

func (p *LiveUpdatePublisher) PublishEventChange(ctx context.Context, eventType string, orgID uuid.UUID, payload any) {
	if p == nil || p.cache == nil {
		return
	}

	body, err := json.Marshal(liveUpdateEnvelope{
		Type:    eventType,
		Payload: payload,
		OrgID:   orgID,
	})
	if err != nil {
		logger.Error("LiveUpdatePublisher:PublishEventChange:Marshal:Error:", err)
		return
	}

	channel := constants.LiveUpdateChannelPrefix + orgID.String()
	if err := p.cache.Publish(ctx, channel, body); err != nil {
		logger.Error("LiveUpdatePublisher:PublishEventChange:Publish:Error:", err)
	}
}
