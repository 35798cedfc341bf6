package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claimlab/apiserver/types"
	"go.uber.org/zap"
)

const (
	attrEventType   = "event_type"
	attrContentType = "content_type"

	defaultContentType = "application/octet-stream"
)

// ClaimEvents publishes and consumes claim lifecycle events as JSON on a
// single channel.
type ClaimEvents struct {
	backend Backend
	channel string
	logger  *zap.Logger
}

func NewClaimEvents(backend Backend, channel string, logger *zap.Logger) *ClaimEvents {
	return &ClaimEvents{backend: backend, channel: channel, logger: logger}
}

// Channel returns the queue or topic events travel on.
func (e *ClaimEvents) Channel() string {
	return e.channel
}

// PublishClaimEvent encodes event and sends it to the events channel.
func (e *ClaimEvents) PublishClaimEvent(ctx context.Context, event types.ClaimEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Type, err)
	}
	attrs := map[string]string{
		attrEventType:   event.Type,
		attrContentType: "application/json",
	}
	if _, err := e.backend.Publish(ctx, e.channel, data, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Consume blocks delivering decoded events to fn until ctx is done.
// Messages that do not decode are logged and acknowledged.
func (e *ClaimEvents) Consume(ctx context.Context, fn func(ctx context.Context, event types.ClaimEvent) error) error {
	return e.backend.Subscribe(ctx, e.channel, func(ctx context.Context, msg Message) error {
		var event types.ClaimEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			e.logger.Warn("dropping malformed claim event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			return nil
		}
		return fn(ctx, event)
	})
}

// Close closes the underlying backend.
func (e *ClaimEvents) Close() error {
	return e.backend.Close()
}
