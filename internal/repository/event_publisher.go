package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mramrohaleem/study/internal/models"
)

// EventPublisher fans planner events out over a Redis Pub/Sub channel.
type EventPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewEventPublisher constructs a publisher for channel.
func NewEventPublisher(client redis.UniversalClient, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Publish sends the JSON encoded event and returns the number of subscribers
// that received it.
func (p *EventPublisher) Publish(ctx context.Context, event models.Event) (int64, error) {
	if p.client == nil {
		return 0, fmt.Errorf("publish %s: redis client not configured", event.Type)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s to %s: %w", event.Type, p.channel, err)
	}
	return receivers, nil
}

// Channel returns the Pub/Sub channel name.
func (p *EventPublisher) Channel() string {
	return p.channel
}
