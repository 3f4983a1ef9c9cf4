package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

// DefaultStream is the redis stream application events are appended to.
const DefaultStream = "loan-applications"

var _ ports.EventPublisher = (*RedisPublisher)(nil)

// RedisPublisher appends events to a redis stream.
type RedisPublisher struct {
	client redis.Cmdable
	stream string
}

// NewRedisPublisher returns a publisher writing to stream.
func NewRedisPublisher(client redis.Cmdable, stream string) (*RedisPublisher, error) {
	if client == nil {
		return nil, errors.New("redis publisher requires a client")
	}
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{client: client, stream: stream}, nil
}

// Publish appends each event as one stream entry.
func (p *RedisPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	for _, e := range events {
		raw, err := Encode(e)
		if err != nil {
			return err
		}
		args := &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]any{
				"type":  e.EventName(),
				"event": raw,
			},
		}
		if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
	}
	return nil
}
