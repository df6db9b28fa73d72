package broker

import (
	"context"
	"encoding/json"

	"github.com/hynexus/hynexus-api/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ServerEventsChannel is the Redis pub/sub channel for listing events.
const ServerEventsChannel = "servers:events"

// RedisBroker publishes and subscribes over Redis pub/sub. The client is shared
// and owned by the caller.
type RedisBroker struct {
	client  *redis.Client
	channel string
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client, channel: ServerEventsChannel}
}

func (r *RedisBroker) Publish(ctx context.Context, event ServerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, r.channel, data).Err()
}

func (r *RedisBroker) Subscribe(ctx context.Context) (<-chan ServerEvent, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)

	// wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	events := make(chan ServerEvent, 100)

	go func() {
		defer close(events)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var event ServerEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Log.Warn("Dropping malformed server event",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
