package broker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// PostEventsChannel is the pub/sub channel post events are published on.
const PostEventsChannel = "blog:posts"

// RedisEventBroker implements EventPublisher and EventSubscriber using
// Redis pub/sub
type RedisEventBroker struct {
	client *redis.Client
}

func NewRedisEventBroker(client *redis.Client) *RedisEventBroker {
	return &RedisEventBroker{client: client}
}

// NewRedisClient parses redisURL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (r *RedisEventBroker) Publish(ctx context.Context, event PostEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, PostEventsChannel, data).Err()
}

// Subscribe confirms the subscription before returning, so no event
// published after it returns is missed. Undecodable payloads are skipped.
func (r *RedisEventBroker) Subscribe(ctx context.Context) (<-chan PostEvent, error) {
	pubsub := r.client.Subscribe(ctx, PostEventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	events := make(chan PostEvent, 100)

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
				var event PostEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
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

// Close is a no-op: the client is shared with the rate limiter and is
// closed by its owner.
func (r *RedisEventBroker) Close() error {
	return nil
}
