package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisEventBroker_PublishReachesSubscribers(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	sub := client.Subscribe(ctx, PostEventsChannel)
	defer sub.Close()
	_, err = sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	b := NewRedisEventBroker(client)
	event := PostEvent{
		Type:      EventPostReacted,
		PostID:    "p1",
		Slug:      "hello-world",
		ActorID:   "u1",
		Likes:     1,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, b.Publish(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got PostEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, event.Type, got.Type)
		assert.Equal(t, event.Slug, got.Slug)
		assert.Equal(t, 1, got.Likes)
		assert.True(t, event.Timestamp.Equal(got.Timestamp))
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p EventPublisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), PostEvent{Type: EventPostCreated}))
	assert.NoError(t, p.Close())
}

func TestRedisEventBroker_Subscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	b := NewRedisEventBroker(client)
	events, err := b.Subscribe(ctx)
	require.NoError(t, err)

	mr.Publish(PostEventsChannel, "not json")
	require.NoError(t, b.Publish(ctx, PostEvent{Type: EventPostDeleted, PostID: "p9", Slug: "gone"}))

	select {
	case got := <-events:
		assert.Equal(t, EventPostDeleted, got.Type)
		assert.Equal(t, "gone", got.Slug)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "channel was not closed after cancel")
}
