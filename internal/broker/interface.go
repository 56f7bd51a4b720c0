package broker

import (
	"context"
	"time"
)

// EventType names a post lifecycle change.
type EventType string

const (
	EventPostCreated EventType = "post.created"
	EventPostUpdated EventType = "post.updated"
	EventPostDeleted EventType = "post.deleted"
	EventPostReacted EventType = "post.reacted"
)

// PostEvent is published after a post write has been persisted.
type PostEvent struct {
	Type      EventType `json:"type"`
	PostID    string    `json:"post_id"`
	Slug      string    `json:"slug"`
	ActorID   string    `json:"actor_id"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher fans post events out to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, event PostEvent) error
	Close() error
}

// EventSubscriber streams post events published by any instance until
// ctx is cancelled.
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan PostEvent, error)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PostEvent) error { return nil }
func (NopPublisher) Close() error                             { return nil }
