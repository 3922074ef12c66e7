// Package events publishes domain events for other services to consume.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	PostCreated    = "post.created"
	PostUpdated    = "post.updated"
	PostDeleted    = "post.deleted"
	CommentCreated = "comment.created"
	FollowCreated  = "follow.created"
	FollowDeleted  = "follow.deleted"
)

// PostEvent is the payload of the post.* subjects.
type PostEvent struct {
	PostID   uint      `json:"post_id"`
	AuthorID uint      `json:"author_id"`
	GroupID  *uint     `json:"group_id,omitempty"`
	At       time.Time `json:"at"`
}

// CommentEvent is the payload of comment.created.
type CommentEvent struct {
	CommentID uint      `json:"comment_id"`
	PostID    uint      `json:"post_id"`
	AuthorID  uint      `json:"author_id"`
	At        time.Time `json:"at"`
}

// FollowEvent is the payload of the follow.* subjects.
type FollowEvent struct {
	UserID         uint      `json:"user_id"`
	AuthorUsername string    `json:"author_username"`
	At             time.Time `json:"at"`
}

// Publisher sends events fire-and-forget: errors are logged, never returned.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) {}

// NatsPublisher publishes JSON-encoded events on a NATS connection.
type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(conn *nats.Conn) *NatsPublisher {
	return &NatsPublisher{conn: conn}
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, payload any) {
	if p.conn == nil || !p.conn.IsConnected() {
		slog.Warn("nats connection is not established, dropping event", "subject", subject)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode event", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		slog.Warn("failed to publish event", "subject", subject, "error", err)
		return
	}
	slog.Debug("event published", "subject", subject)
}
