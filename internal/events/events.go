package events

import (
	"context"
	"errors"
	"time"
)

// Subjects
const (
	SubjectPostCreated    = "posts.created"
	SubjectPostDeleted    = "posts.deleted"
	SubjectPostLiked      = "posts.liked"
	SubjectPostUnliked    = "posts.unliked"
	SubjectCommentCreated = "comments.created"
	SubjectCommentDeleted = "comments.deleted"
)

// Publisher публикует доменные события после коммита транзакции.
// Ошибка публикации не должна ломать запрос: вызывающий код только логирует ее.
type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
	Close()
}

// Идентификаторы в событиях - публичные unique_id

type PostEvent struct {
	PostID     string    `json:"post_id"`
	UserID     string    `json:"user_id"`
	MediaCount int       `json:"media_count,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type LikeEvent struct {
	PostID     string    `json:"post_id"`
	UserID     string    `json:"user_id"`
	LikesCount int64     `json:"likes_count"`
	Timestamp  time.Time `json:"timestamp"`
}

type CommentEvent struct {
	CommentID string    `json:"comment_id"`
	PostID    string    `json:"post_id,omitempty"`
	UserID    string    `json:"user_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NoopPublisher - NATS не настроен
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	return nil
}

func (NoopPublisher) Close() {}

// FanoutPublisher отправляет событие всем публикаторам (NATS и WebSocket)
type FanoutPublisher struct {
	publishers []Publisher
}

func NewFanoutPublisher(publishers ...Publisher) *FanoutPublisher {
	return &FanoutPublisher{publishers: publishers}
}

func (f *FanoutPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, subject, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanoutPublisher) Close() {
	for _, p := range f.publishers {
		p.Close()
	}
}
