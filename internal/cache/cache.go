package cache

import "context"

// FeedCache - кэш страниц общей ленты для анонимных запросов без поиска.
// Любое изменение постов, лайков или комментариев сбрасывает весь кэш через Invalidate.
type FeedCache interface {
	GetPage(ctx context.Context, page, limit int, dst interface{}) (bool, error)
	SetPage(ctx context.Context, page, limit int, value interface{}) error
	Invalidate(ctx context.Context) error
}

// NoopFeedCache - кэш выключен (redis не настроен)
type NoopFeedCache struct{}

func NewNoopFeedCache() *NoopFeedCache {
	return &NoopFeedCache{}
}

func (NoopFeedCache) GetPage(ctx context.Context, page, limit int, dst interface{}) (bool, error) {
	return false, nil
}

func (NoopFeedCache) SetPage(ctx context.Context, page, limit int, value interface{}) error {
	return nil
}

func (NoopFeedCache) Invalidate(ctx context.Context) error {
	return nil
}
