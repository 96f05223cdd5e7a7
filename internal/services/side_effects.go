package services

import (
	"context"

	"sosmed_backend/internal/cache"
	"sosmed_backend/internal/events"
	"sosmed_backend/internal/logger"
)

// Побочные эффекты после коммита. Ошибки кэша и брокера запрос не ломают.

func invalidateFeed(ctx context.Context, feed cache.FeedCache) {
	if err := feed.Invalidate(ctx); err != nil {
		logger.CtxWarn(ctx, "feed cache invalidation failed", "error", err)
	}
}

func publishEvent(ctx context.Context, publisher events.Publisher, subject string, event interface{}) {
	if err := publisher.Publish(ctx, subject, event); err != nil {
		logger.CtxWarn(ctx, "event publish failed", "subject", subject, "error", err)
	}
}
