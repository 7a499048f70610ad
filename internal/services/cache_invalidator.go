package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/cache"
)

// CacheInvalidator drops cached statistics once a session ends.
type CacheInvalidator struct {
	cache  cache.CacheService
	logger *slog.Logger
}

func NewCacheInvalidator(cacheService cache.CacheService, logger *slog.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cacheService, logger: logger}
}

func (c *CacheInvalidator) Notify(ctx context.Context, ev assessment.Event) {
	if !ev.Type.Terminal() {
		return
	}
	if err := c.cache.Delete(context.WithoutCancel(ctx), cache.UserStatsKey(ev.UserID), cache.DashboardStatsKey()); err != nil {
		c.logger.Warn("Failed to invalidate stats cache", "user_id", ev.UserID, "error", err)
	}
}
