// Package permissions maintains the background-refreshed role permission cache.
package permissions

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/repository"
)

var refreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "permission_cache_refresh_total",
		Help: "Permission cache refresh attempts by outcome.",
	},
	[]string{"outcome"},
)

// snapshot maps role id to the set of permission codes that role grants.
// A snapshot is immutable once published; refreshes build a new one and
// swap the pointer, so concurrent readers never observe a partial map.
type snapshot map[int64]map[string]struct{}

// Cache is an in-memory role-to-permission-codes lookup, rebuilt from the
// database once at Start and on a fixed interval afterwards.
//
// Refresh failures keep the previous snapshot (stale answers beat none).
// Until the first successful refresh the cache is empty and CheckAccess
// returns false for everyone.
type Cache struct {
	roles    repository.RoleRepository
	logger   *zap.Logger
	interval time.Duration

	current atomic.Pointer[snapshot]
	cron    *cron.Cron
}

// NewCache creates the cache. Call Start to populate it and begin the
// refresh schedule, or drive Refresh directly in tests.
func NewCache(roles repository.RoleRepository, interval time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		roles:    roles,
		logger:   logger,
		interval: interval,
	}
}

// Start performs the initial refresh and schedules periodic ones. The
// initial refresh failing is not fatal; the cache stays empty until the
// schedule succeeds once.
func (c *Cache) Start(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.Error("initial permission cache refresh failed", zap.Error(err))
	}

	c.cron = cron.New()
	_, err := c.cron.AddFunc(fmt.Sprintf("@every %s", c.interval), func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), c.interval)
		defer cancel()
		if err := c.Refresh(refreshCtx); err != nil {
			c.logger.Error("permission cache refresh failed, keeping previous snapshot", zap.Error(err))
		}
	})
	if err != nil {
		c.logger.Error("failed to schedule permission cache refresh", zap.Error(err))
		return
	}
	c.cron.Start()
}

// Stop halts the refresh schedule. The last snapshot remains readable.
func (c *Cache) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}

// Refresh rebuilds the snapshot from storage and publishes it atomically.
// On error the previously published snapshot is left in place.
func (c *Cache) Refresh(ctx context.Context) error {
	rows, err := c.roles.RolePermissionRows(ctx)
	if err != nil {
		refreshTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to refresh permission cache: %w", err)
	}

	next := make(snapshot)
	for _, row := range rows {
		codes, ok := next[row.RoleID]
		if !ok {
			codes = make(map[string]struct{})
			next[row.RoleID] = codes
		}
		codes[row.PermissionCode] = struct{}{}
	}

	c.current.Store(&next)
	refreshTotal.WithLabelValues("success").Inc()
	c.logger.Debug("permission cache refreshed", zap.Int("roles", len(next)))
	return nil
}

// CheckAccess reports whether the given role grants the permission code
// according to the current snapshot. Pure in-memory lookup, never blocks.
func (c *Cache) CheckAccess(roleID int64, permissionCode string) bool {
	snap := c.current.Load()
	if snap == nil {
		return false
	}
	codes, ok := (*snap)[roleID]
	if !ok {
		return false
	}
	_, ok = codes[permissionCode]
	return ok
}
