package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cleaner runs the periodic housekeeping pass of the auth service
type Cleaner struct {
	auth     AuthService
	interval time.Duration
	logger   *zap.Logger
}

// NewCleaner creates a cleaner running at the given interval
func NewCleaner(auth AuthService, interval time.Duration, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		auth:     auth,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until the context is cancelled, performing one pass per tick
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.auth.Cleanup(ctx); err != nil {
				c.logger.Error("housekeeping pass failed", zap.Error(err))
			}
		}
	}
}
