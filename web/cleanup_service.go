package web

import (
	"context"
	"time"

	"fitmate/agent"

	"go.uber.org/zap"
)

// CleanupService drops conversations nobody has touched for a while
type CleanupService struct {
	agent  *agent.Agent
	logger *zap.Logger
}

// NewCleanupService creates a new cleanup service instance
func NewCleanupService(agent *agent.Agent, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		agent:  agent,
		logger: logger,
	}
}

// CleanupIdleConversations removes conversations idle for longer than maxAge
// and returns how many were removed
func (cs *CleanupService) CleanupIdleConversations(maxAge time.Duration) int {
	cs.logger.Debug("Starting idle conversation cleanup", zap.Duration("max_age", maxAge))

	removed := cs.agent.Sweep(maxAge)
	if removed > 0 {
		cs.logger.Info("Idle conversation cleanup completed", zap.Int("conversations_removed", removed))
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled
func (cs *CleanupService) Run(ctx context.Context, interval, maxAge time.Duration) {
	cs.logger.Info("Cleanup service started",
		zap.Duration("interval", interval),
		zap.Duration("max_age", maxAge))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cs.logger.Info("Cleanup service stopped")
			return
		case <-ticker.C:
			cs.CleanupIdleConversations(maxAge)
		}
	}
}
