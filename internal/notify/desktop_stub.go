//go:build !linux

package notify

import (
	"context"
	"time"

	"github.com/genricoloni/mirrorctl/internal/store"
	"go.uber.org/zap"
)

// DesktopNotifier stub for non-Linux platforms
type DesktopNotifier struct {
	logger *zap.Logger
}

// NewDesktopNotifier creates a notifier that does nothing on non-Linux platforms
func NewDesktopNotifier(logger *zap.Logger, st *store.Store, ttl time.Duration) *DesktopNotifier {
	return &DesktopNotifier{logger: logger}
}

// Start logs that desktop notifications are unavailable
func (n *DesktopNotifier) Start(ctx context.Context) error {
	n.logger.Info("Desktop notifications are only supported on Linux systems")
	return nil
}

// Stop is a no-op on non-Linux platforms
func (n *DesktopNotifier) Stop(ctx context.Context) error {
	return nil
}
