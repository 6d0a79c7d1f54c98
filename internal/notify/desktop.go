//go:build linux

package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"github.com/genricoloni/mirrorctl/internal/store"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	appName            = "mirrorctl"
	queueSize          = 16
	defaultCallTimeout = 5 * time.Second
)

// freedesktop notification urgency levels
const (
	urgencyLow      byte = 0
	urgencyNormal   byte = 1
	urgencyCritical byte = 2
)

// DesktopNotifier mirrors store notifications to the desktop notification daemon
type DesktopNotifier struct {
	logger    *zap.Logger
	store     *store.Store
	ttl       time.Duration
	newClient func() (DBusClient, error)

	// callTimeout bounds each Notify call so a stuck daemon cannot stall delivery
	callTimeout time.Duration

	mu              sync.Mutex
	running         bool
	cancel          context.CancelFunc
	unsubscribe     func()
	conn            DBusClient // Interface for testability
	queue           chan domain.Notification
	lastDropWarning time.Time      // Rate limiting for "queue full" warnings
	wg              sync.WaitGroup // Tracks the delivery goroutine
}

// NewDesktopNotifier creates a notifier; ttl is the expiry handed to the daemon
func NewDesktopNotifier(logger *zap.Logger, st *store.Store, ttl time.Duration) *DesktopNotifier {
	return &DesktopNotifier{
		logger: logger,
		store:  st,
		ttl:    ttl,
		newClient: func() (DBusClient, error) {
			return NewStdDBusClient()
		},
		queue:       make(chan domain.Notification, queueSize),
		callTimeout: defaultCallTimeout,
	}
}

// Start connects to the session bus and begins forwarding notifications.
// A missing bus disables the feature without failing startup.
func (n *DesktopNotifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return nil
	}

	conn, err := n.newClient()
	if err != nil {
		n.logger.Warn("Session bus unavailable, desktop notifications disabled", zap.Error(err))
		return nil
	}

	deliverCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	n.conn = conn
	n.cancel = cancel
	n.running = true

	n.wg.Add(1)
	go n.deliver(deliverCtx)

	n.unsubscribe = n.store.Subscribe(func(c store.Change) {
		if c.Added != nil {
			n.enqueue(*c.Added)
		}
	})

	n.logger.Info("Desktop notifications enabled")
	return nil
}

// Stop detaches from the store and closes the bus connection
func (n *DesktopNotifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	unsubscribe, cancel, conn := n.unsubscribe, n.cancel, n.conn
	n.mu.Unlock()

	unsubscribe()
	cancel()

	// Wait for the delivery goroutine before closing the connection it uses
	n.logger.Debug("Waiting for notification delivery to finish")
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		_ = conn.Close()
		return fmt.Errorf("desktop notifier stop: %w", ctx.Err())
	}

	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close D-Bus connection: %w", err)
	}

	n.logger.Info("Desktop notifier shutdown complete")
	return nil
}

// enqueue never blocks the store's listener
func (n *DesktopNotifier) enqueue(notification domain.Notification) {
	select {
	case n.queue <- notification:
	default:
		n.logQueueFullWarning()
	}
}

func (n *DesktopNotifier) deliver(ctx context.Context) {
	defer n.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case notification := <-n.queue:
			n.send(ctx, notification)
		}
	}
}

// send posts one notification; the call is abandoned after callTimeout
func (n *DesktopNotifier) send(ctx context.Context, notification domain.Notification) {
	icon, urgency := presentation(notification.Type)
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgency),
	}

	timeout := int32(-1)
	if n.ttl > 0 {
		timeout = int32(n.ttl / time.Millisecond)
	}

	callCtx, cancel := context.WithTimeout(ctx, n.callTimeout)
	defer cancel()

	id, err := n.conn.Notify(callCtx, appName, 0, icon, notification.Title, notification.Message, nil, hints, timeout)
	if err != nil {
		n.logger.Warn("Failed to post desktop notification",
			zap.String("title", notification.Title),
			zap.Error(err))
		return
	}

	n.logger.Debug("Desktop notification posted",
		zap.Uint32("id", id),
		zap.String("type", string(notification.Type)),
		zap.String("title", notification.Title))
}

// presentation maps a severity to a freedesktop icon name and urgency
func presentation(severity domain.Severity) (string, byte) {
	switch severity {
	case domain.SeverityError:
		return "dialog-error", urgencyCritical
	case domain.SeverityWarning:
		return "dialog-warning", urgencyNormal
	case domain.SeveritySuccess:
		return "emblem-ok-symbolic", urgencyLow
	default:
		return "dialog-information", urgencyLow
	}
}

// logQueueFullWarning logs a warning about the queue being full, but rate-limited
func (n *DesktopNotifier) logQueueFullWarning() {
	n.mu.Lock()
	defer n.mu.Unlock()

	// Rate limit to max one warning per 5 seconds
	const warningInterval = 5 * time.Second
	now := time.Now()

	if now.Sub(n.lastDropWarning) >= warningInterval {
		n.logger.Warn("Desktop notification queue full, dropping notification")
		n.lastDropWarning = now
	}
}
