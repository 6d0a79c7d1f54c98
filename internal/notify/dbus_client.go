package notify

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsService   = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"
)

// DBusClient defines the D-Bus operations the notifier needs.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/mirrorctl/internal/notify DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// Notify posts a desktop notification and returns the id assigned by the daemon
	// timeout is in milliseconds; -1 lets the daemon decide
	Notify(ctx context.Context, appName string, replacesID uint32, icon, summary, body string,
		actions []string, hints map[string]dbus.Variant, timeout int32) (uint32, error)
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient opens a private connection to the session bus
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// Notify calls org.freedesktop.Notifications.Notify
func (c *StdDBusClient) Notify(ctx context.Context, appName string, replacesID uint32, icon, summary, body string,
	actions []string, hints map[string]dbus.Variant, timeout int32) (uint32, error) {
	if actions == nil {
		actions = []string{}
	}
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	var id uint32
	obj := c.conn.Object(notificationsService, dbus.ObjectPath(notificationsPath))
	err := obj.CallWithContext(ctx, notificationsInterface+".Notify", 0,
		appName, replacesID, icon, summary, body, actions, hints, timeout).Store(&id)
	return id, err
}
