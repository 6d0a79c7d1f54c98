package executor

import (
	"context"
	"time"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"go.uber.org/zap"
)

// Commander implements domain.Commander on top of adb and scrcpy.
// Every call runs under the configured timeout.
type Commander struct {
	logger   *zap.Logger
	adb      *ADBClient
	launcher *Launcher
	timeout  time.Duration
}

// NewCommander creates the command façade
func NewCommander(logger *zap.Logger, adb *ADBClient, launcher *Launcher, timeout time.Duration) *Commander {
	return &Commander{
		logger:   logger,
		adb:      adb,
		launcher: launcher,
		timeout:  timeout,
	}
}

func (c *Commander) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ListDevices returns the devices known to adb
func (c *Commander) ListDevices(ctx context.Context) ([]domain.Device, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.adb.ListDevices(ctx)
}

// ConnectWireless attaches a device over TCP/IP
func (c *Commander) ConnectWireless(ctx context.Context, ip, port string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.adb.Connect(ctx, ip, port)
}

// DisconnectDevice detaches a device
func (c *Commander) DisconnectDevice(ctx context.Context, deviceID string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.adb.Disconnect(ctx, deviceID)
}

// StartMirroring launches scrcpy. Spawning does not block, so only the
// caller's context is checked before the launch.
func (c *Commander) StartMirroring(ctx context.Context, cfg domain.MirroringConfig) (uint64, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}
	session, err := c.launcher.Start(cfg)
	if err != nil {
		return 0, "", err
	}
	return session, "scrcpy started", nil
}

// StopMirroring terminates scrcpy
func (c *Commander) StopMirroring(ctx context.Context) (string, error) {
	stopped, err := c.launcher.Stop()
	if err != nil {
		return "", err
	}
	if !stopped {
		return "no running scrcpy found", nil
	}
	return "scrcpy stopped", nil
}

// TakeScreenshot captures the device screen into savePath
func (c *Commander) TakeScreenshot(ctx context.Context, deviceID, savePath string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.adb.Screenshot(ctx, deviceID, savePath)
}

// Exits forwards the launcher's unexpected exit events
func (c *Commander) Exits() <-chan domain.MirroringExit {
	return c.launcher.Exits()
}
