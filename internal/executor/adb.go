package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultWirelessPort = "5555"
	remoteScreenshot    = "/sdcard/mirrorctl-screenshot.png"
)

// ADBClient wraps adb command execution
type ADBClient struct {
	logger *zap.Logger
	binary string
	run    runFunc
}

// NewADBClient creates a client for the given adb binary
func NewADBClient(logger *zap.Logger, binary string) *ADBClient {
	if !commandExists(binary) {
		logger.Warn("adb not found in PATH, device listing will fail until it is installed",
			zap.String("binary", binary))
	}
	return &ADBClient{
		logger: logger,
		binary: binary,
		run:    runCombined,
	}
}

// ListDevices returns every device reported by `adb devices -l`, in adb order
func (c *ADBClient) ListDevices(ctx context.Context) ([]domain.Device, error) {
	output, err := c.run(ctx, c.binary, "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return parseDeviceList(string(output)), nil
}

// parseDeviceList parses the output of `adb devices -l`
func parseDeviceList(output string) []domain.Device {
	devices := make([]domain.Device, 0)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		// header, blank lines and daemon start-up chatter
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		// Expected format: <serial> <state> [key:value ...]
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		device := domain.Device{
			ID:     parts[0],
			Name:   parts[0],
			Status: parseState(parts[1]),
			Type:   transportOf(parts[0]),
		}

		for _, part := range parts[2:] {
			if model, ok := strings.CutPrefix(part, "model:"); ok && model != "" {
				device.Model = model
				device.Name = strings.ReplaceAll(model, "_", " ")
			}
		}

		devices = append(devices, device)
	}

	return devices
}

func parseState(state string) domain.DeviceStatus {
	switch state {
	case "device":
		return domain.StatusOnline
	case "offline":
		return domain.StatusOffline
	default:
		// unauthorized, authorizing, connecting, recovery...
		return domain.StatusConnecting
	}
}

// transportOf reports wireless for host:port serials
func transportOf(serial string) domain.Transport {
	if strings.Contains(serial, ":") {
		return domain.TransportWireless
	}
	return domain.TransportUSB
}

// Connect attaches a device over TCP/IP
func (c *ADBClient) Connect(ctx context.Context, ip, port string) (string, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", fmt.Errorf("ip address is required")
	}
	port = strings.TrimSpace(port)
	if port == "" {
		port = defaultWirelessPort
	}
	address := ip + ":" + port

	output, err := c.run(ctx, c.binary, "connect", address)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	// adb exits 0 even when the connection is refused
	text := strings.TrimSpace(string(output))
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "connected") ||
		strings.Contains(lower, "cannot") ||
		strings.Contains(lower, "failed") ||
		strings.Contains(lower, "unable") {
		return "", fmt.Errorf("failed to connect to %s: %s", address, text)
	}

	c.logger.Info("Wireless device connected", zap.String("address", address))
	return "connected: " + address, nil
}

// Disconnect detaches a wireless device
func (c *ADBClient) Disconnect(ctx context.Context, deviceID string) (string, error) {
	output, err := c.run(ctx, c.binary, "disconnect", deviceID)
	if err != nil {
		return "", fmt.Errorf("failed to disconnect %s: %w", deviceID, err)
	}
	c.logger.Info("Device disconnected", zap.String("device", deviceID))
	return strings.TrimSpace(string(output)), nil
}

// Screenshot captures the device screen into savePath
func (c *ADBClient) Screenshot(ctx context.Context, deviceID, savePath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	if _, err := c.run(ctx, c.binary, c.deviceArgs(deviceID, "shell", "screencap", "-p", remoteScreenshot)...); err != nil {
		return "", fmt.Errorf("failed to capture screen: %w", err)
	}

	if _, err := c.run(ctx, c.binary, c.deviceArgs(deviceID, "pull", remoteScreenshot, savePath)...); err != nil {
		return "", fmt.Errorf("failed to pull screenshot: %w", err)
	}

	if _, err := c.run(ctx, c.binary, c.deviceArgs(deviceID, "shell", "rm", remoteScreenshot)...); err != nil {
		c.logger.Debug("Failed to remove remote screenshot", zap.String("device", deviceID), zap.Error(err))
	}

	c.logger.Info("Screenshot saved", zap.String("device", deviceID), zap.String("path", savePath))
	return savePath, nil
}

// deviceArgs prefixes args with -s <id> when a device is given
func (c *ADBClient) deviceArgs(deviceID string, args ...string) []string {
	if deviceID == "" {
		return args
	}
	return append([]string{"-s", deviceID}, args...)
}
