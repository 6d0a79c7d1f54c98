package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultDataDir         = "~/.local/share/mirrorctl"
	defaultListenAddr      = "127.0.0.1:7878"
	defaultADBPath         = "adb"
	defaultScrcpyPath      = "scrcpy"
	defaultRefreshInterval = 5 * time.Second
	defaultCommandTimeout  = 15 * time.Second
	defaultNotificationTTL = 4 * time.Second
	defaultLocale          = "en"

	// dev server and packaged webview origins of the desktop shell
	defaultAllowedOrigins = "http://localhost:1420,http://127.0.0.1:1420,tauri://localhost,http://tauri.localhost"
)

// AppConfig holds application configuration
type AppConfig struct {
	logger          *zap.Logger
	dataDir         string
	listenAddr      string
	adbPath         string
	scrcpyPath      string
	refreshInterval time.Duration
	commandTimeout  time.Duration
	notificationTTL time.Duration
	locale          string
	allowedOrigins  []string
}

// NewAppConfig creates a new application configuration instance
func NewAppConfig(logger *zap.Logger) *AppConfig {
	cfg := &AppConfig{
		logger:          logger,
		dataDir:         expandPath(getEnv("MIRRORCTL_DATA_DIR", defaultDataDir)),
		listenAddr:      getEnv("MIRRORCTL_LISTEN_ADDR", defaultListenAddr),
		adbPath:         getEnv("MIRRORCTL_ADB", defaultADBPath),
		scrcpyPath:      getEnv("MIRRORCTL_SCRCPY", defaultScrcpyPath),
		refreshInterval: getDuration(logger, "MIRRORCTL_REFRESH_INTERVAL", defaultRefreshInterval),
		commandTimeout:  getDuration(logger, "MIRRORCTL_COMMAND_TIMEOUT", defaultCommandTimeout),
		notificationTTL: getDuration(logger, "MIRRORCTL_NOTIFICATION_TTL", defaultNotificationTTL),
		locale:          getEnv("MIRRORCTL_LOCALE", defaultLocale),
		allowedOrigins:  getList("MIRRORCTL_ALLOWED_ORIGINS", defaultAllowedOrigins),
	}

	logger.Info("Configuration loaded",
		zap.String("dataDir", cfg.dataDir),
		zap.String("listenAddr", cfg.listenAddr),
		zap.String("adb", cfg.adbPath),
		zap.String("scrcpy", cfg.scrcpyPath),
		zap.Duration("refreshInterval", cfg.refreshInterval),
		zap.Duration("commandTimeout", cfg.commandTimeout),
		zap.Duration("notificationTTL", cfg.notificationTTL),
		zap.String("locale", cfg.locale),
		zap.Strings("allowedOrigins", cfg.allowedOrigins))

	return cfg
}

// GetDataDir returns the directory holding the database, screenshots and recordings
func (c *AppConfig) GetDataDir() string {
	return c.dataDir
}

// GetListenAddr returns the address of the HTTP/WebSocket surface
func (c *AppConfig) GetListenAddr() string {
	return c.listenAddr
}

// GetADBPath returns the adb binary to execute
func (c *AppConfig) GetADBPath() string {
	return c.adbPath
}

// GetScrcpyPath returns the scrcpy binary to execute
func (c *AppConfig) GetScrcpyPath() string {
	return c.scrcpyPath
}

// GetRefreshInterval returns the device list polling period
func (c *AppConfig) GetRefreshInterval() time.Duration {
	return c.refreshInterval
}

// GetCommandTimeout returns the deadline applied to every external command
func (c *AppConfig) GetCommandTimeout() time.Duration {
	return c.commandTimeout
}

// GetNotificationTTL returns how long a notification stays in the queue
func (c *AppConfig) GetNotificationTTL() time.Duration {
	return c.notificationTTL
}

// GetDefaultLocale returns the display language used until the user picks one
func (c *AppConfig) GetDefaultLocale() string {
	return c.locale
}

// GetAllowedOrigins returns the browser origins allowed to call the HTTP surface
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.allowedOrigins
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma separated value, dropping empty entries
func getList(key, fallback string) []string {
	var list []string
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func getDuration(logger *zap.Logger, key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Duration("default", fallback))
		return fallback
	}
	return d
}

// expandPath expands environment variables and a leading ~
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}
