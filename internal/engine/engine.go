package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"github.com/genricoloni/mirrorctl/internal/store"
	"go.uber.org/zap"
)

const (
	defaultRefreshInterval = 5 * time.Second
	profileIcon            = "settings-2"
	timestampLayout        = "20060102-150405"
)

// Options configures the engine
type Options struct {
	DataDir         string
	RefreshInterval time.Duration
}

// Capture describes a saved screenshot
type Capture struct {
	Path      string `json:"path"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Engine orchestrates device discovery and the mirroring session.
// It runs the external commands and records their outcome in the store.
type Engine struct {
	logger      *zap.Logger
	store       *store.Store
	commander   domain.Commander
	thumbnailer domain.Thumbnailer
	dataDir     string
	interval    time.Duration
	now         func() time.Time

	// busy serializes start, record and stop
	busy atomic.Bool

	// sessionMu guards the scrcpy run the session flags describe
	sessionMu  sync.Mutex
	session    uint64
	exited     uint64
	exitReason error

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a new orchestration engine
func NewEngine(
	logger *zap.Logger,
	st *store.Store,
	commander domain.Commander,
	thumbnailer domain.Thumbnailer,
	opts Options,
) *Engine {
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	dataDir, err := filepath.Abs(opts.DataDir)
	if err != nil {
		logger.Warn("Failed to resolve data directory", zap.String("dir", opts.DataDir), zap.Error(err))
		dataDir = filepath.Clean(opts.DataDir)
	}
	return &Engine{
		logger:      logger,
		store:       st,
		commander:   commander,
		thumbnailer: thumbnailer,
		dataDir:     dataDir,
		interval:    interval,
		now:         time.Now,
	}
}

// Start launches the refresh loop in a goroutine.
// It returns immediately (non-blocking).
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		return nil
	}

	e.logger.Info("Engine starting...", zap.Duration("refresh_interval", e.interval))

	// the start context belongs to the caller and may expire right after Start
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel

	e.wg.Add(1)
	go e.runLoop(loopCtx)
	return nil
}

// Stop cancels the refresh loop and waits for it to exit
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel == nil {
		return nil
	}

	e.logger.Info("Engine stopping...")
	cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine stop: %w", ctx.Err())
	}
}

// runLoop refreshes devices periodically and watches for mirroring exits
func (e *Engine) runLoop(ctx context.Context) {
	defer e.wg.Done()

	exits := e.commander.Exits()

	if err := e.Refresh(ctx); err != nil {
		e.logger.Debug("Initial refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return

		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				e.logger.Debug("Periodic refresh failed", zap.Error(err))
			}

		case exit, ok := <-exits:
			if !ok {
				e.logger.Info("Exit channel closed")
				exits = nil
				continue
			}
			e.handleExit(exit)
		}
	}
}

// handleExit resets the session flags after scrcpy ends on its own.
// An exit that beats its StartMirroring call is recorded and picked up by adoptSession.
func (e *Engine) handleExit(exit domain.MirroringExit) {
	e.logger.Info("Mirroring process ended",
		zap.Uint64("session", exit.Session),
		zap.Error(exit.Err))

	e.sessionMu.Lock()
	if exit.Session > e.exited {
		e.exited = exit.Session
		e.exitReason = exit.Err
	}
	current := exit.Session == e.session
	if current {
		e.store.SetIsRunning(false)
		e.store.SetIsRecording(false)
	}
	e.sessionMu.Unlock()

	if !current {
		return
	}

	message := "scrcpy window was closed"
	if exit.Err != nil {
		message = exit.Err.Error()
	}
	e.store.AddNotification(domain.SeverityInfo, "Mirroring Ended", message)
}

// Refresh lists devices and applies the result unless a newer refresh started meanwhile.
// A failed listing is applied as an empty list.
func (e *Engine) Refresh(ctx context.Context) error {
	gen := e.store.BeginRefresh()

	devices, err := e.commander.ListDevices(ctx)
	if err != nil {
		e.logger.Warn("Failed to list devices", zap.Error(err))
		devices = nil
	}

	if !e.store.ApplyRefresh(gen, devices) {
		e.logger.Debug("Dropped stale refresh result", zap.Uint64("generation", gen))
	}
	return err
}

// ConnectWireless attaches a device over TCP/IP and refreshes the list
func (e *Engine) ConnectWireless(ctx context.Context, ip, port string) (string, error) {
	if strings.TrimSpace(ip) == "" {
		e.store.AddNotification(domain.SeverityWarning, "IP Address Required", "Please enter a valid IP address")
		return "", domain.ErrAddressRequired
	}

	msg, err := e.commander.ConnectWireless(ctx, ip, port)
	if err != nil {
		e.logger.Error("Wireless connect failed", zap.String("ip", ip), zap.Error(err))
		e.store.AddNotification(domain.SeverityError, "Connection Failed", err.Error())
		return "", err
	}

	e.store.AddNotification(domain.SeveritySuccess, "Connection Initiated", msg)
	e.refreshAfter(ctx)
	return msg, nil
}

// DisconnectDevice detaches a device and refreshes the list
func (e *Engine) DisconnectDevice(ctx context.Context, deviceID string) (string, error) {
	msg, err := e.commander.DisconnectDevice(ctx, deviceID)
	if err != nil {
		e.logger.Error("Disconnect failed", zap.String("device", deviceID), zap.Error(err))
		e.store.AddNotification(domain.SeverityError, "Disconnect Failed", err.Error())
		return "", err
	}

	e.store.AddNotification(domain.SeveritySuccess, "Device Disconnected", deviceID)
	e.refreshAfter(ctx)
	return msg, nil
}

func (e *Engine) refreshAfter(ctx context.Context) {
	if err := e.Refresh(ctx); err != nil {
		e.logger.Debug("Refresh after device change failed", zap.Error(err))
	}
}

// StartMirroring launches scrcpy for the selected device with the current config.
// A record_path in the config is honored, so the run also records.
func (e *Engine) StartMirroring(ctx context.Context) (string, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return "", domain.ErrBusy
	}
	defer e.busy.Store(false)

	cfg, err := e.sessionConfig()
	if err != nil {
		return "", err
	}

	if cfg.RecordPath != "" {
		path, err := e.prepareRecording(cfg.RecordPath)
		if err != nil {
			return "", err
		}
		cfg.RecordPath = path
	}

	msg, err := e.launch(ctx, cfg)
	if err != nil {
		return "", err
	}
	e.store.AddNotification(domain.SeveritySuccess, "Mirroring Started", msg)
	return msg, nil
}

// StartRecording launches scrcpy writing to path and returns the recording path.
// An empty path records under the data directory.
func (e *Engine) StartRecording(ctx context.Context, path string) (string, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return "", domain.ErrBusy
	}
	defer e.busy.Store(false)

	cfg, err := e.sessionConfig()
	if err != nil {
		return "", err
	}

	if path == "" {
		path = filepath.Join("recordings", "record-"+e.now().Format(timestampLayout)+".mp4")
	}
	path, err = e.prepareRecording(path)
	if err != nil {
		return "", err
	}
	cfg.RecordPath = path

	if _, err := e.launch(ctx, cfg); err != nil {
		return "", err
	}
	e.store.AddNotification(domain.SeveritySuccess, "Recording Started", path)
	return path, nil
}

// prepareRecording confines path to the data directory and creates its parent
func (e *Engine) prepareRecording(path string) (string, error) {
	path, err := e.resolvePath(path)
	if err != nil {
		e.store.AddNotification(domain.SeverityWarning, "Invalid Path", err.Error())
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		err = fmt.Errorf("failed to create recording directory: %w", err)
		e.store.AddNotification(domain.SeverityError, "Recording Failed", err.Error())
		return "", err
	}
	return path, nil
}

// launch starts scrcpy and sets the session flags for the new run
func (e *Engine) launch(ctx context.Context, cfg domain.MirroringConfig) (string, error) {
	recording := cfg.RecordPath != ""
	title := "Mirroring Failed"
	if recording {
		title = "Recording Failed"
	}

	session, msg, err := e.commander.StartMirroring(ctx, cfg)
	if err != nil {
		e.logger.Error("Failed to start scrcpy",
			zap.String("device", cfg.DeviceID),
			zap.String("record_path", cfg.RecordPath),
			zap.Error(err))
		e.store.AddNotification(domain.SeverityError, title, err.Error())
		return "", err
	}

	if err := e.adoptSession(session, recording); err != nil {
		e.logger.Warn("scrcpy exited right after starting", zap.Uint64("session", session), zap.Error(err))
		e.store.AddNotification(domain.SeverityError, title, err.Error())
		return "", err
	}
	return msg, nil
}

// adoptSession makes session the run the flags describe.
// It fails when that run already exited, leaving both flags cleared.
func (e *Engine) adoptSession(session uint64, recording bool) error {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()

	e.session = session
	if session != 0 && session <= e.exited {
		e.store.SetIsRunning(false)
		e.store.SetIsRecording(false)
		if e.exitReason != nil {
			return fmt.Errorf("scrcpy exited right after starting: %w", e.exitReason)
		}
		return errors.New("scrcpy exited right after starting")
	}

	e.store.SetIsRunning(true)
	// a plain start replaces any recording process
	e.store.SetIsRecording(recording)
	return nil
}

// StopMirroring terminates scrcpy and clears the session flags
func (e *Engine) StopMirroring(ctx context.Context) (string, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return "", domain.ErrBusy
	}
	defer e.busy.Store(false)

	msg, err := e.commander.StopMirroring(ctx)
	if err != nil {
		e.logger.Error("Failed to stop mirroring", zap.Error(err))
		e.store.AddNotification(domain.SeverityError, "Stop Failed", err.Error())
		return "", err
	}

	e.sessionMu.Lock()
	e.store.SetIsRunning(false)
	e.store.SetIsRecording(false)
	e.sessionMu.Unlock()

	e.store.AddNotification(domain.SeverityInfo, "Mirroring Stopped", msg)
	return msg, nil
}

// sessionConfig returns the config bound to the selected device
func (e *Engine) sessionConfig() (domain.MirroringConfig, error) {
	selected := e.store.SelectedDevice()
	if selected == nil {
		e.store.AddNotification(domain.SeverityWarning, "No Device Selected", "Select a device first")
		return domain.MirroringConfig{}, domain.ErrNoDeviceSelected
	}

	cfg := e.store.Config()
	cfg.DeviceID = selected.ID
	return cfg, nil
}

// resolvePath anchors a relative path in the data directory and rejects
// anything that ends up outside it
func (e *Engine) resolvePath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.dataDir, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(e.dataDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathNotAllowed, path)
	}
	return path, nil
}

// TakeScreenshot captures the selected device screen and writes a thumbnail next to it.
// An empty path saves under the data directory.
func (e *Engine) TakeScreenshot(ctx context.Context, path string) (Capture, error) {
	selected := e.store.SelectedDevice()
	if selected == nil {
		e.store.AddNotification(domain.SeverityWarning, "No Device Selected", "Select a device first")
		return Capture{}, domain.ErrNoDeviceSelected
	}

	if path == "" {
		path = filepath.Join("screenshots", "screenshot-"+e.now().Format(timestampLayout)+".png")
	}
	path, err := e.resolvePath(path)
	if err != nil {
		e.store.AddNotification(domain.SeverityWarning, "Invalid Path", err.Error())
		return Capture{}, err
	}

	saved, err := e.commander.TakeScreenshot(ctx, selected.ID, path)
	if err != nil {
		e.logger.Error("Screenshot failed", zap.String("device", selected.ID), zap.Error(err))
		e.store.AddNotification(domain.SeverityError, "Screenshot Failed", err.Error())
		return Capture{}, err
	}

	capture := Capture{Path: saved}
	if e.thumbnailer != nil {
		thumb, err := e.thumbnailer.Generate(ctx, saved)
		if err != nil {
			e.logger.Warn("Thumbnail generation failed", zap.String("path", saved), zap.Error(err))
		} else {
			capture.Thumbnail = thumb
		}
	}

	e.store.AddNotification(domain.SeveritySuccess, "Screenshot Saved", saved)
	return capture, nil
}

// UpdateConfig merges patch into the config.
// device_id may only restate the selection and record_path must stay inside the data directory.
func (e *Engine) UpdateConfig(patch domain.ConfigPatch) (domain.MirroringConfig, error) {
	if patch.DeviceID != nil {
		selected := ""
		if d := e.store.SelectedDevice(); d != nil {
			selected = d.ID
		}
		if *patch.DeviceID != selected {
			err := fmt.Errorf("%w: %q", domain.ErrDeviceMismatch, *patch.DeviceID)
			e.store.AddNotification(domain.SeverityWarning, "Invalid Settings", err.Error())
			return domain.MirroringConfig{}, err
		}
	}

	if patch.RecordPath != nil && *patch.RecordPath != "" {
		path, err := e.resolvePath(*patch.RecordPath)
		if err != nil {
			e.store.AddNotification(domain.SeverityWarning, "Invalid Settings", err.Error())
			return domain.MirroringConfig{}, err
		}
		patch.RecordPath = &path
	}

	e.store.SetConfig(patch)
	e.store.AddNotification(domain.SeveritySuccess, "Settings Saved", "Configuration has been updated")
	return e.store.Config(), nil
}

// ResetConfig restores the default config
func (e *Engine) ResetConfig() domain.MirroringConfig {
	e.store.ResetConfig()
	e.store.AddNotification(domain.SeverityInfo, "Settings Reset", "Configuration restored to defaults")
	return e.store.Config()
}

// ApplyProfile loads a profile's config, keeping device_id bound to the selection
func (e *Engine) ApplyProfile(id string) (domain.MirroringConfig, error) {
	profile, ok := e.store.Profile(id)
	if !ok {
		return domain.MirroringConfig{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, id)
	}

	deviceID := ""
	if selected := e.store.SelectedDevice(); selected != nil {
		deviceID = selected.ID
	}
	patch := domain.FullPatch(profile.Config)
	patch.DeviceID = &deviceID
	e.store.SetConfig(patch)

	e.logger.Info("Profile applied", zap.String("profile", id))
	e.store.AddNotification(domain.SeveritySuccess, "Profile Applied", profile.Name+" settings loaded")
	return e.store.Config(), nil
}

// SaveProfile stores the current config as a new custom profile
func (e *Engine) SaveProfile(name string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, domain.ErrProfileNameRequired
	}

	millis := e.now().UnixMilli()
	id := domain.CustomProfilePrefix + strconv.FormatInt(millis, 10)
	for {
		if _, taken := e.store.Profile(id); !taken {
			break
		}
		millis++
		id = domain.CustomProfilePrefix + strconv.FormatInt(millis, 10)
	}

	profile := domain.Profile{
		ID:     id,
		Name:   name,
		Icon:   profileIcon,
		Config: e.store.Config(),
	}
	e.store.AddProfile(profile)

	e.logger.Info("Profile saved", zap.String("profile", id), zap.String("name", name))
	e.store.AddNotification(domain.SeveritySuccess, "Profile Created", name+" has been saved")
	return profile, nil
}

// IsBusy reports whether a session command is in flight
func (e *Engine) IsBusy() bool {
	return e.busy.Load()
}

