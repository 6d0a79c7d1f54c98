package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// ChangeKind names the part of the session touched by a mutation
type ChangeKind string

const (
	ChangePage          ChangeKind = "page"
	ChangeLayout        ChangeKind = "layout"
	ChangeDevices       ChangeKind = "devices"
	ChangeSelection     ChangeKind = "selection"
	ChangeSession       ChangeKind = "session"
	ChangeConfig        ChangeKind = "config"
	ChangeProfiles      ChangeKind = "profiles"
	ChangeNotifications ChangeKind = "notifications"
)

// persisted reports whether the kind touches a field that survives restarts
func (k ChangeKind) persisted() bool {
	switch k {
	case ChangeLayout, ChangeSelection, ChangeConfig, ChangeProfiles:
		return true
	}
	return false
}

// Change describes a completed mutation
type Change struct {
	Kind ChangeKind
	// Added is set when a notification was appended
	Added *domain.Notification
}

// Listener is notified after every mutation, outside the store lock.
// It must not block.
type Listener func(Change)

// Options tunes a Store
type Options struct {
	// NotificationTTL is the auto-expiry delay; zero or negative disables expiry
	NotificationTTL time.Duration
}

// Store is the single authoritative holder of the session.
// One instance is built at startup and handed to every consumer.
type Store struct {
	logger    *zap.Logger
	persister domain.Persister
	ttl       time.Duration

	mu               sync.RWMutex
	currentPage      domain.Page
	sidebarCollapsed bool
	theme            domain.Theme
	devices          []domain.Device
	selected         *domain.Device
	isRunning        bool
	isRecording      bool
	config           domain.MirroringConfig
	profiles         []domain.Profile
	notifications    []domain.Notification
	timers           map[string]*time.Timer
	refreshGen       uint64
	version          uint64

	saveMu       sync.Mutex
	savedVersion uint64

	listenersMu  sync.RWMutex
	listeners    map[int]Listener
	nextListener int
}

// New creates a store and rehydrates the persisted fields.
// persister may be nil, in which case nothing is loaded or saved.
func New(logger *zap.Logger, persister domain.Persister, opts Options) *Store {
	s := &Store{
		logger:      logger,
		persister:   persister,
		ttl:         opts.NotificationTTL,
		currentPage: domain.PageDashboard,
		theme:       domain.ThemeDark,
		config:      DefaultConfig(),
		profiles:    DefaultProfiles(),
		timers:      make(map[string]*time.Timer),
		listeners:   make(map[int]Listener),
	}
	s.rehydrate()
	return s
}

func (s *Store) rehydrate() {
	if s.persister == nil {
		return
	}

	state := domain.PersistedState{
		Config:           DefaultConfig(),
		Theme:            domain.ThemeDark,
		SidebarCollapsed: false,
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	found, err := s.persister.Load(ctx, &state)
	if err != nil {
		s.logger.Error("Failed to load persisted session, using defaults", zap.Error(err))
		return
	}
	if !found {
		s.logger.Info("No persisted session found, using defaults")
		return
	}

	if !state.Theme.Valid() {
		state.Theme = domain.ThemeDark
	}
	s.config = state.Config
	s.theme = state.Theme
	s.sidebarCollapsed = state.SidebarCollapsed
	if state.Profiles != nil {
		s.profiles = state.Profiles
	}

	s.logger.Info("Session rehydrated",
		zap.Int("profiles", len(s.profiles)),
		zap.String("theme", string(s.theme)),
		zap.Bool("sidebarCollapsed", s.sidebarCollapsed))
}

// Subscribe registers a listener and returns a function that removes it
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) emit(c Change) {
	s.listenersMu.RLock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// mutate runs fn under the write lock. fn reports whether anything changed;
// on change the persisted subset is saved when the kind requires it and listeners are notified.
func (s *Store) mutate(kind ChangeKind, fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}

	if kind.persisted() {
		s.version++
		version := s.version
		state := s.persistedLocked()
		s.mu.Unlock()
		s.save(version, state)
	} else {
		s.mu.Unlock()
	}

	s.emit(Change{Kind: kind})
}

func (s *Store) persistedLocked() domain.PersistedState {
	return domain.PersistedState{
		Config:           s.config,
		Profiles:         cloneSlice(s.profiles),
		Theme:            s.theme,
		SidebarCollapsed: s.sidebarCollapsed,
	}
}

// save writes state unless a newer version already reached storage
func (s *Store) save(version uint64, state domain.PersistedState) {
	if s.persister == nil {
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if version <= s.savedVersion {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.persister.Save(ctx, state); err != nil {
		s.logger.Error("Failed to persist session", zap.Uint64("version", version), zap.Error(err))
		return
	}
	s.savedVersion = version
}

// SetCurrentPage replaces the navigation position
func (s *Store) SetCurrentPage(page domain.Page) {
	s.mutate(ChangePage, func() bool {
		s.currentPage = page
		return true
	})
}

// SetSidebarCollapsed sets the sidebar flag
func (s *Store) SetSidebarCollapsed(collapsed bool) {
	s.mutate(ChangeLayout, func() bool {
		s.sidebarCollapsed = collapsed
		return true
	})
}

// ToggleSidebar flips the sidebar flag
func (s *Store) ToggleSidebar() {
	s.mutate(ChangeLayout, func() bool {
		s.sidebarCollapsed = !s.sidebarCollapsed
		return true
	})
}

// SetTheme sets the color scheme
func (s *Store) SetTheme(theme domain.Theme) {
	s.mutate(ChangeLayout, func() bool {
		s.theme = theme
		return true
	})
}

// SetDevices replaces the device list wholesale.
// Stale selection detection is left to the caller or to ApplyRefresh.
func (s *Store) SetDevices(devices []domain.Device) {
	s.mutate(ChangeDevices, func() bool {
		s.devices = cloneSlice(devices)
		s.repointSelectionLocked()
		return true
	})
}

// SetSelectedDevice replaces the selection and keeps config.device_id in sync with it
func (s *Store) SetSelectedDevice(device *domain.Device) {
	s.mutate(ChangeSelection, func() bool {
		s.selectLocked(device)
		return true
	})
}

// selectLocked is the only place the selection changes
func (s *Store) selectLocked(device *domain.Device) {
	if device == nil {
		s.selected = nil
		s.config.DeviceID = ""
		return
	}
	d := *device
	s.selected = &d
	s.config.DeviceID = d.ID
}

// repointSelectionLocked refreshes the selected copy from the current list when its id is still present
func (s *Store) repointSelectionLocked() bool {
	if s.selected == nil {
		return false
	}
	for i := range s.devices {
		if s.devices[i].ID == s.selected.ID {
			d := s.devices[i]
			s.selected = &d
			return true
		}
	}
	return false
}

// BeginRefresh issues a new refresh generation.
// Only the result carrying the latest generation is applied.
func (s *Store) BeginRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshGen++
	return s.refreshGen
}

// ApplyRefresh installs a fresh device list and repairs the selection:
// an empty selection takes the first device, a vanished selection falls back
// to the first device or to nothing. Results from a superseded generation are
// dropped and false is returned.
func (s *Store) ApplyRefresh(gen uint64, devices []domain.Device) bool {
	s.mu.Lock()
	if gen != s.refreshGen {
		latest := s.refreshGen
		s.mu.Unlock()
		s.logger.Debug("Dropping stale device refresh",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", latest))
		return false
	}

	s.devices = cloneSlice(devices)

	selectionChanged := false
	if !s.repointSelectionLocked() {
		var next *domain.Device
		if len(s.devices) > 0 {
			first := s.devices[0]
			next = &first
		}
		if s.selected != nil || next != nil {
			previous := ""
			if s.selected != nil {
				previous = s.selected.ID
			}
			s.selectLocked(next)
			selectionChanged = true
			s.logger.Info("Device selection updated by refresh",
				zap.String("previous", previous),
				zap.String("current", s.config.DeviceID))
		}
	}

	var (
		version uint64
		state   domain.PersistedState
	)
	if selectionChanged {
		s.version++
		version = s.version
		state = s.persistedLocked()
	}
	s.mu.Unlock()

	if selectionChanged {
		s.save(version, state)
	}
	s.emit(Change{Kind: ChangeDevices})
	if selectionChanged {
		s.emit(Change{Kind: ChangeSelection})
	}
	return true
}

// SetConfig merges a partial config into the active one
func (s *Store) SetConfig(patch domain.ConfigPatch) {
	s.mutate(ChangeConfig, func() bool {
		s.config = patch.Apply(s.config)
		return true
	})
}

// ResetConfig restores the built-in default config.
// The device id is reset too and is not re-synced with the selection.
func (s *Store) ResetConfig() {
	s.mutate(ChangeConfig, func() bool {
		s.config = DefaultConfig()
		return true
	})
}

// AddProfile appends a profile. Id uniqueness is the caller's responsibility.
func (s *Store) AddProfile(profile domain.Profile) {
	s.mutate(ChangeProfiles, func() bool {
		s.profiles = append(s.profiles, profile)
		return true
	})
}

// RemoveProfile removes the first profile with the given id
func (s *Store) RemoveProfile(id string) {
	s.mutate(ChangeProfiles, func() bool {
		i := s.profileIndexLocked(id)
		if i < 0 {
			return false
		}
		s.profiles = slices.Delete(cloneSlice(s.profiles), i, i+1)
		return true
	})
}

// UpdateProfile merges patch into the profile with the given id
func (s *Store) UpdateProfile(id string, patch domain.ProfilePatch) {
	s.mutate(ChangeProfiles, func() bool {
		i := s.profileIndexLocked(id)
		if i < 0 {
			return false
		}
		profiles := cloneSlice(s.profiles)
		if patch.Name != nil {
			profiles[i].Name = *patch.Name
		}
		if patch.Icon != nil {
			profiles[i].Icon = *patch.Icon
		}
		if patch.Config != nil {
			profiles[i].Config = *patch.Config
		}
		s.profiles = profiles
		return true
	})
}

func (s *Store) profileIndexLocked(id string) int {
	return slices.IndexFunc(s.profiles, func(p domain.Profile) bool { return p.ID == id })
}

// SetIsRunning sets the running flag without cross-validation
func (s *Store) SetIsRunning(running bool) {
	s.mutate(ChangeSession, func() bool {
		s.isRunning = running
		return true
	})
}

// SetIsRecording sets the recording flag without cross-validation
func (s *Store) SetIsRecording(recording bool) {
	s.mutate(ChangeSession, func() bool {
		s.isRecording = recording
		return true
	})
}

// AddNotification appends a notification and returns its generated id.
// The entry is removed automatically once the TTL elapses.
func (s *Store) AddNotification(severity domain.Severity, title, message string) string {
	n := domain.Notification{
		ID:      "notif-" + uuid.NewString(),
		Type:    severity,
		Title:   title,
		Message: message,
	}

	s.mu.Lock()
	s.notifications = append(cloneSlice(s.notifications), n)
	if s.ttl > 0 {
		id := n.ID
		s.timers[id] = time.AfterFunc(s.ttl, func() {
			s.RemoveNotification(id)
		})
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeNotifications, Added: &n})
	return n.ID
}

// RemoveNotification removes a notification and cancels its expiry.
// Unknown ids are ignored.
func (s *Store) RemoveNotification(id string) {
	s.mutate(ChangeNotifications, func() bool {
		if t, ok := s.timers[id]; ok {
			t.Stop()
			delete(s.timers, id)
		}
		i := slices.IndexFunc(s.notifications, func(n domain.Notification) bool { return n.ID == id })
		if i < 0 {
			return false
		}
		s.notifications = slices.Delete(cloneSlice(s.notifications), i, i+1)
		return true
	})
}

// ClearNotifications drops every notification
func (s *Store) ClearNotifications() {
	s.mutate(ChangeNotifications, func() bool {
		s.stopTimersLocked()
		if len(s.notifications) == 0 {
			return false
		}
		s.notifications = nil
		return true
	})
}

func (s *Store) stopTimersLocked() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Close stops every pending expiry timer
func (s *Store) Close() {
	s.mu.Lock()
	s.stopTimersLocked()
	s.mu.Unlock()
	s.logger.Debug("Session store closed")
}

// Snapshot returns a deep copy of the whole session
func (s *Store) Snapshot() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.State{
		CurrentPage:      s.currentPage,
		SidebarCollapsed: s.sidebarCollapsed,
		Theme:            s.theme,
		Devices:          cloneSlice(s.devices),
		SelectedDevice:   cloneDevice(s.selected),
		IsRunning:        s.isRunning,
		IsRecording:      s.isRecording,
		Config:           s.config,
		Profiles:         cloneSlice(s.profiles),
		Notifications:    cloneSlice(s.notifications),
	}
}

// CurrentPage returns the navigation position
func (s *Store) CurrentPage() domain.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPage
}

// Devices returns a copy of the device list
func (s *Store) Devices() []domain.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.devices)
}

// SelectedDevice returns a copy of the selected device, or nil
func (s *Store) SelectedDevice() *domain.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDevice(s.selected)
}

// Config returns the active mirroring config
func (s *Store) Config() domain.MirroringConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Profiles returns a copy of the saved profiles
func (s *Store) Profiles() []domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.profiles)
}

// Profile looks up a profile by id
func (s *Store) Profile(id string) (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.profileIndexLocked(id)
	if i < 0 {
		return domain.Profile{}, false
	}
	return s.profiles[i], true
}

// Notifications returns the queue in insertion order
func (s *Store) Notifications() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.notifications)
}

// IsRunning reports whether mirroring is presumed active
func (s *Store) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsRecording reports whether the running session records
func (s *Store) IsRecording() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRecording
}

// cloneSlice always returns a non-nil copy so readers never share backing arrays
func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneDevice(d *domain.Device) *domain.Device {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
