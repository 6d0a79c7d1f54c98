package domain

// DeviceStatus represents the connectivity state reported for a device
type DeviceStatus string

const (
	// StatusOnline indicates the device is authorized and ready
	StatusOnline DeviceStatus = "online"
	// StatusConnecting indicates the device is attached but not usable yet
	StatusConnecting DeviceStatus = "connecting"
	// StatusOffline indicates the device is known but unreachable
	StatusOffline DeviceStatus = "offline"
)

// Transport is the link used to reach a device
type Transport string

const (
	TransportUSB      Transport = "usb"
	TransportWireless Transport = "wireless"
)

// Device is a discovered Android endpoint.
// Device values are replaced wholesale on every refresh and never edited in place.
type Device struct {
	// ID is the adb serial, or host:port for wireless devices
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Status DeviceStatus `json:"status"`
	Type   Transport    `json:"type,omitempty"`
	Model  string       `json:"model,omitempty"`
}

// VideoCodec selects the encoder used by the mirroring process
type VideoCodec string

const (
	CodecH264 VideoCodec = "h264"
	CodecH265 VideoCodec = "h265"
	CodecAV1  VideoCodec = "av1"
)

// Valid reports whether c is a codec scrcpy accepts
func (c VideoCodec) Valid() bool {
	switch c {
	case CodecH264, CodecH265, CodecAV1:
		return true
	}
	return false
}

// MirroringConfig is the parameter set handed to the mirroring process
type MirroringConfig struct {
	DeviceID string `json:"device_id"`
	// MaxSize is the max output dimension, 0 means unconstrained
	MaxSize       int        `json:"max_size"`
	MaxFPS        int        `json:"max_fps"`
	Bitrate       string     `json:"bitrate"`
	VideoCodec    VideoCodec `json:"video_codec"`
	AudioEnabled  bool       `json:"audio_enabled"`
	ShowTouches   bool       `json:"show_touches"`
	StayAwake     bool       `json:"stay_awake"`
	Fullscreen    bool       `json:"fullscreen"`
	Borderless    bool       `json:"borderless"`
	AlwaysOnTop   bool       `json:"always_on_top"`
	TurnScreenOff bool       `json:"turn_screen_off"`
	// RecordPath is empty when recording is disabled
	RecordPath string `json:"record_path,omitempty"`
}

// ConfigPatch is a partial MirroringConfig; nil fields are left untouched on merge
type ConfigPatch struct {
	DeviceID      *string     `json:"device_id,omitempty"`
	MaxSize       *int        `json:"max_size,omitempty"`
	MaxFPS        *int        `json:"max_fps,omitempty"`
	Bitrate       *string     `json:"bitrate,omitempty"`
	VideoCodec    *VideoCodec `json:"video_codec,omitempty"`
	AudioEnabled  *bool       `json:"audio_enabled,omitempty"`
	ShowTouches   *bool       `json:"show_touches,omitempty"`
	StayAwake     *bool       `json:"stay_awake,omitempty"`
	Fullscreen    *bool       `json:"fullscreen,omitempty"`
	Borderless    *bool       `json:"borderless,omitempty"`
	AlwaysOnTop   *bool       `json:"always_on_top,omitempty"`
	TurnScreenOff *bool       `json:"turn_screen_off,omitempty"`
	RecordPath    *string     `json:"record_path,omitempty"`
}

// Apply returns cfg with every non-nil patch field overwritten
func (p ConfigPatch) Apply(cfg MirroringConfig) MirroringConfig {
	if p.DeviceID != nil {
		cfg.DeviceID = *p.DeviceID
	}
	if p.MaxSize != nil {
		cfg.MaxSize = *p.MaxSize
	}
	if p.MaxFPS != nil {
		cfg.MaxFPS = *p.MaxFPS
	}
	if p.Bitrate != nil {
		cfg.Bitrate = *p.Bitrate
	}
	if p.VideoCodec != nil {
		cfg.VideoCodec = *p.VideoCodec
	}
	if p.AudioEnabled != nil {
		cfg.AudioEnabled = *p.AudioEnabled
	}
	if p.ShowTouches != nil {
		cfg.ShowTouches = *p.ShowTouches
	}
	if p.StayAwake != nil {
		cfg.StayAwake = *p.StayAwake
	}
	if p.Fullscreen != nil {
		cfg.Fullscreen = *p.Fullscreen
	}
	if p.Borderless != nil {
		cfg.Borderless = *p.Borderless
	}
	if p.AlwaysOnTop != nil {
		cfg.AlwaysOnTop = *p.AlwaysOnTop
	}
	if p.TurnScreenOff != nil {
		cfg.TurnScreenOff = *p.TurnScreenOff
	}
	if p.RecordPath != nil {
		cfg.RecordPath = *p.RecordPath
	}
	return cfg
}

// FullPatch builds a patch that overwrites every field of the active config with cfg
func FullPatch(cfg MirroringConfig) ConfigPatch {
	return ConfigPatch{
		DeviceID:      &cfg.DeviceID,
		MaxSize:       &cfg.MaxSize,
		MaxFPS:        &cfg.MaxFPS,
		Bitrate:       &cfg.Bitrate,
		VideoCodec:    &cfg.VideoCodec,
		AudioEnabled:  &cfg.AudioEnabled,
		ShowTouches:   &cfg.ShowTouches,
		StayAwake:     &cfg.StayAwake,
		Fullscreen:    &cfg.Fullscreen,
		Borderless:    &cfg.Borderless,
		AlwaysOnTop:   &cfg.AlwaysOnTop,
		TurnScreenOff: &cfg.TurnScreenOff,
		RecordPath:    &cfg.RecordPath,
	}
}

// CustomProfilePrefix marks profiles created by the user
const CustomProfilePrefix = "custom-"

// Profile is a named, reusable snapshot of a MirroringConfig
type Profile struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Icon   string          `json:"icon"`
	Config MirroringConfig `json:"config"`
}

// ProfilePatch is a partial Profile; Config is replaced as a whole when present
type ProfilePatch struct {
	Name   *string          `json:"name,omitempty"`
	Icon   *string          `json:"icon,omitempty"`
	Config *MirroringConfig `json:"config,omitempty"`
}

// Severity classifies a notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is a transient, auto-expiring message
type Notification struct {
	ID      string   `json:"id"`
	Type    Severity `json:"type"`
	Title   string   `json:"title"`
	Message string   `json:"message,omitempty"`
}

// Page is a screen of the visual shell
type Page string

const (
	PageDashboard Page = "dashboard"
	PageSettings  Page = "settings"
	PageProfiles  Page = "profiles"
)

// Valid reports whether p is one of the known pages
func (p Page) Valid() bool {
	switch p {
	case PageDashboard, PageSettings, PageProfiles:
		return true
	}
	return false
}

// Theme is the shell color scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// PersistedState is the subset of the session that survives a restart
type PersistedState struct {
	Config           MirroringConfig `json:"config"`
	Profiles         []Profile       `json:"profiles"`
	Theme            Theme           `json:"theme"`
	SidebarCollapsed bool            `json:"sidebarCollapsed"`
}

// State is a point-in-time copy of the whole session
type State struct {
	CurrentPage      Page            `json:"currentPage"`
	SidebarCollapsed bool            `json:"sidebarCollapsed"`
	Theme            Theme           `json:"theme"`
	Devices          []Device        `json:"devices"`
	SelectedDevice   *Device         `json:"selectedDevice"`
	IsRunning        bool            `json:"isRunning"`
	IsRecording      bool            `json:"isRecording"`
	Config           MirroringConfig `json:"config"`
	Profiles         []Profile       `json:"profiles"`
	Notifications    []Notification  `json:"notifications"`
}

// MirroringExit reports that the mirroring process ended on its own
type MirroringExit struct {
	// Session identifies the process run that exited
	Session uint64
	Err     error
}

// ScreenResolution describes the host display offered as the "native" mirroring size
type ScreenResolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// NativeMaxSize is the longest side, matching scrcpy's --max-size semantics
	NativeMaxSize int  `json:"nativeMaxSize"`
	Detected      bool `json:"detected"`
}
