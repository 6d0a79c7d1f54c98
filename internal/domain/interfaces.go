package domain

import "context"

// Commander is the façade over the external adb and scrcpy tools.
// All calls are single-shot; none of them stream status back.
//
//go:generate mockgen -destination=mocks/commander_mock.go -package=mocks github.com/genricoloni/mirrorctl/internal/domain Commander,Thumbnailer
type Commander interface {
	// ListDevices returns every device adb currently knows about, in adb order
	ListDevices(ctx context.Context) ([]Device, error)

	// ConnectWireless attaches a device over TCP/IP
	ConnectWireless(ctx context.Context, ip, port string) (string, error)

	// DisconnectDevice detaches a wireless device
	DisconnectDevice(ctx context.Context, deviceID string) (string, error)

	// StartMirroring launches the mirroring process, replacing any running one.
	// It returns the session number that a later MirroringExit will carry.
	StartMirroring(ctx context.Context, cfg MirroringConfig) (uint64, string, error)

	// StopMirroring terminates the mirroring process if one is running
	StopMirroring(ctx context.Context) (string, error)

	// TakeScreenshot captures the device screen into a local file and returns its path
	TakeScreenshot(ctx context.Context, deviceID, savePath string) (string, error)

	// Exits emits when the mirroring process ends without being stopped
	Exits() <-chan MirroringExit
}

// Persister stores the durable subset of the session
type Persister interface {
	// Load decodes the saved record into state.
	// It returns false if nothing was saved yet, leaving state untouched.
	Load(ctx context.Context, state *PersistedState) (bool, error)

	// Save replaces the saved record
	Save(ctx context.Context, state PersistedState) error
}

// LocaleStore keeps the display language preference
type LocaleStore interface {
	Locale(ctx context.Context) (string, error)
	SetLocale(ctx context.Context, locale string) error
}

// Thumbnailer produces preview images for captured screenshots
type Thumbnailer interface {
	// Generate writes a thumbnail next to imagePath and returns the thumbnail path
	Generate(ctx context.Context, imagePath string) (string, error)
}

// Config defines the interface for application configuration
type Config interface {
	GetDataDir() string
	GetListenAddr() string
	GetDefaultLocale() string
}
