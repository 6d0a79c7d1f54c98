package domain

import "errors"

var (
	// ErrNoDeviceSelected is returned by commands that need a target device
	ErrNoDeviceSelected = errors.New("no device selected")
	// ErrBusy is returned when a session command is already in flight
	ErrBusy = errors.New("another mirroring command is in progress")
	// ErrProfileNotFound is returned when applying an unknown profile
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidLocale is returned for unsupported display languages
	ErrInvalidLocale = errors.New("unsupported locale")
	// ErrAddressRequired is returned when a wireless connect has no IP address
	ErrAddressRequired = errors.New("ip address is required")
	// ErrProfileNameRequired is returned when saving a profile without a name
	ErrProfileNameRequired = errors.New("profile name is required")
	// ErrPathNotAllowed is returned for capture paths outside the data directory
	ErrPathNotAllowed = errors.New("path is outside the data directory")
	// ErrDeviceMismatch is returned when a config patch names a device other than the selection
	ErrDeviceMismatch = errors.New("device_id must match the selected device")
)
