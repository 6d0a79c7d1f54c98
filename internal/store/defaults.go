package store

import "github.com/genricoloni/mirrorctl/internal/domain"

// DefaultConfig returns the built-in mirroring configuration
func DefaultConfig() domain.MirroringConfig {
	return domain.MirroringConfig{
		DeviceID:      "",
		MaxSize:       1920,
		MaxFPS:        60,
		Bitrate:       "8M",
		VideoCodec:    domain.CodecH264,
		AudioEnabled:  true,
		ShowTouches:   false,
		StayAwake:     true,
		Fullscreen:    false,
		Borderless:    false,
		AlwaysOnTop:   false,
		TurnScreenOff: false,
	}
}

// DefaultProfiles returns the profiles shipped with a fresh install
func DefaultProfiles() []domain.Profile {
	gaming := DefaultConfig()
	gaming.MaxFPS = 120
	gaming.Bitrate = "16M"
	gaming.VideoCodec = domain.CodecH265

	streaming := DefaultConfig()
	streaming.MaxSize = 1080
	streaming.MaxFPS = 30
	streaming.Bitrate = "4M"

	recording := DefaultConfig()
	recording.Bitrate = "12M"
	recording.VideoCodec = domain.CodecH265

	return []domain.Profile{
		{ID: "gaming", Name: "Gaming", Icon: "gamepad-2", Config: gaming},
		{ID: "streaming", Name: "Streaming", Icon: "monitor-play", Config: streaming},
		{ID: "recording", Name: "Recording", Icon: "video", Config: recording},
	}
}
