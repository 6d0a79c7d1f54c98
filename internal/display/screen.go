package display

import (
	"github.com/genricoloni/mirrorctl/internal/domain"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

const (
	fallbackWidth  = 1920
	fallbackHeight = 1080
)

// overridable in tests
var (
	numDisplays   = screenshot.NumActiveDisplays
	displayBounds = screenshot.GetDisplayBounds
)

// NewScreenResolution reads the primary host display once at startup.
// The shell offers its longest side as the "native" max-size preset.
func NewScreenResolution(logger *zap.Logger) *domain.ScreenResolution {
	n := numDisplays()
	if n <= 0 {
		logger.Warn("Host display not found, native preset uses fallback size",
			zap.Int("width", fallbackWidth),
			zap.Int("height", fallbackHeight))
		return nativePreset(fallbackWidth, fallbackHeight, false)
	}

	bounds := displayBounds(0)
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		logger.Warn("Host display reported no size, native preset uses fallback size",
			zap.Int("displays", n),
			zap.Stringer("bounds", bounds))
		return nativePreset(fallbackWidth, fallbackHeight, false)
	}

	res := nativePreset(bounds.Dx(), bounds.Dy(), true)
	logger.Info("Native mirroring preset ready",
		zap.Int("displays", n),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
		zap.Int("max_size", res.NativeMaxSize))
	return res
}

func nativePreset(width, height int, detected bool) *domain.ScreenResolution {
	return &domain.ScreenResolution{
		Width:         width,
		Height:        height,
		NativeMaxSize: max(width, height),
		Detected:      detected,
	}
}
