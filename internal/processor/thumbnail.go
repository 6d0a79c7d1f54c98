package processor

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG format support
	_ "image/png"  // PNG format support
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	defaultThumbnailSize = 320
	defaultJPEGQuality   = 85
	thumbnailSuffix      = ".thumb.jpg"
)

// ThumbnailConfig holds configuration for thumbnail generation
type ThumbnailConfig struct {
	MaxWidth  int
	MaxHeight int
	Quality   int // JPEG quality (1-100)
}

// ThumbnailProcessor shrinks screenshots into small JPEG previews
type ThumbnailProcessor struct {
	logger *zap.Logger
	config ThumbnailConfig
}

// NewThumbnailProcessor creates a processor with the default 320x320 bound
func NewThumbnailProcessor(logger *zap.Logger) *ThumbnailProcessor {
	return &ThumbnailProcessor{
		logger: logger,
		config: ThumbnailConfig{
			MaxWidth:  defaultThumbnailSize,
			MaxHeight: defaultThumbnailSize,
			Quality:   defaultJPEGQuality,
		},
	}
}

// ThumbnailPath returns where the thumbnail of imagePath is written
func ThumbnailPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + thumbnailSuffix
}

// Process fits a decoded image inside the configured bounds, keeping the aspect ratio.
// Images already small enough are returned unscaled.
func (p *ThumbnailProcessor) Process(ctx context.Context, img image.Image) (image.Image, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	p.logger.Debug("Fitting thumbnail",
		zap.Int("src_w", bounds.Dx()), zap.Int("src_h", bounds.Dy()),
		zap.Int("max_w", p.config.MaxWidth), zap.Int("max_h", p.config.MaxHeight))

	return imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos), nil
}

// Generate writes a JPEG thumbnail next to imagePath and returns its path.
// This method satisfies the domain.Thumbnailer interface.
func (p *ThumbnailProcessor) Generate(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// 1. Decode the screenshot (orientation tags are honoured for camera-style JPEGs)
	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// 2. Scale it down
	thumb, err := p.Process(ctx, img)
	if err != nil {
		return "", fmt.Errorf("failed to process image: %w", err)
	}

	// 3. Encode next to the source
	outputPath := ThumbnailPath(imagePath)
	if err := imaging.Save(thumb, outputPath, imaging.JPEGQuality(p.config.Quality)); err != nil {
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}

	info, statErr := os.Stat(outputPath)
	size := int64(0)
	if statErr == nil {
		size = info.Size()
	}
	p.logger.Info("Thumbnail generated",
		zap.String("source", imagePath),
		zap.String("path", outputPath),
		zap.Int64("size", size))

	return outputPath, nil
}
