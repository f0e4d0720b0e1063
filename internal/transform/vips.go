package transform

import (
	"bytes"
	"fmt"
	"sync"

	"photoflow/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library. It should be called once at
// startup; decode falls back to the pure-Go path when it is skipped.
func InitVips(logger logging.Logger) error {
	logger = logging.Or(logger)

	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Route vips messages through the injected logger, suppressing the
	// chatty informational domains unless debug is on.
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logger.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logger.Warn("[%s] %s", domain, msg)
		default:
			logger.Debug("[%s] %s", domain, msg)
		}
	}, vips.LogLevelWarning)

	// Conservative memory settings: one image at a time, small cache.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logger.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources.
func ShutdownVips(logger logging.Logger) {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Or(logger).Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// decodeShrunkWithVips decodes image bytes with libvips, shrinking
// during decode so the longer edge does not exceed maxEdge. This is far
// more memory efficient than a full decode followed by a resize.
func decodeShrunkWithVips(data []byte, maxEdge int) (imageResult, error) {
	if !vipsAvailable {
		return imageResult{}, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromBuffer(data, vips.NewImportParams())
	if err != nil {
		return imageResult{}, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	origWidth := ref.Width()
	origHeight := ref.Height()

	if origWidth > maxEdge || origHeight > maxEdge {
		targetWidth, targetHeight := maxEdge, maxEdge
		if origWidth >= origHeight {
			targetHeight = origHeight * maxEdge / origWidth
		} else {
			targetWidth = origWidth * maxEdge / origHeight
		}
		if err := ref.Thumbnail(targetWidth, targetHeight, vips.InterestingNone); err != nil {
			return imageResult{}, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		StripMetadata:  false,
		OptimizeCoding: true,
	})
	if err != nil {
		return imageResult{}, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes), imaging.AutoOrientation(true))
	if err != nil {
		return imageResult{}, fmt.Errorf("failed to decode vips output: %w", err)
	}

	return imageResult{img: img, origWidth: origWidth, origHeight: origHeight}, nil
}
