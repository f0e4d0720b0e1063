package transform

import (
	"image"

	"photoflow/internal/logging"
)

// MaxDecodeEdge is the longest edge kept when decoding for a non-original
// policy. The remote host usually shrinks before transfer because the
// download URL carries size parameters, but a source that ignores them
// would otherwise decode at full resolution.
const MaxDecodeEdge = 4096

// imageResult carries a decoded image together with its pre-shrink
// dimensions.
type imageResult struct {
	img        image.Image
	origWidth  int
	origHeight int
}

// DecodeConstrained decodes image bytes for a resizing policy, capping
// the longer edge at MaxDecodeEdge. When libvips is initialized the
// shrink happens during decode; otherwise the image is fully decoded
// and downscaled afterwards.
func DecodeConstrained(data []byte, logger logging.Logger) (image.Image, error) {
	logger = logging.Or(logger)

	if IsVipsAvailable() {
		res, err := decodeShrunkWithVips(data, MaxDecodeEdge)
		if err == nil {
			logger.Debug("vips decode: %dx%d source shrunk to %dx%d",
				res.origWidth, res.origHeight, res.img.Bounds().Dx(), res.img.Bounds().Dy())
			return res.img, nil
		}
		logger.Debug("vips decode failed, falling back to pure Go: %v", err)
	}

	img, err := Decode(data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() > MaxDecodeEdge || b.Dy() > MaxDecodeEdge {
		logger.Info("constraining large image from %dx%d to max edge %d", b.Dx(), b.Dy(), MaxDecodeEdge)
		img = scaleToSize(img, MaxDecodeEdge)
	}
	return img, nil
}
