package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"photoflow/internal/tensor"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// DefaultFullSize is the size suffix used when requesting the largest
// available rendition of an item with unknown original dimensions.
const DefaultFullSize = 2048

// Decode decodes downloaded image bytes, honoring EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	return img, nil
}

// Apply transforms img according to the policy. PolicyOriginal returns
// the image unchanged. Apply is pure: it never fails and never touches
// shared state, so repeated calls with the same inputs are bit-identical.
func Apply(img image.Image, policy Policy, targetSize int) image.Image {
	switch policy {
	case PolicyScale:
		return scaleToSize(img, targetSize)
	case PolicyCrop:
		return imaging.Fill(img, targetSize, targetSize, imaging.Center, imaging.Lanczos)
	case PolicyFill:
		return fillToSize(img, targetSize)
	default:
		return img
	}
}

// scaleToSize resizes preserving aspect ratio so the longer edge equals
// targetSize. Unlike imaging.Fit this also upscales smaller sources.
func scaleToSize(img image.Image, targetSize int) image.Image {
	b := img.Bounds()
	if b.Dx() >= b.Dy() {
		return imaging.Resize(img, targetSize, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, targetSize, imaging.Lanczos)
}

// fillToSize letterboxes the scaled image onto a black square canvas.
func fillToSize(img image.Image, targetSize int) image.Image {
	scaled := scaleToSize(img, targetSize)
	canvas := imaging.New(targetSize, targetSize, color.NRGBA{0, 0, 0, 255})
	return imaging.PasteCenter(canvas, scaled)
}

// ToTensor converts a decoded image into a normalized float32 buffer in
// [0, 1]. Three-channel output is the standard path; grayscale sources
// keep a single channel.
func ToTensor(img image.Image) *tensor.Tensor {
	if gray, ok := img.(*image.Gray); ok {
		return grayToTensor(gray)
	}

	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	t := tensor.New(b.Dy(), b.Dx(), 3)

	i := 0
	for y := 0; y < b.Dy(); y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			t.Data[i] = float32(row[x*4]) / 255.0
			t.Data[i+1] = float32(row[x*4+1]) / 255.0
			t.Data[i+2] = float32(row[x*4+2]) / 255.0
			i += 3
		}
	}
	return t
}

func grayToTensor(img *image.Gray) *tensor.Tensor {
	b := img.Bounds()
	t := tensor.New(b.Dy(), b.Dx(), 1)

	i := 0
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
		for x := 0; x < b.Dx(); x++ {
			t.Data[i] = float32(row[x]) / 255.0
			i++
		}
	}
	return t
}

// SizedURL appends the rendition size parameters expected by the remote
// content host to an item's ephemeral base URL. For PolicyOriginal the
// declared original dimensions are used when known, and the
// full-resolution marker otherwise. All other policies request the
// target size directly so the host shrinks before transfer.
func SizedURL(baseURL string, policy Policy, targetSize, originalWidth, originalHeight int) string {
	if policy == PolicyOriginal {
		if originalWidth > 0 && originalHeight > 0 {
			return fmt.Sprintf("%s=w%d-h%d", baseURL, originalWidth, originalHeight)
		}
		return baseURL + "=d"
	}
	return fmt.Sprintf("%s=w%d-h%d", baseURL, targetSize, targetSize)
}

// LargestURL requests the largest useful rendition of an item: the
// declared original size when known, a large default otherwise.
func LargestURL(baseURL string, originalSize int) string {
	if originalSize > 0 {
		return fmt.Sprintf("%s=w%d-h%d", baseURL, originalSize, originalSize)
	}
	return fmt.Sprintf("%s=w%d-h%d", baseURL, DefaultFullSize, DefaultFullSize)
}
