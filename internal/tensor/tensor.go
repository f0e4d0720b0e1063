// Package tensor defines the normalized image buffer produced by the
// transform engine and its on-disk serialization format.
//
// A Tensor is rank 4: batch (always 1), height, width, channel. Pixel
// values are float32 in [0, 1]. The binary format is versioned so that
// incompatible cache entries from older releases read back as corrupt
// and degrade to a cache miss.
package tensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Format magic and version for serialized tensors.
const (
	magic   = uint32(0x50465442) // "PFTB"
	version = uint32(1)
)

// maxElems caps deserialization so a corrupt header cannot trigger an
// enormous allocation.
const maxElems = 1 << 28

// ErrCorrupt is returned when serialized data does not describe a valid
// tensor.
var ErrCorrupt = errors.New("tensor: corrupt or incompatible data")

// Tensor is a rank-4 image buffer in NHWC layout with batch size 1.
type Tensor struct {
	Height   int
	Width    int
	Channels int
	Data     []float32
}

// New allocates a zero tensor of the given geometry.
func New(height, width, channels int) *Tensor {
	return &Tensor{
		Height:   height,
		Width:    width,
		Channels: channels,
		Data:     make([]float32, height*width*channels),
	}
}

// Shape returns the NHWC shape.
func (t *Tensor) Shape() [4]int {
	return [4]int{1, t.Height, t.Width, t.Channels}
}

// At returns the value at (y, x, c).
func (t *Tensor) At(y, x, c int) float32 {
	return t.Data[(y*t.Width+x)*t.Channels+c]
}

// Set stores v at (y, x, c).
func (t *Tensor) Set(y, x, c int, v float32) {
	t.Data[(y*t.Width+x)*t.Channels+c] = v
}

// Equal reports whether two tensors have identical shape and contents.
func (t *Tensor) Equal(other *Tensor) bool {
	if other == nil || t.Height != other.Height || t.Width != other.Width || t.Channels != other.Channels {
		return false
	}
	for i, v := range t.Data {
		if v != other.Data[i] {
			return false
		}
	}
	return true
}

// WriteTo serializes the tensor in the versioned binary format.
func (t *Tensor) WriteTo(w io.Writer) (int64, error) {
	header := [6]uint32{
		magic,
		version,
		uint32(t.Height),
		uint32(t.Width),
		uint32(t.Channels),
		uint32(len(t.Data)),
	}

	var n int64
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return n, err
		}
		n += 4
	}

	buf := make([]byte, 4*len(t.Data))
	for i, v := range t.Data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	written, err := w.Write(buf)
	return n + int64(written), err
}

// Read deserializes a tensor previously written with WriteTo. Any
// malformed input returns ErrCorrupt rather than a partial tensor.
func Read(r io.Reader) (*Tensor, error) {
	var header [6]uint32
	for i := range header {
		if err := binary.Read(r, binary.LittleEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("%w: short header: %v", ErrCorrupt, err)
		}
	}

	if header[0] != magic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrCorrupt, header[0])
	}
	if header[1] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, header[1])
	}

	height, width, channels := int(header[2]), int(header[3]), int(header[4])
	elems := int(header[5])
	if elems > maxElems || elems != height*width*channels {
		return nil, fmt.Errorf("%w: shape %dx%dx%d does not match %d elements",
			ErrCorrupt, height, width, channels, elems)
	}

	buf := make([]byte, 4*elems)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: short data: %v", ErrCorrupt, err)
	}

	t := &Tensor{Height: height, Width: width, Channels: channels, Data: make([]float32, elems)}
	for i := range t.Data {
		t.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return t, nil
}
