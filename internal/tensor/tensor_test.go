package tensor

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	src := New(4, 3, 3)
	for i := range src.Data {
		src.Data[i] = float32(i) / float32(len(src.Data))
	}

	var buf bytes.Buffer
	if _, err := src.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	if !src.Equal(got) {
		t.Errorf("round-tripped tensor differs: shape %v vs %v", src.Shape(), got.Shape())
	}
}

func TestReadCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated header", []byte{0x42, 0x54}},
		{"bad magic", bytes.Repeat([]byte{0xff}, 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("Read() error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestReadTruncatedData(t *testing.T) {
	src := New(8, 8, 3)
	var buf bytes.Buffer
	if _, err := src.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error: %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()/2]
	if _, err := Read(bytes.NewReader(truncated)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Read() on truncated data = %v, want ErrCorrupt", err)
	}
}

func TestReadShapeMismatch(t *testing.T) {
	src := New(2, 2, 3)
	var buf bytes.Buffer
	if _, err := src.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error: %v", err)
	}

	// Corrupt the element count field (bytes 20..23).
	data := buf.Bytes()
	data[20] = 0xff

	if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Read() with mismatched shape = %v, want ErrCorrupt", err)
	}
}

func TestAtSet(t *testing.T) {
	tr := New(2, 3, 3)
	tr.Set(1, 2, 0, 0.5)

	if got := tr.At(1, 2, 0); got != 0.5 {
		t.Errorf("At(1,2,0) = %v, want 0.5", got)
	}
	if got := tr.At(0, 0, 0); got != 0 {
		t.Errorf("At(0,0,0) = %v, want 0", got)
	}
}
