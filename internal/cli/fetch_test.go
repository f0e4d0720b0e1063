package cli

import (
	"os"
	"path/filepath"
	"testing"

	"photoflow/internal/tensor"
	"photoflow/internal/transform"
)

func TestParseDateFlag(t *testing.T) {
	tests := []struct {
		in               string
		year, month, day int
		wantErr          bool
	}{
		{in: "2023-06-15", year: 2023, month: 6, day: 15},
		{in: "2023-06", year: 2023, month: 6},
		{in: "2023", year: 2023},
		{in: "15-06-2023", wantErr: true},
		{in: "yesterday", wantErr: true},
		{in: "2023-13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			year, month, day, err := parseDateFlag(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseDateFlag(%q) accepted invalid input", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDateFlag(%q) error: %v", tt.in, err)
			}
			if year != tt.year || month != tt.month || day != tt.day {
				t.Errorf("parseDateFlag(%q) = %d/%d/%d, want %d/%d/%d",
					tt.in, year, month, day, tt.year, tt.month, tt.day)
			}
		})
	}
}

func TestWriteTensors(t *testing.T) {
	dir := t.TempDir()

	a := tensor.New(2, 3, 3)
	b := tensor.New(4, 4, 1)
	if err := writeTensors(dir, transform.PolicyScale, 8, []*tensor.Tensor{a, b}); err != nil {
		t.Fatalf("writeTensors() error: %v", err)
	}

	for i, want := range []*tensor.Tensor{a, b} {
		path := filepath.Join(dir, []string{"0000.ten", "0001.ten"}[i])
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("opening %s: %v", path, err)
		}
		got, err := tensor.Read(f)
		f.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		if !got.Equal(want) {
			t.Errorf("tensor %d round-trip mismatch", i)
		}
	}
}

func TestWriteTensorsEmptyBatchYieldsZeroTensor(t *testing.T) {
	dir := t.TempDir()

	if err := writeTensors(dir, transform.PolicyScale, 32, nil); err != nil {
		t.Fatalf("writeTensors() error: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "0000.ten"))
	if err != nil {
		t.Fatalf("default tensor missing: %v", err)
	}
	defer f.Close()

	got, err := tensor.Read(f)
	if err != nil {
		t.Fatalf("reading default tensor: %v", err)
	}
	if got.Height != 32 || got.Width != 32 || got.Channels != 3 {
		t.Errorf("default tensor shape = %v", got.Shape())
	}
	for _, v := range got.Data {
		if v != 0 {
			t.Fatal("default tensor is not all zeros")
		}
	}
}

func TestWriteTensorsEmptyBatchWithOriginalPolicy(t *testing.T) {
	dir := t.TempDir()

	if err := writeTensors(dir, transform.PolicyOriginal, 0, nil); err != nil {
		t.Fatalf("writeTensors() error: %v", err)
	}
	f, err := os.Open(filepath.Join(dir, "0000.ten"))
	if err != nil {
		t.Fatalf("default tensor missing: %v", err)
	}
	defer f.Close()
	if _, err := tensor.Read(f); err != nil {
		t.Errorf("default tensor unreadable: %v", err)
	}
}
