package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/hweber/particletrack/internal/domain"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestProcessShapeAndRange(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		srcW  int
		srcH  int
	}{
		{"grayscale 25x25 from larger", Shape{Width: 25, Height: 25, Channels: 1}, 100, 80},
		{"grayscale 25x25 from smaller", Shape{Width: 25, Height: 25, Channels: 1}, 7, 5},
		{"rgb 32x32", Shape{Width: 32, Height: 32, Channels: 3}, 64, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.shape)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			img := image.NewNRGBA(image.Rect(0, 0, tt.srcW, tt.srcH))
			for y := 0; y < tt.srcH; y++ {
				for x := 0; x < tt.srcW; x++ {
					img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 5), B: uint8(x + y), A: 255})
				}
			}

			tensor, err := p.Process(encodePNG(t, img))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tensor) != tt.shape.Elements() {
				t.Fatalf("tensor length %d, want %d", len(tensor), tt.shape.Elements())
			}
			for i, v := range tensor {
				if v < 0 || v > 1 {
					t.Fatalf("tensor[%d] = %v outside [0,1]", i, v)
				}
			}
		})
	}
}

// Pins the channels-last RGB layout. A 2x1 image with a red then a green
// pixel must produce [r g b r g b] with red first: any channel-order or
// axis-order swap moves the 1.0 values.
func TestProcessGoldenRGBLayout(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})

	p, err := New(Shape{Width: 2, Height: 1, Channels: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tensor, err := p.Process(encodePNG(t, img))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float32{1, 0, 0, 0, 1, 0}
	const eps = 0.02
	for i := range want {
		if math.Abs(float64(tensor[i]-want[i])) > eps {
			t.Errorf("tensor[%d] = %v, want %v", i, tensor[i], want[i])
		}
	}
}

// Pins the BT.601 luminance reduction for single-channel models.
func TestProcessGoldenLuminance(t *testing.T) {
	tests := []struct {
		name string
		c    color.NRGBA
		want float32
	}{
		{"pure red", color.NRGBA{R: 255, A: 255}, 0.299},
		{"pure green", color.NRGBA{G: 255, A: 255}, 0.587},
		{"pure blue", color.NRGBA{B: 255, A: 255}, 0.114},
		{"white", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, 1.0},
	}

	p, err := New(Shape{Width: 1, Height: 1, Channels: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const eps = 0.02
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := p.Process(encodePNG(t, solidImage(1, 1, tt.c)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tensor) != 1 {
				t.Fatalf("tensor length %d, want 1", len(tensor))
			}
			if math.Abs(float64(tensor[0]-tt.want)) > eps {
				t.Errorf("luminance = %v, want %v", tensor[0], tt.want)
			}
		})
	}
}

func TestProcessDeterministic(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x * y), A: 255})
		}
	}
	data := encodePNG(t, img)

	p, err := New(Shape{Width: 25, Height: 25, Channels: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := p.Process(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for run := 0; run < 3; run++ {
		again, err := p.Process(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d: tensor[%d] differs: %v vs %v", run, i, first[i], again[i])
			}
		}
	}
}

func TestProcessDecodeError(t *testing.T) {
	p, err := New(Shape{Width: 25, Height: 25, Channels: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tensor, err := p.Process([]byte("not an image at all"))
	if !errors.Is(err, domain.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if tensor != nil {
		t.Error("expected no partial tensor on decode failure")
	}
}

func TestNewRejectsBadShapes(t *testing.T) {
	if _, err := New(Shape{Width: 0, Height: 25, Channels: 1}); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := New(Shape{Width: 25, Height: 25, Channels: 2}); err == nil {
		t.Error("expected error for unsupported channel count")
	}
}
