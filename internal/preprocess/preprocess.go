// Package preprocess turns arbitrary raster images into the fixed-shape
// normalized tensors the deployed model expects.
//
// The tensor contract is part of the model deployment, not a convention:
// channels-last row-major layout ([height][width][channel]), RGB channel
// order, every sample divided by 255 into [0,1]. Resizing uses a fixed
// bilinear kernel so identical inputs always produce identical tensors.
// Grayscale models (channels == 1) reduce RGB with the ITU-R BT.601 weights
// 0.299R + 0.587G + 0.114B; alpha is dropped.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/hweber/particletrack/internal/domain"
)

// Shape is the model input geometry.
type Shape struct {
	Width    int
	Height   int
	Channels int
}

// Elements returns the tensor length Height*Width*Channels.
func (s Shape) Elements() int {
	return s.Height * s.Width * s.Channels
}

// Preprocessor converts image bytes into model input tensors of one fixed shape.
type Preprocessor struct {
	shape Shape
}

// New returns a preprocessor for the given input shape.
func New(shape Shape) (*Preprocessor, error) {
	if shape.Width <= 0 || shape.Height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", shape.Width, shape.Height)
	}
	if shape.Channels != 1 && shape.Channels != 3 {
		return nil, fmt.Errorf("unsupported channel count %d", shape.Channels)
	}
	return &Preprocessor{shape: shape}, nil
}

// Shape returns the output tensor geometry.
func (p *Preprocessor) Shape() Shape {
	return p.shape
}

// Process decodes, resizes and normalizes one image. The returned tensor has
// exactly Shape().Elements() values, each in [0,1]. Undecodable input fails
// with an error wrapping domain.ErrDecode and produces no partial tensor.
func (p *Preprocessor) Process(data []byte) ([]float32, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, p.shape.Width, p.shape.Height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]float32, p.shape.Elements())
	i := 0
	for y := 0; y < p.shape.Height; y++ {
		for x := 0; x < p.shape.Width; x++ {
			c := dst.RGBAAt(x, y)
			if p.shape.Channels == 1 {
				lum := 0.299*float32(c.R) + 0.587*float32(c.G) + 0.114*float32(c.B)
				out[i] = lum / 255.0
				i++
				continue
			}
			out[i] = float32(c.R) / 255.0
			out[i+1] = float32(c.G) / 255.0
			out[i+2] = float32(c.B) / 255.0
			i += 3
		}
	}

	return out, nil
}
