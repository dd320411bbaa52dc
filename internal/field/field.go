// Package field holds the two-dimensional pixel arrays that sources are
// rendered onto.
package field

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/yyyoichi/completeness/internal/fits"
)

// Field is a real-valued image. Row y, column x holds the pixel at (x, y).
// Non-finite pixels mark invalid detector regions.
type Field struct {
	Header fits.Header

	width, height int
	data          *mat.Dense
}

// New wraps row-major pixel data. data is not copied.
func New(width, height int, data []float64) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid field size %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("field %dx%d needs %d pixels, got %d", width, height, width*height, len(data))
	}
	return &Field{
		width:  width,
		height: height,
		data:   mat.NewDense(height, width, data),
	}, nil
}

// Filled returns a width x height field with every pixel set to v.
func Filled(width, height int, v float64) (*Field, error) {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = v
	}
	return New(width, height, data)
}

func FromFITS(img *fits.Image) (*Field, error) {
	f, err := New(img.Width, img.Height, img.Data)
	if err != nil {
		return nil, err
	}
	f.Header = img.Header
	return f, nil
}

// FromImage converts a raster image to a luminance field. Fully transparent
// pixels become NaN.
func FromImage(src image.Image) (*Field, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float64, w*h)
	idx := 0
	for y := range h {
		for x := range w {
			data[idx] = luminance(src.At(b.Min.X+x, b.Min.Y+y))
			idx++
		}
	}
	return New(w, h, data)
}

func (f *Field) Width() int  { return f.width }
func (f *Field) Height() int { return f.height }

// MinDim is the smaller of width and height.
func (f *Field) MinDim() int { return min(f.width, f.height) }

func (f *Field) At(x, y int) float64 { return f.data.At(y, x) }

// Finite reports whether the pixel at (x, y) holds a usable value.
func (f *Field) Finite(x, y int) bool {
	v := f.data.At(y, x)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Pixels exposes the row-major backing slice. Writes are visible in f.
func (f *Field) Pixels() []float64 {
	return f.data.RawMatrix().Data
}

// Sum adds up every finite pixel.
func (f *Field) Sum() float64 {
	px := f.Pixels()
	finite := make([]float64, 0, len(px))
	for _, v := range px {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	return floats.Sum(finite)
}

// Copy returns an independent field with a cloned header.
func (f *Field) Copy() *Field {
	return &Field{
		Header: f.Header.Clone(),
		width:  f.width,
		height: f.height,
		data:   mat.DenseCopyOf(f.data),
	}
}

// Image returns the field as a FITS primary HDU.
func (f *Field) Image() *fits.Image {
	return &fits.Image{
		Header: f.Header,
		Width:  f.width,
		Height: f.height,
		Data:   f.Pixels(),
	}
}
