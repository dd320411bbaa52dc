// Package fits reads and writes the primary HDU of a FITS file.
//
// Only two-dimensional images are supported. Pixel data is always returned
// as float64 with BZERO/BSCALE applied; integer BLANK values become NaN.
package fits

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/astrogo/fitsio"
)

var (
	ErrNotFITS     = errors.New("not a FITS file")
	ErrUnsupported = errors.New("unsupported FITS layout")
)

// Image is a decoded primary HDU.
type Image struct {
	Header Header
	// Bitpix is the sample type the pixels were stored with.
	Bitpix int
	Width  int
	Height int
	// Data is row-major, Data[y*Width+x].
	Data []float64
}

// Read decodes the primary HDU from r.
func Read(r io.Reader) (*Image, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFITS, err)
	}
	defer f.Close()
	if len(f.HDUs()) == 0 {
		return nil, ErrNotFITS
	}

	hdu := f.HDU(0)
	all := cards(hdu.Header())
	if simple, _ := all.Value("SIMPLE"); simple != true {
		return nil, ErrNotFITS
	}
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%w: primary HDU is not an image", ErrUnsupported)
	}
	axes := hdu.Header().Axes()
	if len(axes) != 2 {
		return nil, fmt.Errorf("%w: NAXIS = %d", ErrUnsupported, len(axes))
	}
	w, h := axes[0], axes[1]
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrUnsupported, w, h)
	}

	bitpix := hdu.Header().Bitpix()
	s, err := newScaling(all, bitpix)
	if err != nil {
		return nil, err
	}
	data, err := readPixels(img, bitpix, w*h, s)
	if err != nil {
		return nil, err
	}

	var hdr Header
	for _, c := range all.cards {
		if !structural(c.Name) {
			hdr.cards = append(hdr.cards, c)
		}
	}
	return &Image{Header: hdr, Bitpix: bitpix, Width: w, Height: h, Data: data}, nil
}

// Write encodes img as a float64 (BITPIX = -64) primary HDU. Cards of
// img.Header are kept in order; a repeated keyword keeps its first value
// unless it is COMMENT or HISTORY.
func Write(w io.Writer, img *Image) error {
	if img.Width <= 0 || img.Height <= 0 || len(img.Data) != img.Width*img.Height {
		return fmt.Errorf("%w: %dx%d image with %d pixels", ErrUnsupported, img.Width, img.Height, len(img.Data))
	}
	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}

	hdu := fitsio.NewImage(-64, []int{img.Width, img.Height})
	defer hdu.Close()

	var (
		out  []fitsio.Card
		seen = map[string]bool{}
	)
	for _, c := range img.Header.cards {
		if structural(c.Name) {
			continue
		}
		switch c.Name {
		case "COMMENT", "HISTORY":
		default:
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
		}
		out = append(out, c)
	}
	if err := hdu.Header().Append(out...); err != nil {
		return fmt.Errorf("failed to copy header: %w", err)
	}
	if err := hdu.Write(img.Data); err != nil {
		return fmt.Errorf("failed to encode pixels: %w", err)
	}
	if err := f.Write(hdu); err != nil {
		return err
	}
	return f.Close()
}

func cards(hdr *fitsio.Header) Header {
	var h Header
	for i := range hdr.Keys() {
		h.cards = append(h.cards, *hdr.Card(i))
	}
	return h
}

// scaling maps stored integers to physical values.
type scaling struct {
	zero, scale float64
	blank       int64
	hasBlank    bool
}

func newScaling(hdr Header, bitpix int) (scaling, error) {
	s := scaling{scale: 1}
	var err error
	if hdr.Has("BZERO") {
		if s.zero, err = hdr.Float("BZERO"); err != nil {
			return s, err
		}
	}
	if hdr.Has("BSCALE") {
		if s.scale, err = hdr.Float("BSCALE"); err != nil {
			return s, err
		}
	}
	if hdr.Has("BLANK") && bitpix > 0 {
		b, err := hdr.Float("BLANK")
		if err != nil {
			return s, err
		}
		s.blank, s.hasBlank = int64(b), true
	}
	return s, nil
}

func (s scaling) int(v int64) float64 {
	if s.hasBlank && v == s.blank {
		return math.NaN()
	}
	return s.zero + s.scale*float64(v)
}

func (s scaling) float(v float64) float64 {
	return s.zero + s.scale*v
}

// readPixels reads the stored samples with the Go type matching bitpix;
// fitsio does not convert between sample types.
func readPixels(img fitsio.Image, bitpix, n int, s scaling) ([]float64, error) {
	out := make([]float64, n)
	var err error
	switch bitpix {
	case 8:
		px := make([]uint8, n)
		if err = img.Read(&px); err == nil {
			for i, v := range px {
				out[i] = s.int(int64(v))
			}
		}
	case 16:
		px := make([]int16, n)
		if err = img.Read(&px); err == nil {
			for i, v := range px {
				out[i] = s.int(int64(v))
			}
		}
	case 32:
		px := make([]int32, n)
		if err = img.Read(&px); err == nil {
			for i, v := range px {
				out[i] = s.int(int64(v))
			}
		}
	case 64:
		px := make([]int64, n)
		if err = img.Read(&px); err == nil {
			for i, v := range px {
				out[i] = s.int(v)
			}
		}
	case -32:
		px := make([]float32, n)
		if err = img.Read(&px); err == nil {
			for i, v := range px {
				out[i] = s.float(float64(v))
			}
		}
	case -64:
		px := make([]float64, n)
		if err = img.Read(&px); err == nil {
			for i, v := range px {
				out[i] = s.float(v)
			}
		}
	default:
		return nil, fmt.Errorf("%w: BITPIX = %d", ErrUnsupported, bitpix)
	}
	if err != nil {
		return nil, fmt.Errorf("read pixel data: %w", err)
	}
	return out, nil
}

func structural(key string) bool {
	switch key {
	case "SIMPLE", "XTENSION", "BITPIX", "NAXIS", "NAXIS1", "NAXIS2", "EXTEND",
		"PCOUNT", "GCOUNT", "BZERO", "BSCALE", "BLANK", "END", "":
		return true
	}
	return false
}
