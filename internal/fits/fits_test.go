package fits

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	var hdr Header
	hdr.Set("OBJECT", "NGC 4889", "target")
	hdr.Set("EXPTIME", 1200.0, "seconds")
	hdr.Set("BITPIX", 16, "")
	img := &Image{
		Header: hdr,
		Width:  3,
		Height: 2,
		Data:   []float64{1.5, math.NaN(), -2, 0, 1e10, math.Inf(1)},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img))
	assert.Zero(t, buf.Len()%2880)

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, -64, got.Bitpix)
	assert.Equal(t, 3, got.Width)
	assert.Equal(t, 2, got.Height)
	require.Len(t, got.Data, 6)
	assert.Equal(t, 1.5, got.Data[0])
	assert.True(t, math.IsNaN(got.Data[1]))
	assert.Equal(t, 1e10, got.Data[4])
	assert.True(t, math.IsInf(got.Data[5], 1))

	obj, ok := got.Header.String("OBJECT")
	assert.True(t, ok)
	assert.Equal(t, "NGC 4889", obj)
	exp, err := got.Header.Float("EXPTIME")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, exp)
	assert.False(t, got.Header.Has("BITPIX"))
}

// encode writes a primary image HDU with fitsio, bypassing Write.
func encode(t *testing.T, bitpix int, axes []int, cards []fitsio.Card, data any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	f, err := fitsio.Create(&buf)
	require.NoError(t, err)
	hdu := fitsio.NewImage(bitpix, axes)
	defer hdu.Close()
	require.NoError(t, hdu.Header().Append(cards...))
	require.NoError(t, hdu.Write(data))
	require.NoError(t, f.Write(hdu))
	require.NoError(t, f.Close())
	return &buf
}

func TestReadScaledInt16(t *testing.T) {
	buf := encode(t, 16, []int{2, 2}, []fitsio.Card{
		{Name: "BZERO", Value: 32768},
		{Name: "BSCALE", Value: 1},
		{Name: "BLANK", Value: -1},
	}, []int16{-32768, 0, -1, 100})

	img, err := Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bitpix)
	assert.Equal(t, 0.0, img.Data[0])
	assert.Equal(t, 32768.0, img.Data[1])
	assert.True(t, math.IsNaN(img.Data[2]))
	assert.Equal(t, 32868.0, img.Data[3])
	assert.False(t, img.Header.Has("BZERO"))
}

func TestReadBitpix(t *testing.T) {
	test := []struct {
		name   string
		bitpix int
		data   any
		want   []float64
	}{
		{"uint8", 8, []uint8{0, 1, 254, 255}, []float64{0, 1, 254, 255}},
		{"int32", 32, []int32{-7, 0, 7, 1 << 20}, []float64{-7, 0, 7, 1 << 20}},
		{"int64", 64, []int64{-1, 0, 1, 1 << 40}, []float64{-1, 0, 1, 1 << 40}},
		{"float32", -32, []float32{0.5, -0.25, 3, 1e6}, []float64{0.5, -0.25, 3, 1e6}},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Read(encode(t, tt.bitpix, []int{2, 2}, nil, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.bitpix, img.Bitpix)
			assert.Equal(t, tt.want, img.Data)
		})
	}
}

func TestReadErrors(t *testing.T) {
	card := func(s string) string { return fmt.Sprintf("%-80s", s) }
	notSimple := card("SIMPLE  =                    F") + card("END")
	notSimple += strings.Repeat(" ", 2880-len(notSimple))

	test := []struct {
		name string
		in   func(t *testing.T) *bytes.Buffer
		want error
	}{
		{"empty", func(*testing.T) *bytes.Buffer { return new(bytes.Buffer) }, ErrNotFITS},
		{"short", func(*testing.T) *bytes.Buffer { return bytes.NewBufferString("SIMPLE  =                    T") }, ErrNotFITS},
		{"not simple", func(*testing.T) *bytes.Buffer { return bytes.NewBufferString(notSimple) }, ErrNotFITS},
		{"cube", func(t *testing.T) *bytes.Buffer {
			return encode(t, -64, []int{2, 2, 2}, nil, make([]float64, 8))
		}, ErrUnsupported},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.in(t))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWriteInvalid(t *testing.T) {
	test := []struct {
		name string
		img  *Image
	}{
		{"empty", &Image{}},
		{"short data", &Image{Width: 2, Height: 2, Data: []float64{1, 2, 3}}},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.ErrorIs(t, Write(&buf, tt.img), ErrUnsupported)
		})
	}
}
