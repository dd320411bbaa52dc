package field

import (
	"image/color"
	"math"
)

// https://github.com/opencv/opencv/blob/0e88b49a53842f0f7cdc4c61b98c283be7e5057c/modules/imgproc/src/opencl/color_yuv.cl#L148-L234

const (
	yr = 0.299
	yg = 0.587
	yb = 0.114
)

// luminance returns the Y component on the 16-bit scale.
func luminance(c color.Color) float64 {
	switch g := c.(type) {
	case color.Gray16:
		return float64(g.Y)
	case color.Gray:
		return float64(g.Y) * 257
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return math.NaN()
	}
	// un-premultiply so partially masked pixels keep their brightness
	fr := float64(r) * 0xffff / float64(a)
	fg := float64(g) * 0xffff / float64(a)
	fb := float64(b) * 0xffff / float64(a)
	return yr*fr + yg*fg + yb*fb
}
