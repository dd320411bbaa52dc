package field

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"

	"github.com/yyyoichi/completeness/internal/fits"
)

// Load reads a base image. FITS files keep their header; TIFF and PNG
// rasters are converted to luminance.
func Load(path string) (*Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		img, err := fits.Read(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return FromFITS(img)
	default:
		img, _, err := image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return FromImage(img)
	}
}

// WriteFITS stores the field as a float64 FITS image.
func (f *Field) WriteFITS(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fits.Write(file, f.Image()); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
