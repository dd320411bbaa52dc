// Package truth holds the ground-truth record of injected sources and its
// tabular form.
package truth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Source is one injected synthetic galaxy. It is never modified after the
// injector creates it.
type Source struct {
	// Index is 1-based within the batch.
	Index      int
	X, Y       float64
	Flux       float64
	Magnitude  float64
	SizeArcsec float64
	SizePx     float64
	FWHM       float64
}

var Columns = []string{"index", "x", "y", "flux", "magnitude", "size_arcsec", "size_px", "fwhm_px"}

// legacy column names written by earlier insertion runs
var aliases = map[string]string{
	"galaxy #":    "index",
	"x value":     "x",
	"y value":     "y",
	"flux (e-/s)": "flux",
	"magnitudes":  "magnitude",
	"size (as)":   "size_arcsec",
	"size (px)":   "size_px",
	"FWHM (px)":   "fwhm_px",
}

var ErrMissingColumn = errors.New("truth table is missing a column")

type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("truth table: missing column %q", e.Column)
}

func (e *SchemaError) Unwrap() error { return ErrMissingColumn }

func WriteCSV(w io.Writer, sources []Source) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, s := range sources {
		if err := cw.Write([]string{
			strconv.Itoa(s.Index),
			formatFloat(s.X),
			formatFloat(s.Y),
			formatFloat(s.Flux),
			formatFloat(s.Magnitude),
			formatFloat(s.SizeArcsec),
			formatFloat(s.SizePx),
			formatFloat(s.FWHM),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a truth table. Columns are located by name; an unnamed
// leading index column is ignored.
func ReadCSV(r io.Reader) ([]Source, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &SchemaError{Column: Columns[0]}
		}
		return nil, fmt.Errorf("truth table header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		pos[name] = i
	}
	for _, c := range Columns {
		if _, ok := pos[c]; !ok {
			return nil, &SchemaError{Column: c}
		}
	}

	var sources []Source
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("truth table line %d: %w", line, err)
		}
		var (
			s    Source
			vals [7]float64
		)
		idx, err := strconv.ParseFloat(strings.TrimSpace(rec[pos["index"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("truth table line %d: index: %w", line, err)
		}
		s.Index = int(idx)
		for i, c := range Columns[1:] {
			if vals[i], err = strconv.ParseFloat(strings.TrimSpace(rec[pos[c]]), 64); err != nil {
				return nil, fmt.Errorf("truth table line %d: %s: %w", line, c, err)
			}
		}
		s.X, s.Y, s.Flux, s.Magnitude, s.SizeArcsec, s.SizePx, s.FWHM =
			vals[0], vals[1], vals[2], vals[3], vals[4], vals[5], vals[6]
		sources = append(sources, s)
	}
	return sources, nil
}

func WriteFile(path string, sources []Source) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, sources); err != nil {
		f.Close()
		return fmt.Errorf("failed to write truth table %s: %w", path, err)
	}
	return f.Close()
}

func ReadFile(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open truth table: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
