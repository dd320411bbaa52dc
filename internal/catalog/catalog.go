// Package catalog reads the tabular output of the external source
// detector into typed records.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Column names the detector must emit, verbatim.
const (
	ColNumber     = "NUMBER"
	ColX          = "X_IMAGE"
	ColY          = "Y_IMAGE"
	ColFWHM       = "FWHM_IMAGE"
	ColFluxRadius = "FLUX_RADIUS"
	ColMagAuto    = "MAG_AUTO"
)

var required = []string{ColNumber, ColX, ColY, ColFWHM, ColFluxRadius, ColMagAuto}

// Detection is one object found by the detector.
type Detection struct {
	ID         int
	X, Y       float64
	FWHM       float64
	FluxRadius float64
	MagAuto    float64
}

var ErrMissingColumn = errors.New("catalog is missing a column")

type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("catalog: missing column %s", e.Column)
}

func (e *SchemaError) Unwrap() error { return ErrMissingColumn }

// Read parses a detector catalog. Two layouts are accepted:
//
//	#   1 NUMBER   Running object number
//	#   2 X_IMAGE  Object position along x   [pixel]
//	...
//
// where the number is the 1-based column and vector-valued parameters span
// up to the next declared column, or a single header row of column names,
// optionally prefixed by '#'. Only the first element of a vector column is
// used.
func Read(r io.Reader) ([]Detection, error) {
	var (
		cols      = map[string]int{}
		haveNames bool
		out       []Detection
		sc        = bufio.NewScanner(r)
		lineNo    int
	)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			fields := strings.Fields(strings.TrimPrefix(line, "#"))
			if len(fields) == 0 {
				continue
			}
			if n, err := strconv.Atoi(fields[0]); err == nil && len(fields) > 1 {
				cols[fields[1]] = n - 1
				continue
			}
			// free-text comments may precede the name row
			if len(cols) == 0 && !haveNames && slices.Contains(fields, ColNumber) {
				for i, name := range fields {
					cols[name] = i
				}
				haveNames = true
			}
			continue
		}

		fields := strings.Fields(line)
		if len(cols) == 0 {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				for i, name := range fields {
					cols[name] = i
				}
				haveNames = true
				continue
			}
		}
		if len(out) == 0 {
			if err := checkSchema(cols); err != nil {
				return nil, err
			}
		}
		d, err := parseRow(fields, cols)
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: %w", lineNo, err)
		}
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(out) == 0 {
		if err := checkSchema(cols); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func ReadFile(path string) ([]Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	out, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func checkSchema(cols map[string]int) error {
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return &SchemaError{Column: c}
		}
	}
	return nil
}

func parseRow(fields []string, cols map[string]int) (Detection, error) {
	get := func(name string) (float64, error) {
		i := cols[name]
		if i >= len(fields) {
			return 0, fmt.Errorf("%s: row has %d columns", name, len(fields))
		}
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}
	var (
		d   Detection
		err error
		id  float64
	)
	if id, err = get(ColNumber); err != nil {
		return d, err
	}
	d.ID = int(id)
	if d.X, err = get(ColX); err != nil {
		return d, err
	}
	if d.Y, err = get(ColY); err != nil {
		return d, err
	}
	if d.FWHM, err = get(ColFWHM); err != nil {
		return d, err
	}
	if d.FluxRadius, err = get(ColFluxRadius); err != nil {
		return d, err
	}
	if d.MagAuto, err = get(ColMagAuto); err != nil {
		return d, err
	}
	return d, nil
}
