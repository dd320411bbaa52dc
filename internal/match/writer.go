package match

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var Columns = []string{"detection_id", "x", "y", "distance", "fwhm", "mag_auto", "flux_radius", "fwhm_out_of_range", "matches"}

// WriteCSV writes the match table of one source. Detection fields are left
// empty when there is no candidate.
func WriteCSV(w io.Writer, rec Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	row := make([]string, len(Columns))
	if c := rec.Candidate; c != nil {
		row[0] = strconv.Itoa(c.ID)
		row[1] = formatFloat(c.X)
		row[2] = formatFloat(c.Y)
		row[3] = formatFloat(rec.Distance)
		row[4] = formatFloat(c.FWHM)
		row[5] = formatFloat(c.MagAuto)
		row[6] = formatFloat(c.FluxRadius)
		row[7] = strconv.FormatBool(rec.OutOfRange)
	}
	row[8] = strconv.Itoa(rec.Matches)
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the match table name of the source with the given index.
func FileName(index int) string {
	return fmt.Sprintf("galaxy%d_matches.csv", index)
}

// WriteFiles writes one match table per record into dir.
func WriteFiles(dir string, records []Record) error {
	for _, rec := range records {
		path := filepath.Join(dir, FileName(rec.Source.Index))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WriteCSV(f, rec); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
