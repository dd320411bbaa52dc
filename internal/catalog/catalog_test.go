package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asciiHead = `#   1 NUMBER                 Running object number
#   2 X_IMAGE                Object position along x                                    [pixel]
#   3 Y_IMAGE                Object position along y                                    [pixel]
#   4 FLUX_RADIUS            Fraction-of-light radii                                    [pixel]
#   7 FWHM_IMAGE             FWHM assuming a gaussian core                              [pixel]
#   8 MAG_AUTO               Kron-like elliptical aperture magnitude                    [mag]
         1    155.221     20.402      2.871      5.100      7.700      4.310  -8.1234
         2   1024.500    880.125     12.500     20.000     30.000     29.900 -11.0500
`

func TestRead(t *testing.T) {
	t.Run("ascii head with vector column", func(t *testing.T) {
		got, err := Read(strings.NewReader(asciiHead))
		require.NoError(t, err)
		assert.Equal(t, []Detection{
			{ID: 1, X: 155.221, Y: 20.402, FWHM: 4.31, FluxRadius: 2.871, MagAuto: -8.1234},
			{ID: 2, X: 1024.5, Y: 880.125, FWHM: 29.9, FluxRadius: 12.5, MagAuto: -11.05},
		}, got)
	})

	t.Run("named header row", func(t *testing.T) {
		in := "MAG_AUTO NUMBER X_IMAGE Y_IMAGE FWHM_IMAGE FLUX_RADIUS\n-9.5 3 10 11 6.5 3.25\n"
		got, err := Read(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, Detection{ID: 3, X: 10, Y: 11, FWHM: 6.5, FluxRadius: 3.25, MagAuto: -9.5}, got[0])
	})

	t.Run("commented header row", func(t *testing.T) {
		in := "# NUMBER X_IMAGE Y_IMAGE FWHM_IMAGE FLUX_RADIUS MAG_AUTO\n\n1 2 3 4 5 6\n"
		got, err := Read(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 4.0, got[0].FWHM)
	})

	t.Run("comment before commented header row", func(t *testing.T) {
		in := "# catalog written by detector\n# NUMBER X_IMAGE Y_IMAGE FWHM_IMAGE FLUX_RADIUS MAG_AUTO\n1 10 10 5 2 -8\n"
		got, err := Read(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, []Detection{{ID: 1, X: 10, Y: 10, FWHM: 5, FluxRadius: 2, MagAuto: -8}}, got)
	})

	t.Run("header only", func(t *testing.T) {
		head := strings.Join(strings.Split(asciiHead, "\n")[:6], "\n")
		got, err := Read(strings.NewReader(head))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestReadErrors(t *testing.T) {
	test := []struct {
		name       string
		in         string
		wantColumn string
	}{
		{"empty", "", ColNumber},
		{"no mag auto", "#   1 NUMBER\n#   2 X_IMAGE\n#   3 Y_IMAGE\n#   4 FWHM_IMAGE\n#   5 FLUX_RADIUS\n1 2 3 4 5\n", ColMagAuto},
		{"no header", "1 2 3 4 5 6\n", ColNumber},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrMissingColumn)
			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantColumn, se.Column)
		})
	}

	t.Run("short row", func(t *testing.T) {
		head := strings.Join(strings.Split(asciiHead, "\n")[:6], "\n")
		_, err := Read(strings.NewReader(head + "\n1 2 3\n"))
		assert.ErrorContains(t, err, "line 7")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(t.TempDir(), "output_cold_x.cat"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
