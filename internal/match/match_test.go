package match

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yyyoichi/completeness/internal/catalog"
	"github.com/yyyoichi/completeness/internal/truth"
)

func source(x, y float64) truth.Source {
	return truth.Source{Index: 1, X: x, Y: y, SizePx: 4, FWHM: 8}
}

func TestRadius(t *testing.T) {
	assert.Equal(t, 29.0, Radius(source(0, 0), 100))
	assert.Equal(t, 29.0, Radius(truth.Source{SizePx: 3.5}, 100))
	assert.Equal(t, 28.0, Radius(truth.Source{SizePx: 3.4}, 100))
	// halves round to even
	assert.Equal(t, 27.0, Radius(truth.Source{SizePx: 2.5}, 100))
	assert.Equal(t, 25.25+15, Radius(truth.Source{SizePx: 15.38}, 101))
}

func TestMatch(t *testing.T) {
	const imgSize = 100
	test := []struct {
		name         string
		detections   []catalog.Detection
		wantID       int // 0 means no candidate
		wantMatches  int
		wantOut      bool
		wantDistance float64
	}{
		{
			name:         "in range",
			detections:   []catalog.Detection{{ID: 7, X: 55, Y: 52, FWHM: 10}},
			wantID:       7,
			wantMatches:  1,
			wantDistance: math.Sqrt(29),
		},
		{
			name:         "too narrow is still recorded",
			detections:   []catalog.Detection{{ID: 7, X: 55, Y: 52, FWHM: 3}},
			wantID:       7,
			wantOut:      true,
			wantDistance: math.Sqrt(29),
		},
		{
			name:         "lower bound is exclusive",
			detections:   []catalog.Detection{{ID: 2, X: 50, Y: 50, FWHM: 4}},
			wantID:       2,
			wantOut:      true,
			wantDistance: 0,
		},
		{
			name:         "upper bound is inclusive",
			detections:   []catalog.Detection{{ID: 3, X: 50, Y: 51, FWHM: 25}},
			wantID:       3,
			wantMatches:  1,
			wantDistance: 1,
		},
		{
			name:         "above upper bound",
			detections:   []catalog.Detection{{ID: 3, X: 50, Y: 51, FWHM: 25.0001}},
			wantID:       3,
			wantOut:      true,
			wantDistance: 1,
		},
		{
			name:       "radius is exclusive",
			detections: []catalog.Detection{{ID: 4, X: 79, Y: 50, FWHM: 10}},
		},
		{
			name:         "just inside radius",
			detections:   []catalog.Detection{{ID: 4, X: 78.9, Y: 50, FWHM: 10}},
			wantID:       4,
			wantMatches:  1,
			wantDistance: 28.9,
		},
		{
			name: "largest fwhm beats nearest",
			detections: []catalog.Detection{
				{ID: 1, X: 50, Y: 50, FWHM: 5},
				{ID: 2, X: 60, Y: 50, FWHM: 12},
				{ID: 3, X: 200, Y: 200, FWHM: 20},
			},
			wantID:       2,
			wantMatches:  1,
			wantDistance: 10,
		},
		{
			name: "largest fwhm may be out of range",
			detections: []catalog.Detection{
				{ID: 1, X: 51, Y: 50, FWHM: 12},
				{ID: 2, X: 52, Y: 50, FWHM: 40},
			},
			wantID:       2,
			wantOut:      true,
			wantDistance: 2,
		},
		{
			name: "unknown fwhm is skipped",
			detections: []catalog.Detection{
				{ID: 1, X: 51, Y: 50, FWHM: math.NaN()},
				{ID: 2, X: 53, Y: 50, FWHM: 10},
			},
			wantID:       2,
			wantMatches:  1,
			wantDistance: 3,
		},
		{
			name:       "only unknown fwhm",
			detections: []catalog.Detection{{ID: 1, X: 51, Y: 50, FWHM: math.NaN()}},
		},
		{
			name:       "empty catalog",
			detections: nil,
		},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			got := Match([]truth.Source{source(50, 50)}, tt.detections, imgSize)
			require.Len(t, got, 1)
			rec := got[0]
			assert.Equal(t, 1, rec.Source.Index)
			assert.Equal(t, tt.wantMatches, rec.Matches)
			assert.Equal(t, tt.wantOut, rec.OutOfRange)
			if tt.wantID == 0 {
				assert.Nil(t, rec.Candidate)
				assert.False(t, rec.Recovered())
				return
			}
			require.NotNil(t, rec.Candidate)
			assert.Equal(t, tt.wantID, rec.Candidate.ID)
			assert.InDelta(t, tt.wantDistance, rec.Distance, 1e-12)
			assert.Less(t, rec.Distance, Radius(rec.Source, imgSize))
		})
	}
}

func TestMatchTies(t *testing.T) {
	detections := []catalog.Detection{
		{ID: 1, X: 40, Y: 50, FWHM: 9},
		{ID: 2, X: 60, Y: 50, FWHM: 9},
		{ID: 3, X: 50, Y: 45, FWHM: 6},
	}
	got := Match([]truth.Source{source(50, 50)}, detections, 100)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Candidate)
	assert.Equal(t, 9.0, got[0].Candidate.FWHM)
	assert.Equal(t, 1, got[0].Matches)
}

func TestMatchSharedDetection(t *testing.T) {
	sources := []truth.Source{
		{Index: 1, X: 10, Y: 10, SizePx: 2, FWHM: 4},
		{Index: 2, X: 14, Y: 10, SizePx: 2, FWHM: 4},
		{Index: 3, X: 90, Y: 90, SizePx: 2, FWHM: 4},
	}
	detections := []catalog.Detection{{ID: 5, X: 12, Y: 10, FWHM: 6}}

	got := Match(sources, detections, 100)
	require.Len(t, got, len(sources))
	for i, rec := range got[:2] {
		assert.Equal(t, sources[i], rec.Source)
		require.NotNil(t, rec.Candidate)
		assert.Equal(t, 5, rec.Candidate.ID)
		assert.Equal(t, 1, rec.Matches)
	}
	assert.Nil(t, got[2].Candidate)
	assert.Equal(t, 0, got[2].Matches)
}

func TestWriteCSV(t *testing.T) {
	t.Run("candidate", func(t *testing.T) {
		rec := Record{
			Source:     source(50, 50),
			Candidate:  &catalog.Detection{ID: 7, X: 55, Y: 52, FWHM: 3, FluxRadius: 1.5, MagAuto: -7.25},
			Distance:   2.5,
			OutOfRange: true,
		}
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, rec))
		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			Columns,
			{"7", "55", "52", "2.5", "3", "-7.25", "1.5", "true", "0"},
		}, rows)
	})

	t.Run("no candidate", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, Record{Source: source(1, 1)}))
		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, []string{"", "", "", "", "", "", "", "", "0"}, rows[1])
	})

	t.Run("files", func(t *testing.T) {
		dir := t.TempDir()
		recs := Match([]truth.Source{
			{Index: 1, X: 1, Y: 1, SizePx: 1, FWHM: 2},
			{Index: 2, X: 9, Y: 9, SizePx: 1, FWHM: 2},
		}, nil, 20)
		require.NoError(t, WriteFiles(dir, recs))
		for _, name := range []string{"galaxy1_matches.csv", "galaxy2_matches.csv"} {
			_, err := os.Stat(filepath.Join(dir, name))
			assert.NoError(t, err)
		}
	})
}
