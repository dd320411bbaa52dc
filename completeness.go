package completeness

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yyyoichi/completeness/internal/catalog"
	"github.com/yyyoichi/completeness/internal/field"
	"github.com/yyyoichi/completeness/internal/inject"
	"github.com/yyyoichi/completeness/internal/match"
	"github.com/yyyoichi/completeness/internal/profile"
	"github.com/yyyoichi/completeness/internal/truth"
)

type (
	// Field is a real-valued image; non-finite pixels are masked.
	Field = field.Field
	// Source is one injected galaxy as written to the truth table.
	Source = truth.Source
	// Detection is one row of a detector catalog.
	Detection = catalog.Detection
	// Record is the match outcome of one Source.
	Record = match.Record
)

var (
	ErrNoFinitePixels = inject.ErrNoFinitePixels
	ErrInvalidSize    = profile.ErrInvalidSize
	// ErrMissingColumn is returned by ReadCatalog when a required
	// detector column is absent.
	ErrMissingColumn = catalog.ErrMissingColumn
	// ErrMissingTruthColumn is returned by ReadTruth when a truth table
	// column is absent.
	ErrMissingTruthColumn = truth.ErrMissingColumn
	ErrInvalidOption      = errors.New("invalid option")
)

// DefaultSeed seeds the batch sub-streams when WithSeed is not given.
const DefaultSeed = 1234

// Inject renders one batch with the specified options.
// This is a convenience function that creates an Injector and calls its InjectBatch method.
func Inject(ctx context.Context, base *Field, batchIndex int, sizeArcsec, magnitude float64, opts ...Option) (*Field, []Source, error) {
	in, err := New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return in.InjectBatch(ctx, base, batchIndex, sizeArcsec, magnitude)
}

// Injector renders batches of synthetic galaxies.
type Injector struct {
	cal  profile.Calibration
	seed uint64
}

// New initializes an injector.
// The calibration constants and the seed can be optionally specified.
// For default values, refer to the init function.
func New(opts ...Option) (*Injector, error) {
	in := new(Injector)
	if err := in.init(opts...); err != nil {
		return nil, err
	}
	return in, nil
}

// InjectBatch renders three galaxies of one size and magnitude onto a copy
// of base and returns the image with its truth sources.
//
// Process:
//  1. Derives the random sub-stream of batchIndex from the seed.
//  2. Draws integer positions until the base pixel is finite.
//  3. Adds an exponential disk at each position; sources accumulate.
//
// Returns ErrNoFinitePixels if no pixel of base is finite. The same seed,
// base and batchIndex always give the same result.
func (in *Injector) InjectBatch(ctx context.Context, base *Field, batchIndex int, sizeArcsec, magnitude float64) (*Field, []Source, error) {
	if err := inject.CheckFinite(base); err != nil {
		return nil, nil, err
	}
	return inject.New(in.cal).Inject(ctx, base, inject.Stream(in.seed, batchIndex), sizeArcsec, magnitude)
}

// Match pairs each source with its best detection in an image whose smaller
// side is imgSize pixels. Every source yields exactly one Record.
func Match(sources []Source, detections []Detection, imgSize int) []Record {
	return match.Match(sources, detections, imgSize)
}

// NewField returns a width x height field over row-major data.
// data is not copied.
func NewField(width, height int, data []float64) (*Field, error) {
	return field.New(width, height, data)
}

// LoadField reads a FITS, TIFF or PNG base image.
func LoadField(path string) (*Field, error) {
	return field.Load(path)
}

// ReadCatalog parses a whitespace-separated detector catalog.
func ReadCatalog(r io.Reader) ([]Detection, error) {
	return catalog.Read(r)
}

// ReadTruth parses a truth table written by WriteTruth.
func ReadTruth(r io.Reader) ([]Source, error) {
	return truth.ReadCSV(r)
}

func WriteTruth(w io.Writer, sources []Source) error {
	return truth.WriteCSV(w, sources)
}

func (in *Injector) init(opts ...Option) error {
	in.cal = profile.DefaultCalibration()
	in.seed = DefaultSeed
	for _, opt := range opts {
		if err := opt(in); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
	}
	return nil
}
