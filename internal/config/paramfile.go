package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// paramKeys are the values of a legacy parameter file in line order.
var paramKeys = []string{
	"output dir", "image",
	"start size", "end size", "size step",
	"start magnitude", "end magnitude", "magnitude step",
	"detector parameters",
}

// LoadParamFile reads the plain-text parameter file of earlier runs: two
// header lines, then one value per line taken from the last
// whitespace-separated token.
func LoadParamFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	defer f.Close()

	var (
		values []string
		sc     = bufio.NewScanner(f)
		line   int
	)
	for sc.Scan() {
		line++
		if line <= 2 {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		values = append(values, fields[len(fields)-1])
		if len(values) == len(paramKeys) {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	if len(values) < len(paramKeys) {
		return nil, fmt.Errorf("%w: parameter file has no %s", ErrInvalid, paramKeys[len(values)])
	}

	nums := make([]float64, 6)
	for i := range nums {
		v, err := strconv.ParseFloat(values[i+2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, paramKeys[i+2], err)
		}
		nums[i] = v
	}
	cfg := &Config{
		OutputDir: values[0],
		Image:     values[1],
		Size:      Range{Start: nums[0], End: nums[1], Step: nums[2]},
		Magnitude: Range{Start: nums[3], End: nums[4], Step: nums[5]},
		Detector:  DetectorConfig{Config: values[8]},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
