// Package sextractor runs Source Extractor as an external process.
package sextractor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/yyyoichi/completeness/internal/logging"
)

// Runner invokes the detector binary once per image.
type Runner struct {
	// Binary defaults to "sex".
	Binary string
	// Config is the parameter file passed with -c.
	Config string
	Logger *slog.Logger
}

// Args builds the command line for one image.
func (r *Runner) Args(image, catalog, check string) []string {
	args := []string{image}
	if r.Config != "" {
		args = append(args, "-c", r.Config)
	}
	return append(args, "-catalog_name", catalog, "-checkimage_name", check)
}

// Detect runs the detector on image and blocks until catalog is written.
// The process is killed when ctx is done.
func (r *Runner) Detect(ctx context.Context, image, catalog, check string) error {
	bin := r.Binary
	if bin == "" {
		bin = "sex"
	}
	logger := logging.Discard(r.Logger)

	cmd := exec.CommandContext(ctx, bin, r.Args(image, catalog, check)...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	logger.Debug("starting detector", "cmd", strings.Join(cmd.Args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", bin, err)
	}

	// stderr must be drained before Wait closes the pipe
	var tail lastLines
	logStderr(stderr, logger.With("image", image), &tail)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s on %s: %w: %s", bin, image, err, tail.String())
	}
	return nil
}

// logStderr forwards detector progress output to the logger.
func logStderr(r io.Reader, logger *slog.Logger, tail *lastLines) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tail.add(line)
		switch {
		case strings.Contains(line, "ERROR"):
			logger.Error("detector", "line", line)
		case strings.Contains(line, "WARNING"):
			logger.Warn("detector", "line", line)
		default:
			logger.Debug("detector", "line", line)
		}
	}
}

// lastLines keeps the last few stderr lines for error reports.
type lastLines struct {
	lines []string
}

func (l *lastLines) add(s string) {
	const keep = 3
	l.lines = append(l.lines, s)
	if len(l.lines) > keep {
		l.lines = l.lines[len(l.lines)-keep:]
	}
}

func (l *lastLines) String() string { return strings.Join(l.lines, " | ") }
