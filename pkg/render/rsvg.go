package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultRSVGBinary is the librsvg command-line converter.
const DefaultRSVGBinary = "rsvg-convert"

// Rasterizer converts SVG bytes into PNG bytes at the given density.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte, dpi float64) ([]byte, error)
}

// RSVG rasterizes with rsvg-convert.
type RSVG struct {
	Binary string // defaults to DefaultRSVGBinary
}

func (r RSVG) binary() string {
	if r.Binary == "" {
		return DefaultRSVGBinary
	}
	return r.Binary
}

// Rasterize implements Rasterizer.
func (r RSVG) Rasterize(ctx context.Context, svg []byte, dpi float64) ([]byte, error) {
	d := strconv.FormatFloat(dpi, 'f', -1, 64)
	return rsvgConvert(ctx, r.binary(), svg, "png", "-d", d, "-p", d)
}

// Check reports whether the converter is installed.
func (r RSVG) Check() error {
	if _, err := exec.LookPath(r.binary()); err != nil {
		return fmt.Errorf("%s not found: install librsvg", r.binary())
	}
	return nil
}

func rsvgConvert(ctx context.Context, bin string, svg []byte, format string, extra ...string) ([]byte, error) {
	args := append([]string{"-f", format}, extra...)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", bin, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", bin, err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output", bin)
	}
	return stdout.Bytes(), nil
}

var _ Rasterizer = RSVG{}
