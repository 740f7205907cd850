package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/latex2image/pkg/errors"
	"github.com/matzehuels/latex2image/pkg/latex"
)

// Raster defaults.
const (
	DefaultDPI         = 96
	DefaultJPEGQuality = 95
)

// Transcoder converts a compiled SVG into the requested output format.
type Transcoder struct {
	Rasterizer  Rasterizer
	DPI         float64
	JPEGQuality int
	Background  color.Color // fill behind transparent pixels for opaque formats
}

// NewTranscoder returns a Transcoder with the default density, quality and a
// white background.
func NewTranscoder(r Rasterizer) *Transcoder {
	return &Transcoder{
		Rasterizer:  r,
		DPI:         DefaultDPI,
		JPEGQuality: DefaultJPEGQuality,
		Background:  color.White,
	}
}

// Transcode reads svgPath and writes outPath in format f. Any failure is
// reported as TRANSCODE_ERROR and leaves no file at outPath.
func (t *Transcoder) Transcode(ctx context.Context, svgPath, outPath string, f latex.Format) error {
	svg, err := os.ReadFile(svgPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTranscode, err, "read compiled image")
	}

	data, err := t.encode(ctx, svg, f)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTranscode, err, "transcode to %s", f)
	}

	if err := writeAtomic(outPath, data); err != nil {
		return errors.Wrap(errors.ErrCodeTranscode, err, "write %s", filepath.Base(outPath))
	}
	return nil
}

func (t *Transcoder) encode(ctx context.Context, svg []byte, f latex.Format) ([]byte, error) {
	switch f {
	case latex.FormatSVG:
		return svg, nil
	case latex.FormatPNG:
		return t.rasterize(ctx, svg)
	case latex.FormatJPG:
		raw, err := t.rasterize(ctx, svg)
		if err != nil {
			return nil, err
		}
		return t.flattenJPEG(raw)
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
}

// rasterize returns PNG bytes and rejects images without area.
func (t *Transcoder) rasterize(ctx context.Context, svg []byte) ([]byte, error) {
	if t.Rasterizer == nil {
		return nil, fmt.Errorf("no rasterizer configured")
	}
	dpi := t.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	raw, err := t.Rasterizer.Rasterize(ctx, svg, dpi)
	if err != nil {
		return nil, err
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("rasterizer output: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("rasterized image is empty (%dx%d)", cfg.Width, cfg.Height)
	}
	return raw, nil
}

// flattenJPEG composites a PNG onto the background and encodes it as JPEG.
func (t *Transcoder) flattenJPEG(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}

	bg := t.Background
	if bg == nil {
		bg = color.White
	}
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	flat := imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	q := t.JPEGQuality
	if q <= 0 || q > 100 {
		q = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
