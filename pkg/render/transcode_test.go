package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/latex2image/pkg/errors"
	"github.com/matzehuels/latex2image/pkg/latex"
)

const testSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="40pt" height="20pt" viewBox="0 0 40 20">
<path d="M2 2h36v16h-36z" fill="#000"/>
</svg>
`

// fakeRasterizer returns a PNG that is transparent except for one black
// pixel in the centre.
type fakeRasterizer struct {
	w, h   int
	raw    []byte
	err    error
	gotDPI float64
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, svg []byte, dpi float64) ([]byte, error) {
	f.gotDPI = dpi
	if f.err != nil {
		return nil, f.err
	}
	if f.raw != nil {
		return f.raw, nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.w, f.h))
	if f.w > 0 && f.h > 0 {
		img.Set(f.w/2, f.h/2, color.Black)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setup(t *testing.T) (svgPath, outDir string) {
	t.Helper()
	dir := t.TempDir()
	svgPath = filepath.Join(dir, latex.SVGFile)
	if err := os.WriteFile(svgPath, []byte(testSVG), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir = filepath.Join(dir, "output")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return svgPath, outDir
}

func TestTranscodeSVGCopiesBytes(t *testing.T) {
	svgPath, outDir := setup(t)
	out := filepath.Join(outDir, "img.svg")

	r := &fakeRasterizer{err: fmt.Errorf("must not rasterize SVG")}
	if err := NewTranscoder(r).Transcode(context.Background(), svgPath, out, latex.FormatSVG); err != nil {
		t.Fatalf("Transcode() error = %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != testSVG {
		t.Errorf("SVG output differs from input:\n%s", got)
	}
}

func TestTranscodePNGKeepsTransparency(t *testing.T) {
	svgPath, outDir := setup(t)
	out := filepath.Join(outDir, "img.png")

	r := &fakeRasterizer{w: 10, h: 6}
	if err := NewTranscoder(r).Transcode(context.Background(), svgPath, out, latex.FormatPNG); err != nil {
		t.Fatalf("Transcode() error = %v", err)
	}
	if r.gotDPI != DefaultDPI {
		t.Errorf("rasterized at %v DPI, want %v", r.gotDPI, DefaultDPI)
	}

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("output is not an image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 6 {
		t.Errorf("size = %dx%d, want 10x6", b.Dx(), b.Dy())
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Errorf("corner alpha = %d, want transparent", a)
	}
}

func TestTranscodeJPGFlattensOntoWhite(t *testing.T) {
	svgPath, outDir := setup(t)
	out := filepath.Join(outDir, "img.jpg")

	if err := NewTranscoder(&fakeRasterizer{w: 16, h: 16}).Transcode(context.Background(), svgPath, out, latex.FormatJPG); err != nil {
		t.Fatalf("Transcode() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Fatal("output is not a JPEG")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if a != 0xffff {
		t.Errorf("corner alpha = %d, want opaque", a)
	}
	if r>>8 < 245 || g>>8 < 245 || b>>8 < 245 {
		t.Errorf("corner = (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestTranscodeFailures(t *testing.T) {
	tests := []struct {
		name   string
		r      *fakeRasterizer
		format latex.Format
	}{
		{"rasterizer error", &fakeRasterizer{err: fmt.Errorf("rsvg-convert: exit status 1")}, latex.FormatPNG},
		{"not a png", &fakeRasterizer{raw: []byte("garbage")}, latex.FormatPNG},
		{"empty image", &fakeRasterizer{w: 0, h: 0}, latex.FormatJPG},
		{"unknown format", &fakeRasterizer{w: 2, h: 2}, latex.Format("GIF")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svgPath, outDir := setup(t)
			out := filepath.Join(outDir, "img.out")

			err := NewTranscoder(tt.r).Transcode(context.Background(), svgPath, out, tt.format)
			if !errors.Is(err, errors.ErrCodeTranscode) {
				t.Fatalf("Transcode() error = %v, want TRANSCODE_ERROR", err)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Error("failed transcode left an output file")
			}
			entries, _ := os.ReadDir(outDir)
			if len(entries) != 0 {
				t.Errorf("output dir not clean: %v", entries)
			}
		})
	}
}

func TestTranscodeMissingSVG(t *testing.T) {
	dir := t.TempDir()
	err := NewTranscoder(&fakeRasterizer{w: 1, h: 1}).Transcode(context.Background(),
		filepath.Join(dir, "missing.svg"), filepath.Join(dir, "img.png"), latex.FormatPNG)
	if !errors.Is(err, errors.ErrCodeTranscode) {
		t.Errorf("Transcode() error = %v, want TRANSCODE_ERROR", err)
	}
}

func TestRSVGRasterize(t *testing.T) {
	r := RSVG{}
	if err := r.Check(); err != nil {
		t.Skip(err)
	}

	raw, err := r.Rasterize(context.Background(), []byte(testSVG), DefaultDPI)
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("output is not an image: %v", err)
	}
	if img.Bounds().Empty() {
		t.Error("rasterized image is empty")
	}
}

func TestRSVGMissingBinary(t *testing.T) {
	r := RSVG{Binary: "latex2image-no-such-rsvg"}
	if err := r.Check(); err == nil {
		t.Error("Check() should fail for missing binary")
	}
	if _, err := r.Rasterize(context.Background(), []byte(testSVG), DefaultDPI); err == nil {
		t.Error("Rasterize() should fail for missing binary")
	}
}

func TestRSVGRejectsInvalidSVG(t *testing.T) {
	if _, err := exec.LookPath(DefaultRSVGBinary); err != nil {
		t.Skip("rsvg-convert not installed")
	}
	if _, err := (RSVG{}).Rasterize(context.Background(), []byte("<not-svg"), DefaultDPI); err == nil {
		t.Error("Rasterize() should fail for invalid SVG")
	}
}
