// Package render turns a compiled SVG equation into the image format the
// caller asked for.
//
// # Overview
//
// A [Transcoder] reads the SVG that dvisvgm left in the workspace and writes
// the final artifact:
//
//   - SVG: the bytes are copied unchanged
//   - PNG: rasterized at a fixed density (96 DPI by default), transparency kept
//   - JPG: rasterized like PNG, flattened onto white, encoded at quality 95
//
// Rasterization goes through a [Rasterizer]. The production implementation,
// [RSVG], shells out to rsvg-convert from librsvg:
//
//	t := render.NewTranscoder(render.RSVG{})
//	err := t.Transcode(ctx, "temp/<id>/equation.svg", "output/img-<id>.png", latex.FormatPNG)
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
//
// Output files are written to a temporary sibling and renamed into place, so
// a reader never observes a partially written image.
package render
