// Package pkg provides the libraries behind latex2image, which turns LaTeX
// math into SVG, PNG or JPG images.
//
// # Overview
//
// A conversion moves through these packages in order:
//
//	raw request (input, format, scale)
//	         ↓
//	    [latex] validate, then render the equation into a document
//	         ↓
//	    [workspace] acquire a private directory for the request
//	         ↓
//	    [queue] wait until no other compilation runs
//	         ↓
//	    [compile] latex then dvisvgm, inside a [sandbox]
//	         ↓
//	    [render] SVG copy, or rasterize to PNG / JPG
//	         ↓
//	    image in the output directory, workspace removed
//
// [pipeline] strings these steps together and always releases the
// workspace, whatever the outcome.
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/latex2image/pkg/compile"
//	    "github.com/matzehuels/latex2image/pkg/latex"
//	    "github.com/matzehuels/latex2image/pkg/pipeline"
//	    "github.com/matzehuels/latex2image/pkg/render"
//	    "github.com/matzehuels/latex2image/pkg/sandbox"
//	)
//
//	runner, err := pipeline.NewRunner(pipeline.Options{
//	    Compiler:   compile.New(sandbox.NewDocker(sandbox.DefaultImage), 0),
//	    Transcoder: render.NewTranscoder(render.RSVG{}),
//	})
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Convert(ctx, latex.RawRequest{
//	    Input:  `e^{i\pi} + 1 = 0`,
//	    Format: "PNG",
//	    Scale:  "200%",
//	})
//
// # Supporting Packages
//
// [errors] carries the error codes every stage reports and decides which
// message a caller may see. [config] loads the TOML file and environment
// overrides. [observability] exposes hooks for logging and metrics.
// [buildinfo] holds the version stamped at build time.
//
// [latex]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/latex
// [workspace]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/workspace
// [queue]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/queue
// [compile]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/compile
// [sandbox]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/sandbox
// [render]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/errors
// [config]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/latex2image/pkg/buildinfo
package pkg
