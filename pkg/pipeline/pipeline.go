// Package pipeline provides the conversion pipeline for latex2image.
//
// This package implements the complete validate → prepare → compile →
// transcode pipeline used by both the HTTP server and the CLI, so the two
// entry points behave identically.
//
// # Architecture
//
// A conversion moves through these states:
//
//  1. Received: the raw request arrived
//  2. Validated: input, format and scale passed the checks in [latex.Validate]
//  3. WorkspacePrepared: a fresh workspace holds the document source
//  4. Queued: waiting for the single compilation slot
//  5. Compiling: the sandbox runs latex and dvisvgm
//  6. Transcoding: the SVG becomes the requested output format
//  7. Cleaned: the workspace is gone
//  8. Responded: the result or error is handed back
//
// Any failure jumps straight to Cleaned. Requests rejected by validation
// never get an identity and never touch the disk.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(pipeline.Options{
//	    TempDir:    "temp",
//	    OutputDir:  "output",
//	    Compiler:   compile.New(sandbox.NewDocker(""), 0),
//	    Transcoder: render.NewTranscoder(render.RSVG{}),
//	    Logger:     logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := runner.Convert(ctx, latex.RawRequest{
//	    Input:  `e^{i\pi} + 1 = 0`,
//	    Format: "PNG",
//	    Scale:  "200%",
//	})
//	fmt.Println(res.Location) // output/img-<id>.png
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/latex2image/pkg/compile"
	"github.com/matzehuels/latex2image/pkg/latex"
	"github.com/matzehuels/latex2image/pkg/queue"
	"github.com/matzehuels/latex2image/pkg/render"
	"github.com/matzehuels/latex2image/pkg/sandbox"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultTempDir holds one workspace per in-flight conversion.
	DefaultTempDir = "temp"

	// DefaultOutputDir holds the produced images.
	DefaultOutputDir = "output"

	// DefaultPublicPrefix is the URL path the output directory is served under.
	DefaultPublicPrefix = "output"
)

// =============================================================================
// Collaborators
// =============================================================================

// Compiler turns the document in workDir into an SVG.
type Compiler interface {
	Compile(ctx context.Context, workDir, factor string) (*sandbox.Result, error)
}

// Transcoder writes the final artifact from the compiled SVG.
type Transcoder interface {
	Transcode(ctx context.Context, svgPath, outPath string, f latex.Format) error
}

var (
	_ Compiler   = (*compile.Executor)(nil)
	_ Transcoder = (*render.Transcoder)(nil)
)

// =============================================================================
// Options - Runner Configuration
// =============================================================================

// Options configures a Runner.
type Options struct {
	TempDir      string
	OutputDir    string
	PublicPrefix string

	Compiler   Compiler
	Transcoder Transcoder

	// Gate serializes compilations. Runners that share a Gate share the
	// slot; a nil Gate gets a private one.
	Gate *queue.Gate

	Logger *log.Logger

	// NewIdentity overrides identity generation, for tests.
	NewIdentity func() string
}

// =============================================================================
// Result
// =============================================================================

// State is a step in the life of a conversion.
type State string

// Conversion states, in order.
const (
	StateReceived          State = "received"
	StateValidated         State = "validated"
	StateWorkspacePrepared State = "workspace_prepared"
	StateQueued            State = "queued"
	StateCompiling         State = "compiling"
	StateTranscoding       State = "transcoding"
	StateCleaned           State = "cleaned"
	StateResponded         State = "responded"
)

// Result describes one conversion. Convert always returns a non-nil Result;
// Location and File are set only on success.
type Result struct {
	// Identity is the conversion identity, empty if validation failed.
	Identity string

	// Format is the requested output format.
	Format latex.Format

	// Location is the public URL path of the image, e.g. output/img-<id>.png.
	Location string

	// File is the local path of the image.
	File string

	// States lists the states the conversion passed through.
	States []State

	// Stats contains timing information.
	Stats Stats
}

// Stats contains conversion timings.
type Stats struct {
	Wait      time.Duration // queued for the compilation slot
	Compile   time.Duration
	Transcode time.Duration
	Total     time.Duration
}

func (r *Result) advance(s State) {
	r.States = append(r.States, s)
}

// Reached reports whether the conversion passed through s.
func (r *Result) Reached(s State) bool {
	for _, st := range r.States {
		if st == s {
			return true
		}
	}
	return false
}

// NewIdentity returns a fresh conversion identity: the 32 hex digits of a
// random UUID.
func NewIdentity() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ArtifactName returns the output file name for an identity and format.
func ArtifactName(id string, f latex.Format) string {
	return "img-" + id + "." + f.Ext()
}
