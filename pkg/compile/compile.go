// Package compile typesets an equation document into an SVG image.
//
// The Executor runs two stages through a [sandbox.Runner]:
//
//  1. latex, non-interactive, halting on the first error, shell escape off,
//     producing equation.dvi
//  2. dvisvgm, converting the DVI to SVG at the requested scale with fonts
//     replaced by paths so the image is self-contained
//
// Each stage is bounded by the executor's timeout. The executor reports
// success or a structured COMPILATION_TIMEOUT / COMPILATION_ERROR; it does
// not check that the SVG was actually produced. Callers must, because a
// clean exit without output is how some upstream failures look.
package compile

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	l2ierrors "github.com/matzehuels/latex2image/pkg/errors"
	"github.com/matzehuels/latex2image/pkg/latex"
	"github.com/matzehuels/latex2image/pkg/sandbox"
)

// Stage names.
const (
	StageTypeset = "latex"
	StageExport  = "dvisvgm"
)

// Executor runs the typeset and export stages for one workspace.
type Executor struct {
	Runner  sandbox.Runner
	Timeout time.Duration // per stage
}

// New returns an Executor using runner. A non-positive timeout selects
// sandbox.DefaultStageTimeout.
func New(runner sandbox.Runner, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = sandbox.DefaultStageTimeout
	}
	return &Executor{Runner: runner, Timeout: timeout}
}

// Stages returns the two-stage pipeline for the given dvisvgm scale factor.
func Stages(factor string) []sandbox.Stage {
	return []sandbox.Stage{
		{
			Name: StageTypeset,
			Args: []string{"latex", "-no-shell-escape", "-interaction=nonstopmode", "-halt-on-error", latex.SourceFile},
		},
		{
			Name: StageExport,
			Args: []string{"dvisvgm", "--no-fonts", "--scale=" + factor, "--exact", latex.DVIFile},
		},
	}
}

// Tools lists the programs the stages invoke.
func Tools() []string {
	return []string{"latex", "dvisvgm"}
}

// SVGPath returns where a successful compilation leaves its image.
func SVGPath(workDir string) string {
	return filepath.Join(workDir, latex.SVGFile)
}

// Compile runs both stages in workDir. The returned result is non-nil
// whenever at least one stage started, also on failure.
func (e *Executor) Compile(ctx context.Context, workDir, factor string) (*sandbox.Result, error) {
	res, err := e.Runner.Run(ctx, workDir, Stages(factor), e.Timeout)
	if err == nil {
		return res, nil
	}

	diag := res.Diagnostics()
	var exitErr *sandbox.ExitError
	switch {
	case errors.Is(err, sandbox.ErrTimeout):
		return res, l2ierrors.Wrap(l2ierrors.ErrCodeCompilationTimeout, err, "compilation exceeded %s per stage", e.Timeout).WithDiagnostics(diag)
	case errors.As(err, &exitErr):
		return res, l2ierrors.Wrap(l2ierrors.ErrCodeCompilation, err, "%s failed", exitErr.Stage).WithDiagnostics(diag)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return res, err
	default:
		return res, l2ierrors.Wrap(l2ierrors.ErrCodeInternal, err, "run %s sandbox", e.Runner.Name()).WithDiagnostics(diag)
	}
}

// Check verifies the sandbox can run.
func (e *Executor) Check(ctx context.Context) error {
	return e.Runner.Check(ctx)
}
