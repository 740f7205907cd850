package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/latex2image/pkg/compile"
	"github.com/matzehuels/latex2image/pkg/errors"
	"github.com/matzehuels/latex2image/pkg/latex"
	"github.com/matzehuels/latex2image/pkg/observability"
	"github.com/matzehuels/latex2image/pkg/queue"
	"github.com/matzehuels/latex2image/pkg/workspace"
)

// Runner executes conversions. It holds no per-request state, so one Runner
// serves any number of goroutines; only compilations are serialized, through
// the Gate.
type Runner struct {
	Workspaces   *workspace.Manager
	Compiler     Compiler
	Transcoder   Transcoder
	Gate         *queue.Gate
	OutputDir    string
	PublicPrefix string
	Logger       *log.Logger

	newIdentity func() string
}

// NewRunner creates the temp and output directories and returns a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Compiler == nil || opts.Transcoder == nil {
		return nil, fmt.Errorf("pipeline: compiler and transcoder are required")
	}
	if opts.TempDir == "" {
		opts.TempDir = DefaultTempDir
	}
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.Gate == nil {
		opts.Gate = queue.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.NewIdentity == nil {
		opts.NewIdentity = NewIdentity
	}

	if err := workspace.Bootstrap(opts.OutputDir); err != nil {
		return nil, err
	}
	ws, err := workspace.New(opts.TempDir)
	if err != nil {
		return nil, err
	}

	return &Runner{
		Workspaces:   ws,
		Compiler:     opts.Compiler,
		Transcoder:   opts.Transcoder,
		Gate:         opts.Gate,
		OutputDir:    opts.OutputDir,
		PublicPrefix: opts.PublicPrefix,
		Logger:       opts.Logger,
		newIdentity:  opts.NewIdentity,
	}, nil
}

// Convert runs one request through the pipeline. Errors carry a code from
// pkg/errors; pass them through errors.PublicMessage before showing them to
// a caller.
//
// Once a request is valid it runs to completion even if ctx is cancelled:
// the workspace is always released and the compilation slot always freed.
func (r *Runner) Convert(ctx context.Context, raw latex.RawRequest) (res *Result, err error) {
	start := time.Now()
	res = &Result{}
	res.advance(StateReceived)

	req, err := latex.Validate(raw)
	if err != nil {
		// Nothing was acquired yet, so there is nothing to release.
		res.advance(StateCleaned)
		res.advance(StateResponded)
		res.Stats.Total = time.Since(start)
		r.Logger.Debug("rejected request", "code", errors.GetCode(err))
		return res, err
	}
	res.advance(StateValidated)
	res.Format = req.Format

	ctx = context.WithoutCancel(ctx)
	id := r.newIdentity()
	res.Identity = id
	logger := r.Logger.With("id", id)
	logger.Debug("accepted", "request", req)

	acquired := false
	defer func() {
		// A conflicting workspace belongs to someone else and is left alone.
		if acquired {
			if rerr := r.Workspaces.Release(id); rerr != nil {
				logger.Warn("release workspace", "err", rerr)
			}
		}
		res.advance(StateCleaned)
		res.advance(StateResponded)
		res.Stats.Total = time.Since(start)

		if err != nil {
			if diag := errors.Diagnostics(err); diag != "" {
				logger.Error("conversion failed", "code", errors.GetCode(err), "err", err, "diagnostics", diag)
			} else {
				logger.Error("conversion failed", "code", errors.GetCode(err), "err", err)
			}
		}
		observability.Conversion().OnConversionComplete(ctx, id, string(req.Format), res.Stats.Total, err)
	}()

	dir, err := r.Workspaces.Acquire(id)
	if err != nil {
		return res, err
	}
	acquired = true
	if err := latex.WriteDocument(dir, req.Equation); err != nil {
		return res, errors.Wrap(errors.ErrCodeInternal, err, "prepare workspace")
	}
	res.advance(StateWorkspacePrepared)

	if err := r.compile(ctx, res, id, dir, req.Factor); err != nil {
		return res, err
	}

	res.advance(StateTranscoding)
	name := ArtifactName(id, req.Format)
	out := filepath.Join(r.OutputDir, name)
	tStart := time.Now()
	err = r.Transcoder.Transcode(ctx, compile.SVGPath(dir), out, req.Format)
	res.Stats.Transcode = time.Since(tStart)
	observability.Conversion().OnTranscodeComplete(ctx, id, string(req.Format), res.Stats.Transcode, err)
	if err != nil {
		return res, err
	}

	res.File = out
	res.Location = r.location(name)
	logger.Debug("artifact ready", "location", res.Location)
	return res, nil
}

// compile waits for the gate, runs the compiler and checks that it left an
// SVG behind.
func (r *Runner) compile(ctx context.Context, res *Result, id, dir, factor string) error {
	hooks := observability.Conversion()

	res.advance(StateQueued)
	queued := time.Now()
	hooks.OnQueued(ctx, id, r.Gate.Stats().Waiting)

	wait, err := r.Gate.Do(ctx, func(ctx context.Context) error {
		res.advance(StateCompiling)
		hooks.OnAdmitted(ctx, id, time.Since(queued))

		cStart := time.Now()
		cres, err := r.Compiler.Compile(ctx, dir, factor)
		res.Stats.Compile = time.Since(cStart)
		if cres != nil {
			for _, st := range cres.Stages {
				hooks.OnStage(ctx, id, st.Name, st.ExitCode, st.Duration)
			}
		}
		hooks.OnCompileComplete(ctx, id, res.Stats.Compile, err)
		return err
	})
	res.Stats.Wait = wait
	if err != nil {
		if errors.GetCode(err) == "" {
			return errors.Wrap(errors.ErrCodeInternal, err, "compile")
		}
		return err
	}

	if _, err := os.Stat(compile.SVGPath(dir)); err != nil {
		return errors.Wrap(errors.ErrCodeCompilation, err, "compiler exited cleanly but produced no image")
	}
	return nil
}

func (r *Runner) location(name string) string {
	if r.PublicPrefix == "" {
		return name
	}
	return path.Join(r.PublicPrefix, name)
}
