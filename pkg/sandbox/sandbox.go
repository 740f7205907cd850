// Package sandbox runs the typesetting toolchain as isolated subprocesses.
//
// # Overview
//
// A [Runner] executes an ordered list of [Stage]s inside a working
// directory. Each stage is an explicit argument vector; nothing is ever
// passed through a shell. Every stage gets its own wall-clock budget, and
// the run stops at the first stage that fails or times out.
//
// Two runners are provided:
//
//   - [Docker] starts one throw-away container per stage with networking
//     disabled, the caller's uid:gid, and only the working directory
//     mounted (at /data).
//   - [Local] runs the stage directly on the host in its own process group.
//     It offers no isolation and is meant for development machines.
//
// # Errors
//
// A stage exceeding its budget fails with an error matching [ErrTimeout].
// A stage exiting non-zero fails with an [*ExitError]. In both cases the
// returned [Result] holds the output collected so far for diagnostics.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultStageTimeout bounds each stage unless configured otherwise.
const DefaultStageTimeout = 5 * time.Second

// maxOutput caps the diagnostics kept per stage; the tail is kept since
// the typesetter reports its fatal error last.
const maxOutput = 32 << 10

// ErrTimeout is returned (wrapped) when a stage exceeds its time budget.
var ErrTimeout = errors.New("stage timed out")

// Stage is one step of a sandboxed pipeline.
type Stage struct {
	Name string   // short label used in logs, e.g. "latex"
	Args []string // program and arguments
}

// String renders the stage for logs.
func (s Stage) String() string {
	return strings.Join(s.Args, " ")
}

// StageResult records the outcome of one executed stage.
type StageResult struct {
	Name     string
	ExitCode int
	Duration time.Duration
	TimedOut bool
	Output   string // combined stdout and stderr, truncated to the tail
}

// Result collects the stages that ran, in order.
type Result struct {
	Stages []StageResult
}

// Diagnostics joins the output of every stage that ran, for logging.
func (r *Result) Diagnostics() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, s := range r.Stages {
		if s.Output == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s\n", s.Name, strings.TrimSpace(s.Output))
	}
	return b.String()
}

// Duration is the total time spent across all stages.
func (r *Result) Duration() time.Duration {
	if r == nil {
		return 0
	}
	var d time.Duration
	for _, s := range r.Stages {
		d += s.Duration
	}
	return d
}

// ExitError reports a stage that exited with a non-zero status.
type ExitError struct {
	Stage string
	Code  int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("stage %s exited with status %d", e.Stage, e.Code)
}

// TimeoutError reports a stage killed for exceeding its budget.
type TimeoutError struct {
	Stage   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stage %s exceeded %s", e.Stage, e.Timeout)
}

// Is makes errors.Is(err, ErrTimeout) hold for a *TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Runner executes stages in an isolated environment rooted at workDir.
type Runner interface {
	// Name identifies the runner in logs and diagnostics.
	Name() string

	// Run executes stages in order, each bounded by timeoutEach, and stops
	// at the first failure.
	Run(ctx context.Context, workDir string, stages []Stage, timeoutEach time.Duration) (*Result, error)

	// Check verifies the runner's prerequisites are available.
	Check(ctx context.Context) error
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n, _ := t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}

func newTailBuffer() *tailBuffer {
	return &tailBuffer{max: maxOutput}
}
