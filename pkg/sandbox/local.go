package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Local runs stages directly on the host, each in its own process group so
// a timed-out stage is killed together with its children.
//
// Local provides no filesystem or network isolation. Use it only where the
// toolchain cannot run in a container.
type Local struct {
	// Requires lists programs Check looks up on PATH.
	Requires []string
}

// NewLocal returns a Local runner that checks for the given programs.
func NewLocal(requires ...string) *Local {
	return &Local{Requires: requires}
}

// Name implements Runner.
func (l *Local) Name() string { return "local" }

// Run implements Runner.
func (l *Local) Run(ctx context.Context, workDir string, stages []Stage, timeoutEach time.Duration) (*Result, error) {
	dir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}

	res := &Result{}
	for _, st := range stages {
		if len(st.Args) == 0 {
			return res, fmt.Errorf("stage %s: empty command", st.Name)
		}
		sr, err := execStage(ctx, st.Name, timeoutEach, timeoutEach, func(c context.Context) *exec.Cmd {
			cmd := exec.CommandContext(c, st.Args[0], st.Args[1:]...)
			cmd.Dir = dir
			// Trailing separator keeps the system search path after ours.
			cmd.Env = append(os.Environ(), "TEXMFCNF="+dir+string(os.PathListSeparator))
			setProcessGroup(cmd)
			return cmd
		})
		res.Stages = append(res.Stages, sr)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// Check implements Runner.
func (l *Local) Check(ctx context.Context) error {
	var errs []error
	for _, prog := range l.Requires {
		if _, err := exec.LookPath(prog); err != nil {
			errs = append(errs, fmt.Errorf("%s not found on PATH", prog))
		}
	}
	return errors.Join(errs...)
}

var _ Runner = (*Local)(nil)
