package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"time"
)

// waitDelay bounds how long Wait blocks on output pipes after the process
// has been killed (grandchildren may keep them open).
const waitDelay = time.Second

// execStage runs the command produced by build under a budget derived from
// ctx. timeoutCodes lists exit statuses that mean the command's own timer
// fired (e.g. coreutils timeout inside a container). exitKilled among them
// counts only once the stage has run for the full timeout.
func execStage(ctx context.Context, name string, budget, timeout time.Duration, build func(context.Context) *exec.Cmd, timeoutCodes ...int) (StageResult, error) {
	stageCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	cmd := build(stageCtx)
	out := newTailBuffer()
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res := StageResult{
		Name:     name,
		Duration: time.Since(start),
		Output:   out.String(),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	timedOut := errors.Is(stageCtx.Err(), context.DeadlineExceeded)
	if !timedOut && slices.Contains(timeoutCodes, res.ExitCode) {
		// SIGKILL also comes from the OOM killer; only a stage that used up
		// its budget was killed by the timer.
		timedOut = res.ExitCode != exitKilled || res.Duration >= timeout
	}
	if timedOut {
		res.TimedOut = true
		return res, &TimeoutError{Stage: name, Timeout: timeout}
	}
	if exitErr != nil {
		return res, &ExitError{Stage: name, Code: res.ExitCode}
	}
	return res, fmt.Errorf("start %s: %w", name, err)
}
