//go:build windows

package sandbox

import "os/exec"

// setProcessGroup is a no-op on Windows; exec kills the direct child only.
func setProcessGroup(cmd *exec.Cmd) {}
