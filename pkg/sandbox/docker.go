package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Docker defaults.
const (
	DefaultDockerBinary = "docker"
	DefaultImage        = "blang/latex:ubuntu"

	// DefaultStartupGrace is added to the host-side budget of each stage to
	// cover container start-up; the stage's own timer runs inside it.
	DefaultStartupGrace = 10 * time.Second

	// containerDir is where the work directory is mounted.
	containerDir = "/data"
)

// Exit statuses of coreutils timeout when the wrapped command overran
// (TERM, then KILL after the grace period). A container stopped by the
// memory limit exits with exitKilled as well.
const (
	exitTimeout = 124
	exitKilled  = 137
)

// Docker runs each stage in a fresh, network-less container that sees only
// the work directory.
type Docker struct {
	Binary       string        // docker CLI, defaults to DefaultDockerBinary
	Image        string        // image providing the toolchain
	StartupGrace time.Duration // host-side allowance for container start
	Memory       string        // --memory limit, empty for none
	PidsLimit    int           // --pids-limit, zero for none
}

// NewDocker returns a Docker runner for image with default limits.
func NewDocker(image string) *Docker {
	if image == "" {
		image = DefaultImage
	}
	return &Docker{
		Binary:       DefaultDockerBinary,
		Image:        image,
		StartupGrace: DefaultStartupGrace,
		Memory:       "512m",
		PidsLimit:    64,
	}
}

// Name implements Runner.
func (d *Docker) Name() string { return "docker" }

func (d *Docker) binary() string {
	if d.Binary == "" {
		return DefaultDockerBinary
	}
	return d.Binary
}

// Run implements Runner.
func (d *Docker) Run(ctx context.Context, workDir string, stages []Stage, timeoutEach time.Duration) (*Result, error) {
	dir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}

	res := &Result{}
	for _, st := range stages {
		if len(st.Args) == 0 {
			return res, fmt.Errorf("stage %s: empty command", st.Name)
		}
		name := "latex2image-" + uuid.NewString()
		args := d.runArgs(name, dir, st, timeoutEach)

		sr, err := execStage(ctx, st.Name, timeoutEach+d.StartupGrace, timeoutEach, func(c context.Context) *exec.Cmd {
			cmd := exec.CommandContext(c, d.binary(), args...)
			cmd.Cancel = func() error {
				d.kill(name)
				return cmd.Process.Kill()
			}
			return cmd
		}, exitTimeout, exitKilled)
		res.Stages = append(res.Stages, sr)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// runArgs builds the docker CLI arguments for one stage.
func (d *Docker) runArgs(name, dir string, st Stage, timeout time.Duration) []string {
	args := []string{
		"run", "--rm", "-i",
		"--name", name,
		"--network", "none",
		"--cap-drop", "ALL",
		"--security-opt", "no-new-privileges",
	}
	if uid, gid := os.Getuid(), os.Getgid(); uid >= 0 && gid >= 0 {
		args = append(args, "--user", fmt.Sprintf("%d:%d", uid, gid))
	}
	if d.Memory != "" {
		args = append(args, "--memory", d.Memory)
	}
	if d.PidsLimit > 0 {
		args = append(args, "--pids-limit", strconv.Itoa(d.PidsLimit))
	}
	args = append(args,
		"-v", dir+":"+containerDir,
		"-w", containerDir,
		"-e", "TEXMFCNF="+containerDir+":",
		d.Image,
		"timeout", "-k", "1", formatSeconds(timeout),
	)
	return append(args, st.Args...)
}

// kill removes a container that outlived its host-side budget.
func (d *Docker) kill(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = exec.CommandContext(ctx, d.binary(), "kill", name).Run()
}

// Check implements Runner. It verifies the CLI is installed and the daemon
// answers.
func (d *Docker) Check(ctx context.Context) error {
	if _, err := exec.LookPath(d.binary()); err != nil {
		return fmt.Errorf("%s not found on PATH", d.binary())
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, d.binary(), "version", "--format", "{{.Server.Version}}").CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker daemon unreachable: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

var _ Runner = (*Docker)(nil)
