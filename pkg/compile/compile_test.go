package compile

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/latex2image/pkg/errors"
	"github.com/matzehuels/latex2image/pkg/latex"
	"github.com/matzehuels/latex2image/pkg/sandbox"
)

// fakeRunner returns canned results and records what it was asked to run.
type fakeRunner struct {
	res     *sandbox.Result
	err     error
	stages  []sandbox.Stage
	timeout time.Duration
}

func (f *fakeRunner) Name() string                    { return "fake" }
func (f *fakeRunner) Check(ctx context.Context) error { return nil }
func (f *fakeRunner) Run(ctx context.Context, workDir string, stages []sandbox.Stage, timeoutEach time.Duration) (*sandbox.Result, error) {
	f.stages = stages
	f.timeout = timeoutEach
	return f.res, f.err
}

func TestStages(t *testing.T) {
	stages := Stages("1.25")
	if len(stages) != 2 {
		t.Fatalf("len(Stages) = %d, want 2", len(stages))
	}

	typeset := stages[0].String()
	for _, want := range []string{"latex", "-no-shell-escape", "-interaction=nonstopmode", "-halt-on-error", "equation.tex"} {
		if !strings.Contains(typeset, want) {
			t.Errorf("typeset stage %q missing %q", typeset, want)
		}
	}

	export := stages[1].String()
	for _, want := range []string{"dvisvgm", "--no-fonts", "--scale=1.25", "--exact", "equation.dvi"} {
		if !strings.Contains(export, want) {
			t.Errorf("export stage %q missing %q", export, want)
		}
	}
}

func TestNewDefaultsTimeout(t *testing.T) {
	e := New(&fakeRunner{}, 0)
	if e.Timeout != sandbox.DefaultStageTimeout {
		t.Errorf("Timeout = %s, want %s", e.Timeout, sandbox.DefaultStageTimeout)
	}
}

func TestCompileSuccess(t *testing.T) {
	r := &fakeRunner{res: &sandbox.Result{}}
	e := New(r, 3*time.Second)

	if _, err := e.Compile(context.Background(), t.TempDir(), "1.0"); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if r.timeout != 3*time.Second {
		t.Errorf("runner timeout = %s, want 3s", r.timeout)
	}
	if len(r.stages) != 2 || r.stages[0].Name != StageTypeset || r.stages[1].Name != StageExport {
		t.Errorf("runner stages = %v", r.stages)
	}
}

func TestCompileErrorClassification(t *testing.T) {
	failed := &sandbox.Result{Stages: []sandbox.StageResult{{Name: StageTypeset, ExitCode: 1, Output: "! Missing $ inserted."}}}

	tests := []struct {
		name     string
		err      error
		wantCode errors.Code
	}{
		{"timeout", &sandbox.TimeoutError{Stage: StageTypeset, Timeout: time.Second}, errors.ErrCodeCompilationTimeout},
		{"non-zero exit", &sandbox.ExitError{Stage: StageTypeset, Code: 1}, errors.ErrCodeCompilation},
		{"runner broken", os.ErrNotExist, errors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeRunner{res: failed, err: tt.err}, time.Second)
			_, err := e.Compile(context.Background(), t.TempDir(), "1.0")
			if !errors.Is(err, tt.wantCode) {
				t.Fatalf("Compile() error = %v, want %s", err, tt.wantCode)
			}
			if !strings.Contains(errors.Diagnostics(err), "Missing $ inserted") {
				t.Errorf("diagnostics not attached: %q", errors.Diagnostics(err))
			}
			if strings.Contains(errors.PublicMessage(err), "Missing $") {
				t.Error("diagnostics leaked into public message")
			}
		})
	}
}

func TestCompilePassesContextErrors(t *testing.T) {
	e := New(&fakeRunner{err: context.Canceled}, time.Second)
	if _, err := e.Compile(context.Background(), t.TempDir(), "1.0"); err != context.Canceled {
		t.Errorf("Compile() error = %v, want context.Canceled", err)
	}
}

func TestSVGPath(t *testing.T) {
	if got := SVGPath("/w"); got != filepath.Join("/w", latex.SVGFile) {
		t.Errorf("SVGPath() = %q", got)
	}
}

// TestCompileLocalToolchain runs the real toolchain when it is installed.
func TestCompileLocalToolchain(t *testing.T) {
	for _, tool := range Tools() {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not installed", tool)
		}
	}

	dir := t.TempDir()
	if err := latex.WriteDocument(dir, `\frac{\pi}{2} = \int_{-1}^{1} \sqrt{1-x^2}\ dx`); err != nil {
		t.Fatal(err)
	}

	e := New(sandbox.NewLocal(Tools()...), 30*time.Second)
	if _, err := e.Compile(context.Background(), dir, "1.0"); err != nil {
		t.Fatalf("Compile() error = %v\n%s", err, errors.Diagnostics(err))
	}
	svg, err := os.ReadFile(SVGPath(dir))
	if err != nil {
		t.Fatalf("no SVG produced: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("output is not SVG: %.80s", svg)
	}
}

func TestCompileLocalToolchainRejectsBadInput(t *testing.T) {
	for _, tool := range Tools() {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not installed", tool)
		}
	}

	dir := t.TempDir()
	if err := latex.WriteDocument(dir, `\frac{`); err != nil {
		t.Fatal(err)
	}

	e := New(sandbox.NewLocal(Tools()...), 30*time.Second)
	_, err := e.Compile(context.Background(), dir, "1.0")
	if !errors.Is(err, errors.ErrCodeCompilation) && !errors.Is(err, errors.ErrCodeCompilationTimeout) {
		t.Fatalf("Compile() error = %v, want compilation failure", err)
	}
}
