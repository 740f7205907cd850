package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/latex2image/pkg/sandbox"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latex2image.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Listen != ":3001" {
		t.Errorf("Listen = %q, want :3001", cfg.Server.Listen)
	}
	if cfg.Storage.TempDir != "temp" || cfg.Storage.OutputDir != "output" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Sandbox.Kind != SandboxDocker || cfg.Sandbox.Image != "blang/latex:ubuntu" {
		t.Errorf("Sandbox = %+v", cfg.Sandbox)
	}
	if cfg.Sandbox.StageTimeout != 5*time.Second {
		t.Errorf("StageTimeout = %s, want 5s", cfg.Sandbox.StageTimeout)
	}
	if cfg.Render.DPI != 96 || cfg.Render.JPEGQuality != 95 {
		t.Errorf("Render = %+v", cfg.Render)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[server]
listen = "127.0.0.1:8080"
shutdown_grace = "3s"

[storage]
temp_dir = "/var/lib/latex2image/temp"

[sandbox]
kind = "local"
stage_timeout = "2500ms"

[render]
jpeg_quality = 80
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Server.ShutdownGrace != 3*time.Second {
		t.Errorf("ShutdownGrace = %s", cfg.Server.ShutdownGrace)
	}
	if cfg.Storage.TempDir != "/var/lib/latex2image/temp" {
		t.Errorf("TempDir = %q", cfg.Storage.TempDir)
	}
	if cfg.Storage.OutputDir != "output" {
		t.Errorf("unset OutputDir lost its default: %q", cfg.Storage.OutputDir)
	}
	if cfg.Sandbox.Kind != SandboxLocal || cfg.Sandbox.StageTimeout != 2500*time.Millisecond {
		t.Errorf("Sandbox = %+v", cfg.Sandbox)
	}
	if cfg.Render.JPEGQuality != 80 {
		t.Errorf("JPEGQuality = %d", cfg.Render.JPEGQuality)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[sandbox]
kind = "docker"
stage_timeout = "5s"
`)
	t.Setenv("LATEX2IMAGE_SANDBOX", "local")
	t.Setenv("LATEX2IMAGE_STAGE_TIMEOUT", "1s")
	t.Setenv("LATEX2IMAGE_LISTEN", ":9000")
	t.Setenv("LATEX2IMAGE_JPEG_QUALITY", "70")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sandbox.Kind != SandboxLocal {
		t.Errorf("Kind = %q, want env value", cfg.Sandbox.Kind)
	}
	if cfg.Sandbox.StageTimeout != time.Second {
		t.Errorf("StageTimeout = %s, want env value", cfg.Sandbox.StageTimeout)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Render.JPEGQuality != 70 {
		t.Errorf("JPEGQuality = %d", cfg.Render.JPEGQuality)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
		want string
	}{
		{"missing file", "", nil, "parse config file"},
		{"bad toml", "[server\nlisten=", nil, "parse config file"},
		{"bad sandbox", "[sandbox]\nkind = \"vm\"", nil, "invalid sandbox kind"},
		{"zero timeout", "[sandbox]\nstage_timeout = \"0s\"", nil, "stage_timeout"},
		{"quality range", "[render]\njpeg_quality = 101", nil, "jpeg_quality"},
		{"traversal", "[storage]\noutput_dir = \"../../etc\"", nil, "output_dir"},
		{"bad env duration", "", map[string]string{"LATEX2IMAGE_STAGE_TIMEOUT": "soon"}, "LATEX2IMAGE_STAGE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "missing.toml")
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			} else if tt.env != nil {
				path = ""
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestNewSandbox(t *testing.T) {
	cfg := Default()
	cfg.Sandbox.Image = "texlive/texlive:latest"
	cfg.Sandbox.PidsLimit = 32

	d, ok := cfg.NewSandbox().(*sandbox.Docker)
	if !ok {
		t.Fatalf("NewSandbox() = %T, want *sandbox.Docker", cfg.NewSandbox())
	}
	if d.Image != "texlive/texlive:latest" || d.PidsLimit != 32 {
		t.Errorf("Docker = %+v", d)
	}

	cfg.Sandbox.Kind = SandboxLocal
	if _, ok := cfg.NewSandbox("latex").(*sandbox.Local); !ok {
		t.Errorf("NewSandbox() = %T, want *sandbox.Local", cfg.NewSandbox())
	}
}

func TestNewTranscoder(t *testing.T) {
	cfg := Default()
	cfg.Render.DPI = 192
	cfg.Render.JPEGQuality = 85

	tr := cfg.NewTranscoder()
	if tr.DPI != 192 || tr.JPEGQuality != 85 {
		t.Errorf("Transcoder = %+v", tr)
	}
}
