// Package config loads latex2image settings from a TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the TOML file, LATEX2IMAGE_*
// environment variables, command-line flags (applied by the CLI).
//
//	[server]
//	listen = ":3001"
//	max_body_bytes = 65536
//	shutdown_grace = "10s"
//
//	[storage]
//	temp_dir = "temp"
//	output_dir = "output"
//	public_prefix = "output"
//
//	[sandbox]
//	kind = "docker"
//	image = "blang/latex:ubuntu"
//	stage_timeout = "5s"
//
//	[render]
//	dpi = 96
//	jpeg_quality = 95
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/latex2image/pkg/errors"
	"github.com/matzehuels/latex2image/pkg/pipeline"
	"github.com/matzehuels/latex2image/pkg/render"
	"github.com/matzehuels/latex2image/pkg/sandbox"
)

// Sandbox kinds.
const (
	SandboxDocker = "docker"
	SandboxLocal  = "local"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Sandbox SandboxConfig `toml:"sandbox"`
	Render  RenderConfig  `toml:"render"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Listen        string        `toml:"listen"`
	MaxBodyBytes  int64         `toml:"max_body_bytes"`
	ReadTimeout   time.Duration `toml:"read_timeout"`
	ShutdownGrace time.Duration `toml:"shutdown_grace"`
}

// StorageConfig names the working and output directories.
type StorageConfig struct {
	TempDir      string `toml:"temp_dir"`
	OutputDir    string `toml:"output_dir"`
	PublicPrefix string `toml:"public_prefix"` // URL path the output dir is served under
}

// SandboxConfig selects and tunes the compilation sandbox.
type SandboxConfig struct {
	Kind         string        `toml:"kind"` // docker or local
	Image        string        `toml:"image"`
	DockerBinary string        `toml:"docker_binary"`
	Memory       string        `toml:"memory"`
	PidsLimit    int           `toml:"pids_limit"`
	StageTimeout time.Duration `toml:"stage_timeout"`
}

// RenderConfig tunes rasterization.
type RenderConfig struct {
	DPI         float64 `toml:"dpi"`
	JPEGQuality int     `toml:"jpeg_quality"`
	RSVGBinary  string  `toml:"rsvg_binary"`
}

// Load reads the TOML file at path (if any) over the defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:        ":3001",
			MaxBodyBytes:  64 << 10,
			ReadTimeout:   30 * time.Second,
			ShutdownGrace: 10 * time.Second,
		},
		Storage: StorageConfig{
			TempDir:      pipeline.DefaultTempDir,
			OutputDir:    pipeline.DefaultOutputDir,
			PublicPrefix: pipeline.DefaultPublicPrefix,
		},
		Sandbox: SandboxConfig{
			Kind:         SandboxDocker,
			Image:        sandbox.DefaultImage,
			DockerBinary: sandbox.DefaultDockerBinary,
			Memory:       "512m",
			PidsLimit:    64,
			StageTimeout: sandbox.DefaultStageTimeout,
		},
		Render: RenderConfig{
			DPI:         render.DefaultDPI,
			JPEGQuality: render.DefaultJPEGQuality,
			RSVGBinary:  render.DefaultRSVGBinary,
		},
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if c.Server.ShutdownGrace < 0 {
		return fmt.Errorf("server.shutdown_grace must not be negative")
	}

	if err := errors.ValidateDir(c.Storage.TempDir); err != nil {
		return fmt.Errorf("storage.temp_dir: %w", err)
	}
	if err := errors.ValidateDir(c.Storage.OutputDir); err != nil {
		return fmt.Errorf("storage.output_dir: %w", err)
	}

	switch c.Sandbox.Kind {
	case SandboxDocker:
		if c.Sandbox.Image == "" {
			return fmt.Errorf("sandbox.image is required for the docker sandbox")
		}
	case SandboxLocal:
	default:
		return fmt.Errorf("invalid sandbox kind: %q", c.Sandbox.Kind)
	}
	if c.Sandbox.StageTimeout <= 0 {
		return fmt.Errorf("sandbox.stage_timeout must be positive")
	}

	if c.Render.DPI <= 0 {
		return fmt.Errorf("render.dpi must be positive")
	}
	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("render.jpeg_quality must be between 1 and 100")
	}

	return nil
}

// NewSandbox builds the configured sandbox runner.
func (c *Config) NewSandbox(requires ...string) sandbox.Runner {
	if c.Sandbox.Kind == SandboxLocal {
		return sandbox.NewLocal(requires...)
	}
	d := sandbox.NewDocker(c.Sandbox.Image)
	if c.Sandbox.DockerBinary != "" {
		d.Binary = c.Sandbox.DockerBinary
	}
	d.Memory = c.Sandbox.Memory
	d.PidsLimit = c.Sandbox.PidsLimit
	return d
}

// NewTranscoder builds the configured transcoder.
func (c *Config) NewTranscoder() *render.Transcoder {
	t := render.NewTranscoder(render.RSVG{Binary: c.Render.RSVGBinary})
	t.DPI = c.Render.DPI
	t.JPEGQuality = c.Render.JPEGQuality
	return t
}

// envPrefix prefixes every environment override.
const envPrefix = "LATEX2IMAGE_"

func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"LISTEN":        &cfg.Server.Listen,
		"TEMP_DIR":      &cfg.Storage.TempDir,
		"OUTPUT_DIR":    &cfg.Storage.OutputDir,
		"PUBLIC_PREFIX": &cfg.Storage.PublicPrefix,
		"SANDBOX":       &cfg.Sandbox.Kind,
		"IMAGE":         &cfg.Sandbox.Image,
		"DOCKER":        &cfg.Sandbox.DockerBinary,
		"RSVG_CONVERT":  &cfg.Render.RSVGBinary,
	}
	for key, dst := range str {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}

	dur := map[string]*time.Duration{
		"STAGE_TIMEOUT":  &cfg.Sandbox.StageTimeout,
		"SHUTDOWN_GRACE": &cfg.Server.ShutdownGrace,
	}
	for key, dst := range dur {
		if v := os.Getenv(envPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv(envPrefix + "MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_BODY_BYTES: %w", envPrefix, err)
		}
		cfg.Server.MaxBodyBytes = n
	}
	if v := os.Getenv(envPrefix + "DPI"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sDPI: %w", envPrefix, err)
		}
		cfg.Render.DPI = n
	}
	if v := os.Getenv(envPrefix + "JPEG_QUALITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sJPEG_QUALITY: %w", envPrefix, err)
		}
		cfg.Render.JPEGQuality = n
	}
	return nil
}
