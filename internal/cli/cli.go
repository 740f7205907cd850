// Package cli implements the latex2image command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/latex2image/pkg/compile"
	"github.com/matzehuels/latex2image/pkg/config"
	"github.com/matzehuels/latex2image/pkg/pipeline"
	"github.com/matzehuels/latex2image/pkg/queue"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "latex2image"

	// configEnv names a config file when --config is not given.
	configEnv = "LATEX2IMAGE_CONFIG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string

	// compiler and transcoder replace the configured toolchain when set.
	compiler   pipeline.Compiler
	transcoder pipeline.Transcoder
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the config file, then applies any flags the user set on
// cmd. Flags that a command does not define are ignored.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = os.Getenv(configEnv)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Server.Listen, _ = flags.GetString("listen")
	}
	if flags.Changed("sandbox") {
		cfg.Sandbox.Kind, _ = flags.GetString("sandbox")
	}
	if flags.Changed("timeout") {
		cfg.Sandbox.StageTimeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("output-dir") {
		cfg.Storage.OutputDir, _ = flags.GetString("output-dir")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newRunner wires the conversion pipeline from cfg.
func (c *CLI) newRunner(cfg *config.Config, gate *queue.Gate) (*pipeline.Runner, error) {
	var (
		comp  pipeline.Compiler   = c.compiler
		trans pipeline.Transcoder = c.transcoder
	)
	if comp == nil {
		comp = newExecutor(cfg)
	}
	if trans == nil {
		trans = cfg.NewTranscoder()
	}
	return pipeline.NewRunner(pipeline.Options{
		TempDir:      cfg.Storage.TempDir,
		OutputDir:    cfg.Storage.OutputDir,
		PublicPrefix: cfg.Storage.PublicPrefix,
		Compiler:     comp,
		Transcoder:   trans,
		Gate:         gate,
		Logger:       c.Logger,
	})
}

func newExecutor(cfg *config.Config) *compile.Executor {
	return compile.New(cfg.NewSandbox(compile.Tools()...), cfg.Sandbox.StageTimeout)
}

// addSandboxFlags registers the flags shared by commands that compile.
func addSandboxFlags(cmd *cobra.Command) {
	cmd.Flags().String("sandbox", "", "sandbox kind: docker or local (overrides config)")
	cmd.Flags().Duration("timeout", 0, "per-stage compilation timeout (overrides config)")
}
