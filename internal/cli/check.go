package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/latex2image/pkg/config"
	"github.com/matzehuels/latex2image/pkg/render"
	"github.com/matzehuels/latex2image/pkg/workspace"
)

// checkResult is the outcome of one diagnostic.
type checkResult struct {
	name string
	err  error
}

// checkCommand creates the check command that verifies the toolchain.
func (c *CLI) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the sandbox, rasterizer and directories",
		Long: `Verify that everything a conversion needs is in place: the configured
sandbox (docker daemon or local latex and dvisvgm), rsvg-convert for PNG and
JPG output, and writable temp and output directories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintln(uiOut, StyleTitle.Render(appName+" check"))
			printInfo("sandbox: %s", cfg.Sandbox.Kind)
			if cfg.Sandbox.Kind == config.SandboxLocal {
				printWarning("local sandbox runs latex on this host without isolation")
			}
			printNewline()
			results := runChecks(cmd.Context(), cfg)

			failed := 0
			for _, r := range results {
				if r.err != nil {
					failed++
					printError("%s", r.name)
					printDetail("%v", r.err)
					continue
				}
				printSuccess("%s", r.name)
			}

			if failed > 0 {
				printNewline()
				printNextStep("See the install notes", appName+" check --help")
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}

	addSandboxFlags(cmd)
	return cmd
}

func runChecks(ctx context.Context, cfg *config.Config) []checkResult {
	return []checkResult{
		{"sandbox (" + cfg.Sandbox.Kind + ")", newExecutor(cfg).Check(ctx)},
		{"rasterizer (" + cfg.Render.RSVGBinary + ")", render.RSVG{Binary: cfg.Render.RSVGBinary}.Check()},
		{"temp dir " + cfg.Storage.TempDir, checkWritable(cfg.Storage.TempDir)},
		{"output dir " + cfg.Storage.OutputDir, checkWritable(cfg.Storage.OutputDir)},
	}
}

// checkWritable creates dir if needed and writes a probe file into it.
func checkWritable(dir string) error {
	if err := workspace.Bootstrap(dir); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(filepath.Clean(name))
}
