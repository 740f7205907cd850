package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/latex2image/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The logger is attached to each command's context before it runs and is
// available through loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "latex2image renders LaTeX equations as SVG, PNG or JPG images",
		Long:         `latex2image typesets LaTeX math in an isolated sandbox and converts the result to SVG, PNG or JPG. It runs as an HTTP service with a small web UI, or converts single equations from the command line.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML config file (default $"+configEnv+")")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.completionCommand())

	return root
}
