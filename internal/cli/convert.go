package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/latex2image/pkg/errors"
	"github.com/matzehuels/latex2image/pkg/latex"
	"github.com/matzehuels/latex2image/pkg/observability"
)

// convertCommand creates the convert command for one-shot conversions.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		format string
		scale  string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "convert [equation|-]",
		Short: "Convert one equation to an image",
		Long: `Convert one equation to an image.

The equation is read from the argument, or from stdin when the argument is
"-" or missing. It goes through the same validation, sandbox and transcoding
as the HTTP service.`,
		Example: `  latex2image convert 'e^{i\pi} + 1 = 0'
  latex2image convert -f SVG -s 200% -o euler.svg 'e^{i\pi} + 1 = 0'
  echo '\sum_{n=1}^\infty \frac{1}{n^2}' | latex2image convert -f JPG`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			input, err := readEquation(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cfg, nil)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(ctx, "Validating...")
			spinner.Start()
			observability.SetConversionHooks(spinnerHooks{s: spinner})
			defer observability.Reset()
			prog := newProgress(logger)

			res, err := runner.Convert(ctx, latex.RawRequest{
				Input:  input,
				Format: strings.ToUpper(format),
				Scale:  scale,
			})
			if err != nil {
				spinner.StopWithError(errors.PublicMessage(err))
				return fmt.Errorf("convert: %s", errors.GetCode(err))
			}
			spinner.Stop()

			path := res.File
			if out != "" {
				if err := moveFile(res.File, out); err != nil {
					return err
				}
				path = out
			}

			prog.done("converted " + res.Identity)
			printSuccess("Converted to %s", StyleHighlight.Render(string(res.Format)))
			printFile(path)
			printKeyValue("compile", res.Stats.Compile.Round(1e6).String())
			printKeyValue("transcode", res.Stats.Transcode.Round(1e6).String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(latex.FormatPNG), "output format: SVG, PNG or JPG")
	cmd.Flags().StringVarP(&scale, "scale", "s", latex.DefaultScale, "output scale: "+strings.Join(latex.Scales(), ", "))
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the image here instead of the output directory")
	cmd.Flags().String("output-dir", "", "output directory (overrides config)")
	addSandboxFlags(cmd)

	return cmd
}

// readEquation returns the equation from args, or from stdin when args is
// empty or "-".
func readEquation(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return os.Remove(src)
}

// spinnerHooks moves the spinner message along with the conversion.
type spinnerHooks struct {
	observability.NoopConversionHooks
	s *Spinner
}

func (h spinnerHooks) OnAdmitted(context.Context, string, time.Duration) {
	h.s.SetMessage("Compiling...")
}

func (h spinnerHooks) OnCompileComplete(_ context.Context, _ string, _ time.Duration, err error) {
	if err == nil {
		h.s.SetMessage("Transcoding...")
	}
}
