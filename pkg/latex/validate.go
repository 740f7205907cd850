package latex

import (
	"fmt"
	"strings"

	"github.com/matzehuels/latex2image/pkg/errors"
)

// Denylist holds the commands rejected in equation input. They can read or
// write files, pull in external sources, or escape to a shell.
//
// Matching is by substring, so longer commands sharing a prefix
// (\includegraphics, \input@path) are caught too. This is a second line of
// defense; isolation is the sandbox's job.
var Denylist = []string{
	`\usepackage`,
	`\input`,
	`\include`,
	`\write18`,
	`\immediate`,
	`\verbatiminput`,
	`\openin`,
	`\openout`,
}

// Validate checks a raw request and returns the validated form.
//
// Checks run in order and stop at the first failure: missing input, unknown
// scale, unknown format, denylisted commands. The unsupported-command error
// lists every offending command found. Validate has no side effects.
func Validate(raw RawRequest) (Request, error) {
	equation := strings.TrimSpace(raw.Input)
	if equation == "" {
		return Request{}, errors.New(errors.ErrCodeMissingInput, "No LaTeX input provided.")
	}

	factor, ok := ScaleFactor(raw.Scale)
	if !ok {
		return Request{}, errors.New(errors.ErrCodeInvalidScale, "Invalid scale.")
	}

	format := Format(raw.Format)
	if !ValidFormats[format] {
		return Request{}, errors.New(errors.ErrCodeInvalidFormat, "Invalid image format.")
	}

	if found := UnsupportedCommands(raw.Input); len(found) > 0 {
		return Request{}, errors.New(errors.ErrCodeUnsupportedCommand,
			"Unsupported command(s) found: %s. Please remove them and try again.",
			strings.Join(found, ", "))
	}

	return Request{
		Equation: equation,
		Format:   format,
		Scale:    raw.Scale,
		Factor:   factor,
	}, nil
}

// UnsupportedCommands returns the denylisted commands present in input,
// in denylist order, each at most once.
func UnsupportedCommands(input string) []string {
	var found []string
	for _, cmd := range Denylist {
		if strings.Contains(input, cmd) {
			found = append(found, cmd)
		}
	}
	return found
}

// String implements fmt.Stringer for log output.
func (r Request) String() string {
	return fmt.Sprintf("%s@%s (%d bytes)", r.Format, r.Scale, len(r.Equation))
}
