package latex

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// Well-known file names inside a workspace.
const (
	SourceFile = "equation.tex"
	DVIFile    = "equation.dvi"
	SVGFile    = "equation.svg"

	// ConfigFile restricts the typesetter's file access to the working
	// directory. The sandbox points TEXMFCNF at the workspace so it is read
	// before the system configuration.
	ConfigFile = "texmf.cnf"
)

// Document template parameters.
const (
	DocumentClass = "article"
	FontSize      = "12pt"
)

// Packages is the fixed preamble loaded for every equation.
var Packages = []Package{
	{Name: "amsmath"},
	{Name: "amssymb"},
	{Name: "amsfonts"},
	{Name: "xcolor"},
	{Name: "siunitx"},
	{Name: "inputenc", Options: "utf8"},
}

// Package is a LaTeX package with optional options.
type Package struct {
	Name    string
	Options string
}

var documentTmpl = template.Must(template.New("document").Parse(
	`\documentclass[{{.FontSize}}]{{"{"}}{{.Class}}{{"}"}}
{{range .Packages}}\usepackage{{if .Options}}[{{.Options}}]{{end}}{{"{"}}{{.Name}}{{"}"}}
{{end}}\thispagestyle{empty}
\begin{document}
{{.Equation}}
\end{document}
`))

const texmfConfig = "openout_any = p\nopenin_any = p\n"

type documentData struct {
	Class    string
	FontSize string
	Packages []Package
	Equation string
}

// RenderDocument returns the complete document source for equation.
// The equation must already have passed Validate.
func RenderDocument(equation string) ([]byte, error) {
	var buf bytes.Buffer
	err := documentTmpl.Execute(&buf, documentData{
		Class:    DocumentClass,
		FontSize: FontSize,
		Packages: Packages,
		Equation: equation,
	})
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDocument renders equation and writes the source and the restricted
// typesetter configuration into dir.
func WriteDocument(dir, equation string) error {
	src, err := RenderDocument(equation)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, SourceFile), src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", SourceFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(texmfConfig), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ConfigFile, err)
	}
	return nil
}
