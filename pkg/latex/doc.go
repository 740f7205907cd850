// Package latex models conversion requests and the LaTeX document built
// from them.
//
// # Requests
//
// A [RawRequest] carries the three untrusted fields a caller sends: the
// equation text, the output format token and the scale token. [Validate]
// turns it into a [Request] or returns a structured error from
// [github.com/matzehuels/latex2image/pkg/errors]:
//
//	req, err := latex.Validate(latex.RawRequest{
//	    Input:  `\frac{\pi}{2}`,
//	    Format: "SVG",
//	    Scale:  "100%",
//	})
//
// # Documents
//
// [WriteDocument] wraps a validated equation in a fixed article template
// (12pt, AMS packages, xcolor, siunitx) and writes it together with a
// texmf.cnf that keeps the typesetter inside its working directory.
package latex
