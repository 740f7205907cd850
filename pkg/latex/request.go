package latex

import (
	"sort"
	"strconv"
	"strings"
)

// Format is an output image format.
type Format string

// Supported output formats. The values are the wire tokens sent by the UI.
const (
	FormatSVG Format = "SVG" // vector, copied as produced
	FormatPNG Format = "PNG" // raster with transparency
	FormatJPG Format = "JPG" // raster flattened onto white
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[Format]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatJPG: true,
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	return strings.ToLower(string(f))
}

// IsRaster reports whether the format requires rasterization.
func (f Format) IsRaster() bool {
	return f == FormatPNG || f == FormatJPG
}

// IsOpaque reports whether the format has no alpha channel.
func (f Format) IsOpaque() bool {
	return f == FormatJPG
}

// DefaultScale is the scale token used when a caller does not choose one.
const DefaultScale = "100%"

// scaleFactors maps the percentage tokens offered to callers onto the
// factors passed to dvisvgm --scale.
var scaleFactors = map[string]string{
	"10%":   "0.1",
	"25%":   "0.25",
	"50%":   "0.5",
	"75%":   "0.75",
	"100%":  "1.0",
	"125%":  "1.25",
	"150%":  "1.5",
	"200%":  "2.0",
	"500%":  "5.0",
	"1000%": "10.0",
}

// ScaleFactor resolves a percentage token to its scale factor.
func ScaleFactor(token string) (string, bool) {
	f, ok := scaleFactors[token]
	return f, ok
}

// Scales returns the accepted scale tokens in ascending order.
func Scales() []string {
	tokens := make([]string, 0, len(scaleFactors))
	for t := range scaleFactors {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return percent(tokens[i]) < percent(tokens[j])
	})
	return tokens
}

func percent(token string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(token, "%"))
	return n
}

// RawRequest is an untrusted conversion request as received from a caller.
type RawRequest struct {
	Input  string `json:"latexInput"`
	Format string `json:"outputFormat"`
	Scale  string `json:"outputScale"`
}

// Request is a validated conversion request. Build one with Validate.
type Request struct {
	Equation string // trimmed equation body
	Format   Format
	Scale    string // percentage token, e.g. "100%"
	Factor   string // resolved dvisvgm scale factor, e.g. "1.0"
}
