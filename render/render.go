// Package render draws a laid-out phase grid as a PNG or SVG figure.
//
// Both backends share one scene: the grid is scaled to fit the figure with a
// 1:1 aspect ratio, phase labels sit below it, and a header band above it
// holds the title and the legend.
package render

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format is an output image format.
type Format string

// Supported formats.
const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

var (
	// ErrUnsupportedFormat is returned for unknown output formats.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrInvalidFigure is returned when a figure cannot be drawn.
	ErrInvalidFigure = errors.New("invalid figure")
)

// ParseFormat converts a format name, such as "PNG" or ".svg", to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(name), "."))

	switch f {
	case FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatForPath returns the format matching the extension of path.
func FormatForPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat,
			path)
	}

	return ParseFormat(ext)
}

// Encode draws the figure in the given format.
func Encode(w io.Writer, format Format, fig Figure) error {
	switch format {
	case FormatPNG:
		return PNG(w, fig)
	case FormatSVG:
		return SVG(w, fig)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
