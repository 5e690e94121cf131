package render

import (
	"fmt"
	"image/color"

	"github.com/sarchlab/trialgrid/phasegrid"
)

// Style controls the text and background of a figure. Sizes are in points.
type Style struct {
	Title     string
	TextColor color.RGBA

	TitleSize  float64
	LabelSize  float64
	LegendSize float64

	// LabelOffset is the distance from the bottom of the grid to the phase
	// label baseline, in grid units.
	LabelOffset float64

	// LegendText and LegendFrame colour the legend box.
	LegendText  color.RGBA
	LegendFrame color.RGBA

	Background  color.RGBA
	Transparent bool
}

// DefaultStyle returns white text on a transparent background.
func DefaultStyle() Style {
	return Style{
		Title:       "Trial Setup",
		TextColor:   color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		TitleSize:   14,
		LabelSize:   10,
		LegendSize:  10,
		LabelOffset: 1.5,
		LegendText:  color.RGBA{A: 0xff},
		LegendFrame: color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xcc},
		Background:  color.RGBA{A: 0xff},
		Transparent: true,
	}
}

// Figure is everything needed to draw one image.
type Figure struct {
	Grid   *phasegrid.Grid
	Legend []phasegrid.Category
	Style  Style

	// LegendBorder outlines the legend swatches.
	LegendBorder phasegrid.Border

	WidthIn  float64
	HeightIn float64
	DPI      float64
}

// maxPixels bounds the longest side of a raster image.
const maxPixels = 32768

// NewFigure creates a figure of the default size, 15 by 6 inches at 600 DPI,
// with the default style.
func NewFigure(grid *phasegrid.Grid, legend []phasegrid.Category) Figure {
	return Figure{
		Grid:         grid,
		Legend:       legend,
		Style:        DefaultStyle(),
		LegendBorder: phasegrid.DefaultBorder(),
		WidthIn:      15,
		HeightIn:     6,
		DPI:          600,
	}
}

// Validate checks that the figure can be drawn.
func (f Figure) Validate() error {
	if f.Grid == nil {
		return fmt.Errorf("%w: no grid", ErrInvalidFigure)
	}

	if f.Grid.Rows <= 0 {
		return fmt.Errorf("%w: grid has %d rows", ErrInvalidFigure, f.Grid.Rows)
	}

	if !(f.WidthIn > 0) || !(f.HeightIn > 0) {
		return fmt.Errorf("%w: size %gx%g in", ErrInvalidFigure,
			f.WidthIn, f.HeightIn)
	}

	if !(f.DPI > 0) {
		return fmt.Errorf("%w: dpi %g", ErrInvalidFigure, f.DPI)
	}

	s := f.Style
	if s.TitleSize < 0 || s.LabelSize < 0 || s.LegendSize < 0 {
		return fmt.Errorf("%w: negative font size", ErrInvalidFigure)
	}

	return nil
}

// PixelSize returns the raster size of the figure.
func (f Figure) PixelSize() (int, int) {
	return int(f.WidthIn*f.DPI + 0.5), int(f.HeightIn*f.DPI + 0.5)
}
