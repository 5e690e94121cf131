// Package phasegrid lays out a sequence of trials as a grid of unit cells,
// one sub-grid per experimental phase.
//
// Each phase fills a fixed number of rows column by column, top to bottom and
// then left to right. Phases are placed left to right with a gap between
// them. The layout is pure: it performs no I/O and returns every cell with
// its position and colour so that any backend can draw it.
package phasegrid

import "image/color"

// Sequence is an ordered list of trial category codes.
type Sequence []int

// Border is the outline drawn around every cell. Width is in points.
type Border struct {
	Color color.RGBA
	Width float64
}

// DefaultBorder returns the blue outline used by the default layout.
func DefaultBorder() Border {
	return Border{
		Color: MustParseColor("#3070B3"),
		Width: 1.5,
	}
}

// Cell is one trial drawn as a unit square.
//
// Column and Row locate the cell inside its phase, with row 0 at the top. X
// and Y are the bottom-left corner of the square in grid units, with the y
// axis pointing up.
type Cell struct {
	Trial  int
	Code   int
	Column int
	Row    int
	X      float64
	Y      float64
	Size   float64
	Fill   color.RGBA
	Border Border
}

// Phase is the laid-out sub-grid of one experimental phase.
type Phase struct {
	Index   int
	Label   string
	Start   int
	End     int
	Columns int

	// XOffset is the x coordinate of the left edge of the phase.
	XOffset float64

	// Gap is the horizontal space left after the phase.
	Gap float64

	// LabelX is the x coordinate the label is centred on.
	LabelX float64

	Cells []Cell
}

// NumTrials returns the number of trials in the phase.
func (p Phase) NumTrials() int {
	return p.End - p.Start
}

// Width returns the horizontal extent of the phase's cells.
func (p Phase) Width() float64 {
	return float64(p.Columns)
}

// Grid is the complete layout of a trial sequence.
type Grid struct {
	Rows   int
	Phases []Phase

	// Width is the running x offset after the last phase, including the gap
	// that follows it.
	Width float64
}

// CellCount returns the total number of cells in the grid.
func (g *Grid) CellCount() int {
	n := 0
	for _, p := range g.Phases {
		n += len(p.Cells)
	}

	return n
}

// Cells returns all cells of the grid in trial order.
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, g.CellCount())
	for _, p := range g.Phases {
		cells = append(cells, p.Cells...)
	}

	return cells
}

// PhaseByLabel returns the first phase with the given label.
func (g *Grid) PhaseByLabel(label string) (Phase, bool) {
	for _, p := range g.Phases {
		if p.Label == label {
			return p, true
		}
	}

	return Phase{}, false
}
