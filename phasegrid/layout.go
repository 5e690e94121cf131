package phasegrid

import (
	"fmt"

	"go.uber.org/zap"
)

// Layouter places trial sequences on a phase grid.
type Layouter struct {
	rowsPerPhase int
	defaultGap   float64
	wideGapAfter string
	wideGap      float64
	palette      *Palette
	border       Border
	logger       *zap.Logger
}

// Layout computes the grid for one run with every parameter given
// explicitly. Unlike the Builder, it reports bad parameters as
// ErrInvalidParameter instead of panicking.
func Layout(
	trials Sequence,
	boundaries []int,
	labels []string,
	rowsPerPhase int,
	gapDefault float64,
	gapAfterLabel string,
	gapAfter float64,
	palette *Palette,
) (*Grid, error) {
	b := MakeBuilder().
		WithRowsPerPhase(rowsPerPhase).
		WithDefaultGap(gapDefault).
		WithWideGapAfter(gapAfterLabel, gapAfter).
		WithPalette(palette)

	if err := b.validate(); err != nil {
		return nil, err
	}

	return b.Build().Layout(trials, boundaries, labels)
}

// RowsPerPhase returns the fixed height of every phase.
func (l *Layouter) RowsPerPhase() int {
	return l.rowsPerPhase
}

// Palette returns the palette used to colour cells.
func (l *Layouter) Palette() *Palette {
	return l.palette
}

// GapAfter returns the space left after a phase with the given label.
func (l *Layouter) GapAfter(label string) float64 {
	if l.wideGapAfter != "" && label == l.wideGapAfter {
		return l.wideGap
	}

	return l.defaultGap
}

// Layout places the trials between boundaries[0] and the last boundary on
// the grid. Phase i covers trials[boundaries[i]:boundaries[i+1]] and carries
// labels[i].
//
// The input is validated before anything is computed, so either a complete
// grid or an error wrapping ErrInvalidInput is returned.
func (l *Layouter) Layout(
	trials Sequence,
	boundaries []int,
	labels []string,
) (*Grid, error) {
	if err := l.Validate(trials, boundaries, labels); err != nil {
		return nil, err
	}

	grid := &Grid{
		Rows:   l.rowsPerPhase,
		Phases: make([]Phase, 0, len(labels)),
	}

	xOffset := 0.0
	for i, label := range labels {
		phase := l.layoutPhase(i, label, trials, boundaries[i],
			boundaries[i+1], xOffset)
		grid.Phases = append(grid.Phases, phase)

		xOffset += phase.Width() + phase.Gap
	}

	grid.Width = xOffset

	l.logger.Debug("grid laid out",
		zap.Int("phases", len(grid.Phases)),
		zap.Int("cells", grid.CellCount()),
		zap.Float64("width", grid.Width))

	return grid, nil
}

func (l *Layouter) layoutPhase(
	index int,
	label string,
	trials Sequence,
	start, end int,
	xOffset float64,
) Phase {
	n := end - start
	columns := (n + l.rowsPerPhase - 1) / l.rowsPerPhase

	phase := Phase{
		Index:   index,
		Label:   label,
		Start:   start,
		End:     end,
		Columns: columns,
		XOffset: xOffset,
		Gap:     l.GapAfter(label),
		LabelX:  xOffset + float64(columns)/2,
		Cells:   make([]Cell, 0, n),
	}

	for j, code := range trials[start:end] {
		row := j % l.rowsPerPhase
		col := j / l.rowsPerPhase
		category, _ := l.palette.Lookup(code)

		phase.Cells = append(phase.Cells, Cell{
			Trial:  start + j,
			Code:   code,
			Column: col,
			Row:    row,
			X:      xOffset + float64(col),
			Y:      float64(l.rowsPerPhase - row - 1),
			Size:   1,
			Fill:   category.Color,
			Border: l.border,
		})
	}

	return phase
}

// Validate checks the input of Layout without laying anything out.
func (l *Layouter) Validate(
	trials Sequence,
	boundaries []int,
	labels []string,
) error {
	if len(boundaries) != len(labels)+1 {
		return fmt.Errorf("%w: %d boundaries for %d labels, want %d",
			ErrLabelMismatch, len(boundaries), len(labels), len(labels)+1)
	}

	if err := checkBoundaries(boundaries, len(trials)); err != nil {
		return err
	}

	first, last := boundaries[0], boundaries[len(boundaries)-1]
	for i := first; i < last; i++ {
		if _, ok := l.palette.Lookup(trials[i]); !ok {
			return fmt.Errorf("%w: trial %d has code %d, known codes are %v",
				ErrUnknownCategory, i, trials[i], codes(l.palette))
		}
	}

	return nil
}

func checkBoundaries(boundaries []int, numTrials int) error {
	for i, b := range boundaries {
		if b < 0 || b > numTrials {
			return fmt.Errorf("%w: boundary %d is %d, sequence has %d trials",
				ErrBoundaryRange, i, b, numTrials)
		}

		if i > 0 && b < boundaries[i-1] {
			return fmt.Errorf("%w: boundary %d (%d) is before boundary %d (%d)",
				ErrBoundaryRange, i, b, i-1, boundaries[i-1])
		}
	}

	return nil
}

func codes(p *Palette) []int {
	legend := p.Legend()

	out := make([]int, 0, len(legend))
	for _, c := range legend {
		out = append(out, c.Code)
	}

	return out
}

func paramErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
