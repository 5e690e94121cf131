package phasegrid

import "go.uber.org/zap"

// Builder can be used to build a Layouter.
type Builder struct {
	rowsPerPhase int
	defaultGap   float64
	wideGapAfter string
	wideGap      float64
	palette      *Palette
	border       Border
	logger       *zap.Logger
}

// MakeBuilder creates a builder with the defaults of the force-field
// experiment: 25 rows, a gap of 3 between phases and a gap of 15 after the
// training phase.
func MakeBuilder() Builder {
	return Builder{
		rowsPerPhase: 25,
		defaultGap:   3,
		wideGapAfter: "Training",
		wideGap:      15,
		palette:      DefaultPalette(),
		border:       DefaultBorder(),
		logger:       zap.NewNop(),
	}
}

// WithRowsPerPhase sets the fixed height of every phase.
func (b Builder) WithRowsPerPhase(rows int) Builder {
	b.rowsPerPhase = rows
	return b
}

// WithDefaultGap sets the space left after each phase.
func (b Builder) WithDefaultGap(gap float64) Builder {
	b.defaultGap = gap
	return b
}

// WithWideGapAfter sets the label of the phase that is followed by a
// different gap, and that gap. An empty label disables the wide gap.
func (b Builder) WithWideGapAfter(label string, gap float64) Builder {
	b.wideGapAfter = label
	b.wideGap = gap
	return b
}

// WithPalette sets the category palette.
func (b Builder) WithPalette(p *Palette) Builder {
	b.palette = p
	return b
}

// WithBorder sets the cell outline.
func (b Builder) WithBorder(border Border) Builder {
	b.border = border
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger *zap.Logger) Builder {
	b.logger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if err := b.validate(); err != nil {
		panic(err)
	}
}

func (b Builder) validate() error {
	if b.rowsPerPhase <= 0 {
		return paramErrorf("rows per phase must be positive, got %d",
			b.rowsPerPhase)
	}

	if b.defaultGap < 0 {
		return paramErrorf("default gap must not be negative, got %g",
			b.defaultGap)
	}

	if b.wideGap < 0 {
		return paramErrorf("gap after %q must not be negative, got %g",
			b.wideGapAfter, b.wideGap)
	}

	if b.palette == nil {
		return paramErrorf("palette is not set")
	}

	if b.border.Width < 0 {
		return paramErrorf("border width must not be negative, got %g",
			b.border.Width)
	}

	return nil
}

// Build creates the Layouter. It panics if a parameter is invalid.
func (b Builder) Build() *Layouter {
	b.parametersMustBeValid()

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Layouter{
		rowsPerPhase: b.rowsPerPhase,
		defaultGap:   b.defaultGap,
		wideGapAfter: b.wideGapAfter,
		wideGap:      b.wideGap,
		palette:      b.palette,
		border:       b.border,
		logger:       logger,
	}
}
