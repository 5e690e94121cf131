// Package experiment describes the phase structure of an experiment and the
// trial categories it uses.
package experiment

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/trialgrid/phasegrid"
)

// ErrInvalidProtocol is returned when a protocol description is malformed.
var ErrInvalidProtocol = errors.New("invalid protocol")

// Protocol describes the phases of one experiment and how its trial
// categories are drawn.
type Protocol struct {
	Title        string     `yaml:"title"`
	RowsPerPhase int        `yaml:"rows_per_phase"`
	Start        int        `yaml:"start"`
	Gap          Gap        `yaml:"gap"`
	Phases       []Phase    `yaml:"phases"`
	Categories   []Category `yaml:"categories"`
	Border       Border     `yaml:"border"`
}

// Gap controls the horizontal space between phases.
type Gap struct {
	Default   float64 `yaml:"default"`
	Wide      float64 `yaml:"wide"`
	WideAfter string  `yaml:"wide_after"`
}

// Phase is one block of trials, ending before the trial with index End.
type Phase struct {
	Label string `yaml:"label"`
	End   int    `yaml:"end"`
}

// Category is one trial condition.
type Category struct {
	Code  int    `yaml:"code"`
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// Border is the cell outline.
type Border struct {
	Color string  `yaml:"color"`
	Width float64 `yaml:"width"`
}

// Default returns the force-field adaptation protocol: familiarisation,
// training, refamiliarisation, two null phases and two curl-field learning
// phases over 2450 trials.
func Default() *Protocol {
	return &Protocol{
		Title:        "Trial Setup",
		RowsPerPhase: 25,
		Start:        0,
		Gap: Gap{
			Default:   3,
			Wide:      15,
			WideAfter: "Training",
		},
		Phases: []Phase{
			{Label: "Familiarisation", End: 50},
			{Label: "Training", End: 440},
			{Label: "Refam.", End: 450},
			{Label: "Null 1", End: 610},
			{Label: "Null 2", End: 1450},
			{Label: "Learning CF (early)", End: 1610},
			{Label: "Learning CF (mid-late/generalisation)", End: 2450},
		},
		Categories: []Category{
			{Code: 0, Name: "No Force (NF)", Color: "#ffffff"},
			{Code: 1, Name: "Force Channel (FC)", Color: "#99ff99"},
			{Code: 2, Name: "Divergent Force Field (DF)", Color: "#ff9999"},
			{Code: 3, Name: "Curl Force Field (CF/VF)", Color: "#9999ff"},
		},
		Border: Border{
			Color: "#3070B3",
			Width: 1.5,
		},
	}
}

// Load reads a protocol from a YAML file. Fields missing from the file keep
// the values of the default protocol, except phases and categories, which
// replace the defaults as a whole when present.
func Load(path string) (*Protocol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open protocol: %w", err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// Parse reads a protocol from YAML and validates it.
func Parse(r io.Reader) (*Protocol, error) {
	p := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProtocol, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Marshal writes the protocol as YAML.
func (p *Protocol) Marshal(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(p); err != nil {
		return err
	}

	return enc.Close()
}

// Boundaries returns the phase boundary list, starting with Start.
func (p *Protocol) Boundaries() []int {
	boundaries := make([]int, 0, len(p.Phases)+1)
	boundaries = append(boundaries, p.Start)

	for _, ph := range p.Phases {
		boundaries = append(boundaries, ph.End)
	}

	return boundaries
}

// Labels returns the phase labels in order.
func (p *Protocol) Labels() []string {
	labels := make([]string, 0, len(p.Phases))
	for _, ph := range p.Phases {
		labels = append(labels, ph.Label)
	}

	return labels
}

// Validate checks the protocol for internal consistency. Whether the phases
// fit a particular trial sequence is only known at layout time.
func (p *Protocol) Validate() error {
	if p.RowsPerPhase <= 0 {
		return fmt.Errorf("%w: rows_per_phase must be positive, got %d",
			ErrInvalidProtocol, p.RowsPerPhase)
	}

	if p.Gap.Default < 0 || p.Gap.Wide < 0 {
		return fmt.Errorf("%w: gaps must not be negative",
			ErrInvalidProtocol)
	}

	if len(p.Phases) == 0 {
		return fmt.Errorf("%w: no phases", ErrInvalidProtocol)
	}

	if p.Start < 0 {
		return fmt.Errorf("%w: start must not be negative, got %d",
			ErrInvalidProtocol, p.Start)
	}

	prev := p.Start
	for i, ph := range p.Phases {
		if ph.End < prev {
			return fmt.Errorf("%w: phase %d (%q) ends at %d, before %d",
				ErrInvalidProtocol, i, ph.Label, ph.End, prev)
		}

		prev = ph.End
	}

	if len(p.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidProtocol)
	}

	if _, err := p.Palette(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProtocol, err)
	}

	if _, err := p.CellBorder(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProtocol, err)
	}

	return nil
}

// Palette builds the category palette of the protocol.
func (p *Protocol) Palette() (*phasegrid.Palette, error) {
	categories := make([]phasegrid.Category, 0, len(p.Categories))

	for _, c := range p.Categories {
		col, err := phasegrid.ParseColor(c.Color)
		if err != nil {
			return nil, fmt.Errorf("category %d: %w", c.Code, err)
		}

		categories = append(categories, phasegrid.Category{
			Code:  c.Code,
			Name:  c.Name,
			Color: col,
		})
	}

	return phasegrid.NewPalette(categories...)
}

// CellBorder returns the outline drawn around cells and legend swatches. An
// empty colour selects the default border colour.
func (p *Protocol) CellBorder() (phasegrid.Border, error) {
	if p.Border.Width < 0 {
		return phasegrid.Border{}, fmt.Errorf(
			"border width must not be negative, got %g", p.Border.Width)
	}

	border := phasegrid.DefaultBorder()
	border.Width = p.Border.Width

	if p.Border.Color == "" {
		return border, nil
	}

	col, err := phasegrid.ParseColor(p.Border.Color)
	if err != nil {
		return phasegrid.Border{}, fmt.Errorf("border: %w", err)
	}
	border.Color = col

	return border, nil
}

// Layouter builds the layouter described by the protocol.
func (p *Protocol) Layouter(logger *zap.Logger) (*phasegrid.Layouter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	palette, _ := p.Palette()
	border, _ := p.CellBorder()

	return phasegrid.MakeBuilder().
		WithRowsPerPhase(p.RowsPerPhase).
		WithDefaultGap(p.Gap.Default).
		WithWideGapAfter(p.Gap.WideAfter, p.Gap.Wide).
		WithPalette(palette).
		WithBorder(border).
		WithLogger(logger).
		Build(), nil
}

// Layout lays out the trials on the phases of the protocol.
func (p *Protocol) Layout(
	trials phasegrid.Sequence,
	logger *zap.Logger,
) (*phasegrid.Grid, error) {
	l, err := p.Layouter(logger)
	if err != nil {
		return nil, err
	}

	return l.Layout(trials, p.Boundaries(), p.Labels())
}
