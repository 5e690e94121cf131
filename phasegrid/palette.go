package phasegrid

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Category describes one trial condition and how it is drawn.
type Category struct {
	Code  int
	Name  string
	Color color.RGBA
}

// Palette is a closed mapping from category code to category. Codes that are
// not in the palette cannot be laid out.
type Palette struct {
	categories map[int]Category
}

// NewPalette creates a palette from the given categories. Codes must be
// non-negative and unique.
func NewPalette(categories ...Category) (*Palette, error) {
	p := &Palette{
		categories: make(map[int]Category, len(categories)),
	}

	for _, c := range categories {
		if c.Code < 0 {
			return nil, fmt.Errorf("%w: negative category code %d",
				ErrInvalidParameter, c.Code)
		}

		if _, dup := p.categories[c.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate category code %d",
				ErrInvalidParameter, c.Code)
		}

		p.categories[c.Code] = c
	}

	return p, nil
}

// MustNewPalette is like NewPalette but panics on error.
func MustNewPalette(categories ...Category) *Palette {
	p, err := NewPalette(categories...)
	if err != nil {
		panic(err)
	}

	return p
}

// DefaultPalette returns the palette of the force-field adaptation
// experiment: no force, force channel, divergent field and curl field.
func DefaultPalette() *Palette {
	return MustNewPalette(
		Category{Code: 0, Name: "No Force (NF)",
			Color: MustParseColor("#ffffff")},
		Category{Code: 1, Name: "Force Channel (FC)",
			Color: MustParseColor("#99ff99")},
		Category{Code: 2, Name: "Divergent Force Field (DF)",
			Color: MustParseColor("#ff9999")},
		Category{Code: 3, Name: "Curl Force Field (CF/VF)",
			Color: MustParseColor("#9999ff")},
	)
}

// Lookup returns the category registered under code.
func (p *Palette) Lookup(code int) (Category, bool) {
	c, ok := p.categories[code]
	return c, ok
}

// Len returns the number of categories.
func (p *Palette) Len() int {
	return len(p.categories)
}

// Legend returns all categories ordered by code.
func (p *Palette) Legend() []Category {
	legend := make([]Category, 0, len(p.categories))
	for _, c := range p.categories {
		legend = append(legend, c)
	}

	sort.Slice(legend, func(i, j int) bool {
		return legend[i].Code < legend[j].Code
	})

	return legend
}

// ParseColor parses a "#rrggbb" or "#rgb" colour. The leading "#" is
// optional.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimSpace(s)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: colour %q: %v",
			ErrInvalidParameter, s, err)
	}

	r, g, b := c.RGB255()

	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// MustParseColor is like ParseColor but panics on error.
func MustParseColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}

	return c
}

// HexColor formats c as "#rrggbb".
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
