package render

import (
	"fmt"
	"image/color"
	"math"

	"golang.org/x/image/font"
)

type anchor int

const (
	anchorStart anchor = iota
	anchorMiddle
)

// box is a rectangle in canvas units with y pointing down.
type box struct {
	x0, y0, x1, y1 float64
}

func (b box) inset(d float64) box {
	return box{b.x0 + d, b.y0 + d, b.x1 - d, b.y1 - d}
}

func (b box) empty() bool {
	return b.x0 >= b.x1 || b.y0 >= b.y1
}

type shape struct {
	box         box
	fill        color.RGBA
	stroke      color.RGBA
	strokeWidth float64
}

type text struct {
	s      string
	x, y   float64
	size   float64
	face   font.Face
	anchor anchor
	color  color.RGBA
}

// left returns the x coordinate the text starts at.
func (t text) left() float64 {
	if t.anchor == anchorMiddle {
		return t.x - textWidth(t.face, t.s)/2
	}

	return t.x
}

type scene struct {
	width, height float64
	background    *color.RGBA
	shapes        []shape
	texts         []text
}

// composer turns a figure into a scene for a canvas with the given number of
// units per inch.
type composer struct {
	fig Figure
	upi float64
	pt  float64

	titleFace, labelFace, legendFace font.Face
}

func compose(fig Figure, upi float64) (*scene, error) {
	if err := fig.Validate(); err != nil {
		return nil, err
	}

	c := &composer{fig: fig, upi: upi, pt: upi / 72}
	if err := c.loadFaces(); err != nil {
		return nil, err
	}

	return c.compose()
}

func (c *composer) loadFaces() error {
	var err error
	s := c.fig.Style

	if c.titleFace, err = newFace(s.TitleSize, c.upi); err != nil {
		return err
	}

	if c.labelFace, err = newFace(s.LabelSize, c.upi); err != nil {
		return err
	}

	c.legendFace, err = newFace(s.LegendSize, c.upi)

	return err
}

func (c *composer) compose() (*scene, error) {
	fig := c.fig
	s := fig.Style

	sc := &scene{
		width:  fig.WidthIn * c.upi,
		height: fig.HeightIn * c.upi,
	}

	if !s.Transparent {
		bg := s.Background
		sc.background = &bg
	}

	margin := 0.02 * sc.height

	titleHeight := 0.0
	if s.Title != "" && s.TitleSize > 0 {
		titleHeight = 1.6 * s.TitleSize * c.pt
	}

	legendBox := c.legendBox(margin, sc.width)

	header := margin + math.Max(titleHeight, legendBox.y1-legendBox.y0)
	plot := box{margin, header + margin, sc.width - margin, sc.height - margin}
	if plot.empty() {
		return nil, fmt.Errorf("%w: %gx%g in leaves no room for the grid",
			ErrInvalidFigure, fig.WidthIn, fig.HeightIn)
	}

	c.addGrid(sc, plot)

	if titleHeight > 0 {
		sc.texts = append(sc.texts, text{
			s:      s.Title,
			x:      sc.width / 2,
			y:      margin + s.TitleSize*c.pt,
			size:   s.TitleSize * c.pt,
			face:   c.titleFace,
			anchor: anchorMiddle,
			color:  s.TextColor,
		})
	}

	c.addLegend(sc, legendBox)

	return sc, nil
}

// addGrid scales the data extent, x in [0, width] and y in [ymin, rows+1],
// into plot with equal units on both axes.
func (c *composer) addGrid(sc *scene, plot box) {
	grid := c.fig.Grid
	s := c.fig.Style

	xRange := grid.Width
	if xRange <= 0 {
		xRange = 1
	}

	yMin := math.Min(-2, -s.LabelOffset-0.5)
	yMax := float64(grid.Rows) + 1
	yRange := yMax - yMin

	plotW, plotH := plot.x1-plot.x0, plot.y1-plot.y0
	scale := math.Min(plotW/xRange, plotH/yRange)

	ox := plot.x0 + (plotW-xRange*scale)/2
	oy := plot.y0 + (plotH-yRange*scale)/2

	toX := func(x float64) float64 { return ox + x*scale }
	toY := func(y float64) float64 { return oy + (yMax-y)*scale }

	for _, p := range grid.Phases {
		for _, cell := range p.Cells {
			sc.shapes = append(sc.shapes, shape{
				box: box{
					toX(cell.X), toY(cell.Y + cell.Size),
					toX(cell.X + cell.Size), toY(cell.Y),
				},
				fill:        cell.Fill,
				stroke:      cell.Border.Color,
				strokeWidth: cell.Border.Width * c.pt,
			})
		}

		if p.Label == "" || s.LabelSize <= 0 {
			continue
		}

		sc.texts = append(sc.texts, text{
			s:      p.Label,
			x:      toX(p.LabelX),
			y:      toY(-s.LabelOffset),
			size:   s.LabelSize * c.pt,
			face:   c.labelFace,
			anchor: anchorMiddle,
			color:  s.TextColor,
		})
	}
}

func (c *composer) legendMetrics() (row, pad, swatchW, swatchH float64) {
	size := c.fig.Style.LegendSize * c.pt
	return 1.5 * size, 0.5 * size, 2 * size, 0.7 * size
}

// legendBox returns the frame of the single-column legend in the upper left
// of the header band. It is empty when there is no legend.
func (c *composer) legendBox(margin, width float64) box {
	s := c.fig.Style
	if len(c.fig.Legend) == 0 || s.LegendSize <= 0 {
		return box{}
	}

	row, pad, swatchW, _ := c.legendMetrics()

	textW := 0.0
	for _, cat := range c.fig.Legend {
		textW = math.Max(textW, textWidth(c.legendFace, cat.Name))
	}

	x0 := margin + 0.05*(width-2*margin)
	y0 := margin
	w := pad + swatchW + 0.8*s.LegendSize*c.pt + textW + pad
	h := 2*pad + float64(len(c.fig.Legend))*row

	return box{x0, y0, x0 + w, y0 + h}
}

func (c *composer) addLegend(sc *scene, frame box) {
	if frame.empty() {
		return
	}

	s := c.fig.Style
	size := s.LegendSize * c.pt
	row, pad, swatchW, swatchH := c.legendMetrics()

	sc.shapes = append(sc.shapes, shape{box: frame, fill: s.LegendFrame})

	for i, cat := range c.fig.Legend {
		top := frame.y0 + pad + float64(i)*row
		x := frame.x0 + pad
		y := top + (row-swatchH)/2

		sc.shapes = append(sc.shapes, shape{
			box:         box{x, y, x + swatchW, y + swatchH},
			fill:        cat.Color,
			stroke:      c.fig.LegendBorder.Color,
			strokeWidth: c.fig.LegendBorder.Width * c.pt,
		})

		sc.texts = append(sc.texts, text{
			s:     cat.Name,
			x:     x + swatchW + 0.8*size,
			y:     top + row/2 + 0.35*size,
			size:  size,
			face:  c.legendFace,
			color: s.LegendText,
		})
	}
}
