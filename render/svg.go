package render

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/sarchlab/trialgrid/phasegrid"
)

// SVG draws the figure as a vector image in points.
func SVG(w io.Writer, fig Figure) error {
	sc, err := compose(fig, 72)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" `+
		`width="%sin" height="%sin" viewBox="0 0 %s %s">`+"\n",
		num(fig.WidthIn), num(fig.HeightIn), num(sc.width), num(sc.height))

	if sc.background != nil {
		fmt.Fprintf(bw, `<rect width="100%%" height="100%%"%s/>`+"\n",
			paintAttr("fill", *sc.background))
	}

	for _, s := range sc.shapes {
		writeShape(bw, s)
	}

	for _, t := range sc.texts {
		writeText(bw, t)
	}

	fmt.Fprintln(bw, "</svg>")

	return bw.Flush()
}

func writeShape(w io.Writer, s shape) {
	stroke := ""
	if s.strokeWidth > 0 && s.stroke.A > 0 {
		stroke = paintAttr("stroke", s.stroke) +
			fmt.Sprintf(` stroke-width="%s"`, num(s.strokeWidth))
	}

	fill := paintAttr("fill", s.fill)
	if s.fill.A == 0 {
		fill = ` fill="none"`
	}

	fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="%s"%s%s/>`+"\n",
		num(s.box.x0), num(s.box.y0),
		num(s.box.x1-s.box.x0), num(s.box.y1-s.box.y0),
		fill, stroke)
}

func writeText(w io.Writer, t text) {
	anchor := "start"
	if t.anchor == anchorMiddle {
		anchor = "middle"
	}

	fmt.Fprintf(w, `<text x="%s" y="%s" font-family="Go, sans-serif" `+
		`font-size="%s" text-anchor="%s"%s>`,
		num(t.x), num(t.y), num(t.size), anchor, paintAttr("fill", t.color))
	xml.EscapeText(w, []byte(t.s))
	fmt.Fprintln(w, "</text>")
}

// paintAttr writes a colour attribute. color.RGBA is alpha-premultiplied
// while SVG colours are not.
func paintAttr(name string, c color.RGBA) string {
	if c.A != 0 && c.A != 0xff {
		c.R = uint8(uint32(c.R) * 0xff / uint32(c.A))
		c.G = uint8(uint32(c.G) * 0xff / uint32(c.A))
		c.B = uint8(uint32(c.B) * 0xff / uint32(c.A))
	}

	attr := fmt.Sprintf(` %s="%s"`, name, phasegrid.HexColor(c))
	if c.A != 0xff {
		attr += fmt.Sprintf(` %s-opacity="%s"`, name, num(float64(c.A)/0xff))
	}

	return attr
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 32)
}
