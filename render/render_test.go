package render

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"image/png"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/trialgrid/phasegrid"
)

func smallFigure() Figure {
	grid, err := phasegrid.MakeBuilder().
		WithRowsPerPhase(2).
		WithDefaultGap(1).
		Build().
		Layout(phasegrid.Sequence{0, 1, 2, 3, 1, 2},
			[]int{0, 4, 6}, []string{"A & B", "C"})
	Expect(err).NotTo(HaveOccurred())

	fig := NewFigure(grid, phasegrid.DefaultPalette().Legend())
	fig.WidthIn = 4
	fig.HeightIn = 3
	fig.DPI = 100

	return fig
}

var _ = Describe("Format", func() {
	It("should follow the file extension", func() {
		f, err := FormatForPath("out/figure.PNG")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(FormatPNG))

		f, err = FormatForPath("figure.svg")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(FormatSVG))
	})

	It("should reject unknown formats", func() {
		_, err := FormatForPath("figure.gif")
		Expect(err).To(MatchError(ErrUnsupportedFormat))

		_, err = FormatForPath("figure")
		Expect(err).To(MatchError(ErrUnsupportedFormat))

		err = Encode(&bytes.Buffer{}, Format("bmp"), smallFigure())
		Expect(err).To(MatchError(ErrUnsupportedFormat))
	})
})

var _ = Describe("Figure", func() {
	It("should default to the 15x6 inch, 600 DPI figure", func() {
		fig := NewFigure(&phasegrid.Grid{Rows: 25}, nil)

		w, h := fig.PixelSize()
		Expect(w).To(Equal(9000))
		Expect(h).To(Equal(3600))
		Expect(fig.Style.Title).To(Equal("Trial Setup"))
		Expect(fig.Style.Transparent).To(BeTrue())
	})

	It("should reject figures that cannot be drawn", func() {
		fig := smallFigure()
		fig.Grid = nil
		Expect(fig.Validate()).To(MatchError(ErrInvalidFigure))

		fig = smallFigure()
		fig.DPI = 0
		Expect(fig.Validate()).To(MatchError(ErrInvalidFigure))

		fig = smallFigure()
		fig.WidthIn = -1
		Expect(fig.Validate()).To(MatchError(ErrInvalidFigure))

		fig = smallFigure()
		fig.DPI = 100000
		Expect(PNG(&bytes.Buffer{}, fig)).To(MatchError(ErrInvalidFigure))

		fig = smallFigure()
		fig.HeightIn = 0.2
		Expect(SVG(&bytes.Buffer{}, fig)).To(MatchError(ErrInvalidFigure))
	})
})

var _ = Describe("Scene", func() {
	var (
		fig Figure
		sc  *scene
	)

	BeforeEach(func() {
		var err error
		fig = smallFigure()
		sc, err = compose(fig, fig.DPI)
		Expect(err).NotTo(HaveOccurred())
	})

	cellShapes := func() []shape {
		return sc.shapes[:fig.Grid.CellCount()]
	}

	It("should draw every cell as a square", func() {
		Expect(cellShapes()).To(HaveLen(6))

		for _, s := range cellShapes() {
			w := s.box.x1 - s.box.x0
			h := s.box.y1 - s.box.y0
			Expect(w).To(BeNumerically("~", h, 1e-9))
			Expect(s.strokeWidth).To(BeNumerically("~", 1.5*100/72, 1e-9))
		}
	})

	It("should keep the grid inside the canvas", func() {
		for _, s := range cellShapes() {
			Expect(s.box.x0).To(BeNumerically(">=", 0))
			Expect(s.box.y0).To(BeNumerically(">=", 0))
			Expect(s.box.x1).To(BeNumerically("<=", sc.width))
			Expect(s.box.y1).To(BeNumerically("<=", sc.height))
		}
	})

	It("should fill the first column top to bottom", func() {
		cells := cellShapes()
		Expect(cells[0].box.x0).To(Equal(cells[1].box.x0))
		Expect(cells[0].box.y0).To(BeNumerically("<", cells[1].box.y0))
		Expect(cells[2].box.x0).To(BeNumerically(">", cells[0].box.x0))
	})

	It("should put labels below the grid and the legend above it", func() {
		bottom, top := 0.0, sc.height
		for _, s := range cellShapes() {
			bottom = max(bottom, s.box.y1)
			top = min(top, s.box.y0)
		}

		labels := 0
		for _, t := range sc.texts {
			switch t.s {
			case "A & B", "C":
				labels++
				Expect(t.y).To(BeNumerically(">", bottom))
				Expect(t.anchor).To(Equal(anchorMiddle))
			case "Trial Setup":
				Expect(t.y).To(BeNumerically("<", top))
			}
		}
		Expect(labels).To(Equal(2))

		frame := sc.shapes[fig.Grid.CellCount()]
		Expect(frame.box.y1).To(BeNumerically("<", top))
	})

	It("should list every category in the legend", func() {
		legend := sc.shapes[fig.Grid.CellCount()+1:]
		Expect(legend).To(HaveLen(4))
		Expect(legend[1].fill).To(Equal(phasegrid.MustParseColor("#99ff99")))
		Expect(legend[1].stroke).To(Equal(phasegrid.MustParseColor("#3070B3")))
	})

	It("should leave the background transparent", func() {
		Expect(sc.background).To(BeNil())
	})
})

var _ = Describe("PNG", func() {
	It("should draw the cells at the requested resolution", func() {
		fig := smallFigure()

		var buf bytes.Buffer
		Expect(PNG(&buf, fig)).To(Succeed())

		img, err := png.Decode(bytes.NewReader(buf.Bytes()))
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Bounds().Dx()).To(Equal(400))
		Expect(img.Bounds().Dy()).To(Equal(300))

		sc, err := compose(fig, fig.DPI)
		Expect(err).NotTo(HaveOccurred())

		cell := sc.shapes[1]
		cx := int((cell.box.x0 + cell.box.x1) / 2)
		cy := int((cell.box.y0 + cell.box.y1) / 2)
		Expect(color.RGBAModel.Convert(img.At(cx, cy))).
			To(Equal(phasegrid.MustParseColor("#99ff99")))

		_, _, _, a := img.At(0, img.Bounds().Dy()-1).RGBA()
		Expect(a).To(BeZero())
	})

	It("should paint the background when not transparent", func() {
		fig := smallFigure()
		fig.Style.Transparent = false
		fig.Style.Background = color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}

		var buf bytes.Buffer
		Expect(PNG(&buf, fig)).To(Succeed())

		img, err := png.Decode(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(color.RGBAModel.Convert(img.At(0, 299))).
			To(Equal(fig.Style.Background))
	})

	It("should record the DPI", func() {
		var buf bytes.Buffer
		Expect(PNG(&buf, smallFigure())).To(Succeed())

		data := buf.Bytes()
		i := bytes.Index(data, []byte("pHYs"))
		Expect(i).To(Equal(8 + 25 + 4))
		Expect(binary.BigEndian.Uint32(data[i+4:])).To(Equal(uint32(3937)))
		Expect(binary.BigEndian.Uint32(data[i+8:])).To(Equal(uint32(3937)))
		Expect(data[i+12]).To(Equal(byte(1)))
	})
})

var _ = Describe("SVG", func() {
	It("should describe the same scene", func() {
		var buf bytes.Buffer
		Expect(Encode(&buf, FormatSVG, smallFigure())).To(Succeed())

		out := buf.String()
		Expect(out).To(HavePrefix("<?xml"))
		Expect(out).To(ContainSubstring(`width="4in" height="3in"`))
		Expect(out).To(ContainSubstring(`viewBox="0 0 288 216"`))
		Expect(out).To(ContainSubstring("A &amp; B"))
		Expect(out).To(ContainSubstring(">Trial Setup</text>"))
		Expect(out).To(ContainSubstring(`fill="#9999ff"`))
		Expect(out).To(ContainSubstring(`stroke="#3070b3"`))
		Expect(strings.Count(out, "<rect")).To(Equal(6 + 1 + 4))
		Expect(strings.Count(out, "<text")).To(Equal(2 + 1 + 4))
		Expect(out).To(HaveSuffix("</svg>\n"))
	})

	It("should write the legend frame without premultiplied alpha", func() {
		var buf bytes.Buffer
		Expect(SVG(&buf, smallFigure())).To(Succeed())

		Expect(buf.String()).To(ContainSubstring(
			`fill="#ffffff" fill-opacity="0.8"`))
	})
})
