package phasegrid

import (
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Layouter", func() {
	var (
		white, green, red, blue color.RGBA
		palette                 *Palette
		layouter                *Layouter
	)

	BeforeEach(func() {
		white = MustParseColor("#ffffff")
		green = MustParseColor("#00ff00")
		red = MustParseColor("#ff0000")
		blue = MustParseColor("#0000ff")

		palette = MustNewPalette(
			Category{Code: 0, Name: "white", Color: white},
			Category{Code: 1, Name: "green", Color: green},
			Category{Code: 2, Name: "red", Color: red},
			Category{Code: 3, Name: "blue", Color: blue},
		)

		layouter = MakeBuilder().
			WithRowsPerPhase(2).
			WithDefaultGap(3).
			WithWideGapAfter("Training", 15).
			WithPalette(palette).
			Build()
	})

	It("should fill a single phase column by column", func() {
		grid, err := layouter.Layout(Sequence{0, 1, 2, 3}, []int{0, 4},
			[]string{"P"})

		Expect(err).ToNot(HaveOccurred())
		Expect(grid.Phases).To(HaveLen(1))

		cells := grid.Phases[0].Cells
		Expect(cells).To(HaveLen(4))

		columns := []int{}
		rows := []int{}
		fills := []color.RGBA{}
		for _, c := range cells {
			columns = append(columns, c.Column)
			rows = append(rows, c.Row)
			fills = append(fills, c.Fill)
		}

		Expect(columns).To(Equal([]int{0, 0, 1, 1}))
		Expect(rows).To(Equal([]int{0, 1, 0, 1}))
		Expect(fills).To(Equal([]color.RGBA{white, green, red, blue}))
	})

	It("should place row 0 at the top", func() {
		grid, err := layouter.Layout(Sequence{0, 1, 2}, []int{0, 3},
			[]string{"P"})

		Expect(err).ToNot(HaveOccurred())

		cells := grid.Phases[0].Cells
		Expect(cells[0].X).To(Equal(0.0))
		Expect(cells[0].Y).To(Equal(1.0))
		Expect(cells[1].X).To(Equal(0.0))
		Expect(cells[1].Y).To(Equal(0.0))
		Expect(cells[2].X).To(Equal(1.0))
		Expect(cells[2].Y).To(Equal(1.0))
		Expect(cells[2].Size).To(Equal(1.0))
	})

	It("should record absolute trial indices", func() {
		grid, err := layouter.Layout(Sequence{3, 3, 0, 1, 2}, []int{2, 5},
			[]string{"P"})

		Expect(err).ToNot(HaveOccurred())

		cells := grid.Cells()
		Expect(cells).To(HaveLen(3))
		Expect(cells[0].Trial).To(Equal(2))
		Expect(cells[0].Code).To(Equal(0))
		Expect(cells[2].Trial).To(Equal(4))
	})

	It("should advance the offset by columns plus gap", func() {
		trials := Sequence{0, 0, 0, 1, 1, 2, 2, 2, 2, 3}
		grid, err := layouter.Layout(trials, []int{0, 3, 5, 10},
			[]string{"A", "Training", "C"})

		Expect(err).ToNot(HaveOccurred())
		Expect(grid.Phases).To(HaveLen(3))

		Expect(grid.Phases[0].XOffset).To(Equal(0.0))
		Expect(grid.Phases[0].Columns).To(Equal(2))
		Expect(grid.Phases[0].Gap).To(Equal(3.0))

		Expect(grid.Phases[1].XOffset).To(Equal(5.0))
		Expect(grid.Phases[1].Columns).To(Equal(1))
		Expect(grid.Phases[1].Gap).To(Equal(15.0))

		Expect(grid.Phases[2].XOffset).To(Equal(21.0))
		Expect(grid.Phases[2].Columns).To(Equal(3))

		Expect(grid.Width).To(Equal(27.0))
	})

	It("should centre labels over the phase", func() {
		grid, err := layouter.Layout(Sequence{0, 0, 0, 1, 1}, []int{0, 3, 5},
			[]string{"A", "B"})

		Expect(err).ToNot(HaveOccurred())
		Expect(grid.Phases[0].LabelX).To(Equal(1.0))
		Expect(grid.Phases[1].LabelX).To(Equal(5.5))
	})

	It("should keep empty phases and their gap", func() {
		grid, err := layouter.Layout(Sequence{0, 1}, []int{0, 0, 2},
			[]string{"Empty", "Full"})

		Expect(err).ToNot(HaveOccurred())
		Expect(grid.Phases[0].Cells).To(BeEmpty())
		Expect(grid.Phases[0].Columns).To(Equal(0))
		Expect(grid.Phases[1].XOffset).To(Equal(3.0))
	})

	It("should attach the border to every cell", func() {
		border := Border{Color: red, Width: 2}
		layouter = MakeBuilder().
			WithRowsPerPhase(2).
			WithPalette(palette).
			WithBorder(border).
			Build()

		grid, err := layouter.Layout(Sequence{0, 1, 2}, []int{0, 3},
			[]string{"P"})

		Expect(err).ToNot(HaveOccurred())
		for _, c := range grid.Cells() {
			Expect(c.Border).To(Equal(border))
		}
	})

	Context("when the input is invalid", func() {
		It("should reject a label count mismatch", func() {
			grid, err := layouter.Layout(Sequence{0, 1, 2, 3},
				[]int{0, 2, 4}, []string{"P"})

			Expect(grid).To(BeNil())
			Expect(err).To(MatchError(ErrLabelMismatch))
			Expect(err).To(MatchError(ErrInvalidInput))
		})

		It("should reject an empty boundary list", func() {
			_, err := layouter.Layout(Sequence{0}, nil, nil)

			Expect(err).To(MatchError(ErrLabelMismatch))
		})

		It("should reject a boundary beyond the sequence", func() {
			_, err := layouter.Layout(Sequence{0, 1}, []int{0, 3},
				[]string{"P"})

			Expect(err).To(MatchError(ErrBoundaryRange))
			Expect(err).To(MatchError(ErrInvalidInput))
		})

		It("should reject a negative boundary", func() {
			_, err := layouter.Layout(Sequence{0, 1}, []int{-1, 2},
				[]string{"P"})

			Expect(err).To(MatchError(ErrBoundaryRange))
		})

		It("should reject decreasing boundaries", func() {
			_, err := layouter.Layout(Sequence{0, 1, 2}, []int{0, 2, 1},
				[]string{"A", "B"})

			Expect(err).To(MatchError(ErrBoundaryRange))
		})

		It("should reject an unknown category", func() {
			grid, err := layouter.Layout(Sequence{0, 1, 5, 3},
				[]int{0, 4}, []string{"P"})

			Expect(grid).To(BeNil())
			Expect(err).To(MatchError(ErrUnknownCategory))
			Expect(err).To(MatchError(ErrInvalidInput))
			Expect(err.Error()).To(ContainSubstring("trial 2 has code 5"))
		})

		It("should ignore unknown codes outside the boundaries", func() {
			grid, err := layouter.Layout(Sequence{0, 1, 9}, []int{0, 2},
				[]string{"P"})

			Expect(err).ToNot(HaveOccurred())
			Expect(grid.CellCount()).To(Equal(2))
		})
	})
})

var _ = Describe("Layout", func() {
	It("should report bad parameters as errors", func() {
		_, err := Layout(Sequence{0}, []int{0, 1}, []string{"P"},
			0, 3, "", 0, DefaultPalette())

		Expect(err).To(MatchError(ErrInvalidParameter))
	})

	It("should report a missing palette as an error", func() {
		_, err := Layout(Sequence{0}, []int{0, 1}, []string{"P"},
			2, 3, "", 0, nil)

		Expect(err).To(MatchError(ErrInvalidParameter))
	})

	It("should lay out with explicit parameters", func() {
		grid, err := Layout(Sequence{0, 1, 2, 3}, []int{0, 2, 4},
			[]string{"A", "B"}, 1, 2, "A", 5, DefaultPalette())

		Expect(err).ToNot(HaveOccurred())
		Expect(grid.Phases[1].XOffset).To(Equal(7.0))
		Expect(grid.Width).To(Equal(11.0))
	})
})

var _ = Describe("Builder", func() {
	It("should panic on non-positive rows", func() {
		Expect(func() {
			MakeBuilder().WithRowsPerPhase(0).Build()
		}).To(Panic())
	})

	It("should panic on negative gaps", func() {
		Expect(func() {
			MakeBuilder().WithDefaultGap(-1).Build()
		}).To(Panic())

		Expect(func() {
			MakeBuilder().WithWideGapAfter("Training", -1).Build()
		}).To(Panic())
	})

	It("should use the default gap when the wide gap is disabled", func() {
		l := MakeBuilder().WithWideGapAfter("", 100).Build()

		Expect(l.GapAfter("")).To(Equal(3.0))
		Expect(l.GapAfter("Training")).To(Equal(3.0))
	})
})

var _ = Describe("Summarize", func() {
	It("should count categories per phase", func() {
		l := MakeBuilder().WithRowsPerPhase(2).Build()
		grid, err := l.Layout(Sequence{0, 0, 1, 3, 3, 3}, []int{0, 3, 6},
			[]string{"A", "B"})
		Expect(err).ToNot(HaveOccurred())

		s := Summarize(grid)

		Expect(s).To(HaveLen(2))
		Expect(s[0].Label).To(Equal("A"))
		Expect(s[0].Trials).To(Equal(3))
		Expect(s[0].Columns).To(Equal(2))
		Expect(s[0].Counts).To(Equal(map[int]int{0: 2, 1: 1}))
		Expect(s[1].Counts).To(Equal(map[int]int{3: 3}))
	})
})
