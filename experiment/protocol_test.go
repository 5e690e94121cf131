package experiment_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/trialgrid/experiment"
	"github.com/sarchlab/trialgrid/phasegrid"
)

var _ = Describe("Protocol", func() {
	It("should describe the force-field experiment by default", func() {
		p := experiment.Default()

		Expect(p.Validate()).To(Succeed())
		Expect(p.Boundaries()).To(Equal(
			[]int{0, 50, 440, 450, 610, 1450, 1610, 2450}))
		Expect(p.Labels()).To(HaveLen(7))
		Expect(p.Labels()[1]).To(Equal("Training"))
		Expect(p.Gap.WideAfter).To(Equal("Training"))
	})

	It("should parse a protocol and keep unset defaults", func() {
		src := `
title: Pilot
rows_per_phase: 4
phases:
  - {label: Baseline, end: 8}
  - {label: Exposure, end: 20}
categories:
  - {code: 0, name: Null, color: "#ffffff"}
  - {code: 1, name: Field, color: "#ff0000"}
`
		p, err := experiment.Parse(strings.NewReader(src))

		Expect(err).ToNot(HaveOccurred())
		Expect(p.Title).To(Equal("Pilot"))
		Expect(p.RowsPerPhase).To(Equal(4))
		Expect(p.Gap.Default).To(Equal(3.0))
		Expect(p.Boundaries()).To(Equal([]int{0, 8, 20}))
		Expect(p.Categories).To(HaveLen(2))
	})

	It("should accept an empty document", func() {
		p, err := experiment.Parse(strings.NewReader(""))

		Expect(err).ToNot(HaveOccurred())
		Expect(p.Boundaries()).To(Equal(experiment.Default().Boundaries()))
	})

	It("should reject unknown fields", func() {
		_, err := experiment.Parse(strings.NewReader("rows: 4\n"))

		Expect(err).To(MatchError(experiment.ErrInvalidProtocol))
	})

	It("should reject phases that go backwards", func() {
		_, err := experiment.Parse(strings.NewReader(`
phases:
  - {label: A, end: 10}
  - {label: B, end: 5}
`))

		Expect(err).To(MatchError(experiment.ErrInvalidProtocol))
	})

	It("should reject bad colours", func() {
		_, err := experiment.Parse(strings.NewReader(`
categories:
  - {code: 0, name: A, color: "not a colour"}
`))

		Expect(err).To(MatchError(experiment.ErrInvalidProtocol))
	})

	It("should keep the border width when the colour is left empty", func() {
		p, err := experiment.Parse(strings.NewReader("border:\n  color: \"\"\n  width: 3\n"))
		Expect(err).NotTo(HaveOccurred())

		border, err := p.CellBorder()
		Expect(err).NotTo(HaveOccurred())
		Expect(border.Color).To(Equal(phasegrid.DefaultBorder().Color))
		Expect(border.Width).To(Equal(3.0))
	})

	It("should reject a negative border width", func() {
		_, err := experiment.Parse(strings.NewReader("border:\n  width: -1\n"))
		Expect(err).To(MatchError(experiment.ErrInvalidProtocol))
	})

	It("should reject non-positive rows", func() {
		_, err := experiment.Parse(strings.NewReader("rows_per_phase: 0\n"))

		Expect(err).To(MatchError(experiment.ErrInvalidProtocol))
	})

	It("should round-trip through YAML", func() {
		buf := new(bytes.Buffer)
		Expect(experiment.Default().Marshal(buf)).To(Succeed())

		p, err := experiment.Parse(buf)

		Expect(err).ToNot(HaveOccurred())
		Expect(p).To(Equal(experiment.Default()))
	})

	It("should load from a file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "protocol.yaml")
		Expect(os.WriteFile(path, []byte("title: From File\n"), 0o644)).
			To(Succeed())

		p, err := experiment.Load(path)

		Expect(err).ToNot(HaveOccurred())
		Expect(p.Title).To(Equal("From File"))
	})

	It("should report a missing file", func() {
		_, err := experiment.Load(filepath.Join(GinkgoT().TempDir(), "none.yaml"))

		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("should lay out trials on its phases", func() {
		p := experiment.Default()
		p.RowsPerPhase = 2
		p.Phases = []experiment.Phase{{Label: "A", End: 3}, {Label: "Training", End: 5}}

		grid, err := p.Layout(phasegrid.Sequence{0, 1, 2, 3, 0}, nil)

		Expect(err).ToNot(HaveOccurred())
		Expect(grid.Phases).To(HaveLen(2))
		Expect(grid.Phases[1].XOffset).To(Equal(5.0))
		Expect(grid.Width).To(Equal(5.0 + 1 + 15))
	})

	It("should fail the layout on unknown categories", func() {
		p := experiment.Default()
		p.Phases = []experiment.Phase{{Label: "A", End: 2}}

		_, err := p.Layout(phasegrid.Sequence{0, 7}, nil)

		Expect(err).To(MatchError(phasegrid.ErrUnknownCategory))
	})
})
