// Package figure connects trial loading, layout and drawing into one
// pipeline.
package figure

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/sarchlab/trialgrid/experiment"
	"github.com/sarchlab/trialgrid/phasegrid"
	"github.com/sarchlab/trialgrid/render"
)

// Options sets the size and format of an image. Zero values select the
// defaults: 15 by 6 inches at 600 DPI.
type Options struct {
	Format   render.Format
	DPI      float64
	WidthIn  float64
	HeightIn float64
}

func (o Options) withDefaults() Options {
	if o.DPI == 0 {
		o.DPI = 600
	}

	if o.WidthIn == 0 {
		o.WidthIn = 15
	}

	if o.HeightIn == 0 {
		o.HeightIn = 6
	}

	return o
}

// Result describes a rendered image.
type Result struct {
	RunID  string
	Format render.Format
	Grid   *phasegrid.Grid
	Bytes  int
}

// Pipeline loads trials, lays them out on the protocol's phases and draws
// them.
type Pipeline struct {
	source   TrialSource
	protocol *experiment.Protocol
	layouter *phasegrid.Layouter
	border   phasegrid.Border
	style    render.Style
	recorder Recorder
	logger   *zap.Logger

	recordLock sync.Mutex
}

// Protocol returns the protocol the pipeline lays out.
func (p *Pipeline) Protocol() *experiment.Protocol {
	return p.protocol
}

// Legend returns the categories in code order.
func (p *Pipeline) Legend() []phasegrid.Category {
	return p.layouter.Palette().Legend()
}

// Compute loads the trials and lays them out.
func (p *Pipeline) Compute() (*phasegrid.Grid, error) {
	trials, err := p.source.Trials()
	if err != nil {
		return nil, fmt.Errorf("load trials: %w", err)
	}

	p.logger.Debug("trials loaded",
		zap.Stringer("source", describe(p.source)),
		zap.Int("trials", len(trials)))

	grid, err := p.layouter.Layout(trials, p.protocol.Boundaries(),
		p.protocol.Labels())
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	return grid, nil
}

// Figure computes the grid and wraps it in a figure of the given size.
func (p *Pipeline) Figure(dpi, widthIn, heightIn float64) (render.Figure, error) {
	grid, err := p.Compute()
	if err != nil {
		return render.Figure{}, err
	}

	return p.figure(grid, Options{
		DPI:      dpi,
		WidthIn:  widthIn,
		HeightIn: heightIn,
	}), nil
}

func (p *Pipeline) figure(grid *phasegrid.Grid, opts Options) render.Figure {
	opts = opts.withDefaults()

	fig := render.NewFigure(grid, p.Legend())
	fig.Style = p.style
	fig.LegendBorder = p.border
	fig.DPI = opts.DPI
	fig.WidthIn = opts.WidthIn
	fig.HeightIn = opts.HeightIn

	return fig
}

// Render draws the figure to w. Nothing is written when an error occurs
// before the image is complete.
func (p *Pipeline) Render(w io.Writer, opts Options) (Result, error) {
	res, data, err := p.draw(opts)
	if err != nil {
		return Result{}, err
	}

	if _, err := w.Write(data); err != nil {
		return Result{}, err
	}

	p.record(res, "")

	return res, nil
}

func (p *Pipeline) draw(opts Options) (Result, []byte, error) {
	if opts.Format == "" {
		opts.Format = render.FormatPNG
	}

	grid, err := p.Compute()
	if err != nil {
		return Result{}, nil, err
	}

	var buf bytes.Buffer
	if err := render.Encode(&buf, opts.Format, p.figure(grid, opts)); err != nil {
		return Result{}, nil, fmt.Errorf("render: %w", err)
	}

	res := Result{
		RunID:  xid.New().String(),
		Format: opts.Format,
		Grid:   grid,
		Bytes:  buf.Len(),
	}

	return res, buf.Bytes(), nil
}

// Save draws the figure into the file at path. The format defaults to the
// one matching the path's extension. The image is written to a temporary
// file next to path and renamed when complete, so a failed run never leaves
// a partial image behind.
func (p *Pipeline) Save(path string, opts Options) (Result, error) {
	if opts.Format == "" {
		f, err := render.FormatForPath(path)
		if err != nil {
			return Result{}, err
		}
		opts.Format = f
	}

	res, data, err := p.draw(opts)
	if err != nil {
		return Result{}, err
	}

	if err := writeFileAtomic(path, data); err != nil {
		return Result{}, err
	}

	p.logger.Info("figure saved",
		zap.String("run", res.RunID),
		zap.String("path", path),
		zap.String("format", string(res.Format)),
		zap.Int("cells", res.Grid.CellCount()),
		zap.Int("bytes", res.Bytes))

	p.record(res, path)

	return res, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".trialgrid-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Chmod(tmp.Name(), 0o644)
	}

	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}

	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

type stringer string

func (s stringer) String() string { return string(s) }

func describe(s TrialSource) fmt.Stringer {
	if str, ok := s.(fmt.Stringer); ok {
		return str
	}

	return stringer(fmt.Sprintf("%T", s))
}
