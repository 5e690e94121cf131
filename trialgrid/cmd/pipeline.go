package cmd

import (
	"github.com/sarchlab/trialgrid/experiment"
	"github.com/sarchlab/trialgrid/figure"
	"github.com/sarchlab/trialgrid/phasegrid"
	"github.com/sarchlab/trialgrid/render"
)

func (a *app) protocol() (*experiment.Protocol, error) {
	if a.cfg.Protocol.Path == "" {
		return experiment.Default(), nil
	}

	return experiment.Load(a.cfg.Protocol.Path)
}

func (a *app) style() (render.Style, error) {
	style := render.DefaultStyle()
	style.Transparent = a.cfg.Output.Transparent

	if a.cfg.Output.Background != "" {
		bg, err := phasegrid.ParseColor(a.cfg.Output.Background)
		if err != nil {
			return render.Style{}, err
		}
		style.Background = bg
	}

	return style, nil
}

func (a *app) pipeline(recorder figure.Recorder) (*figure.Pipeline, error) {
	protocol, err := a.protocol()
	if err != nil {
		return nil, err
	}

	style, err := a.style()
	if err != nil {
		return nil, err
	}

	b := figure.MakeBuilder().
		WithSource(figure.FileSource{
			Path:     a.cfg.Input.Path,
			Variable: a.cfg.Input.Variable,
		}).
		WithProtocol(protocol).
		WithStyle(style).
		WithLogger(a.logger)

	if recorder != nil {
		b = b.WithRecorder(recorder)
	}

	return b.Build(), nil
}

func (a *app) options() (figure.Options, error) {
	opts := figure.Options{
		DPI:      a.cfg.Output.DPI,
		WidthIn:  a.cfg.Output.WidthIn,
		HeightIn: a.cfg.Output.HeightIn,
	}

	if a.cfg.Output.Format != "" {
		format, err := render.ParseFormat(a.cfg.Output.Format)
		if err != nil {
			return figure.Options{}, err
		}
		opts.Format = format
	}

	return opts, nil
}
