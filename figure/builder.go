package figure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sarchlab/trialgrid/experiment"
	"github.com/sarchlab/trialgrid/render"
)

// Builder can build a Pipeline.
type Builder struct {
	source   TrialSource
	protocol *experiment.Protocol
	style    render.Style
	recorder Recorder
	logger   *zap.Logger
}

// MakeBuilder creates a builder for the default protocol and style.
func MakeBuilder() Builder {
	return Builder{
		protocol: experiment.Default(),
		style:    render.DefaultStyle(),
		logger:   zap.NewNop(),
	}
}

// WithSource sets where the trials come from.
func (b Builder) WithSource(s TrialSource) Builder {
	b.source = s
	return b
}

// WithProtocol sets the experiment protocol. A protocol with a title
// replaces the title of the style.
func (b Builder) WithProtocol(p *experiment.Protocol) Builder {
	b.protocol = p
	return b
}

// WithStyle sets the figure style.
func (b Builder) WithStyle(s render.Style) Builder {
	b.style = s
	return b
}

// WithRecorder sets the recorder that rendered layouts are written to.
func (b Builder) WithRecorder(r Recorder) Builder {
	b.recorder = r
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *zap.Logger) Builder {
	b.logger = l
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.source == nil {
		panic("trial source is not set")
	}

	if b.protocol == nil {
		panic("protocol is not set")
	}

	if err := b.protocol.Validate(); err != nil {
		panic(fmt.Sprintf("protocol is invalid: %v", err))
	}
}

// Build creates the pipeline. It panics if the source or the protocol is
// missing or the protocol is invalid.
func (b Builder) Build() *Pipeline {
	b.parametersMustBeValid()

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	layouter, err := b.protocol.Layouter(logger)
	if err != nil {
		panic(err)
	}

	border, _ := b.protocol.CellBorder()

	style := b.style
	if b.protocol.Title != "" {
		style.Title = b.protocol.Title
	}

	p := &Pipeline{
		source:   b.source,
		protocol: b.protocol,
		layouter: layouter,
		border:   border,
		style:    style,
		recorder: b.recorder,
		logger:   logger,
	}

	if p.recorder != nil {
		p.createTables()
	}

	return p
}
