package figure

import (
	"github.com/sarchlab/trialgrid/phasegrid"
	"github.com/sarchlab/trialgrid/trialdata"
)

// A TrialSource provides the trial sequence to draw.
type TrialSource interface {
	Trials() (phasegrid.Sequence, error)
}

// FileSource reads the trials from a data file.
type FileSource struct {
	Path string

	// Variable names the array holding the trials. Empty selects
	// trialdata.DefaultVariable.
	Variable string
}

// Trials loads the file.
func (s FileSource) Trials() (phasegrid.Sequence, error) {
	return trialdata.Load(s.Path, s.Variable)
}

func (s FileSource) String() string {
	return s.Path
}

// SequenceSource provides a fixed sequence.
type SequenceSource phasegrid.Sequence

// Trials returns a copy of the sequence.
func (s SequenceSource) Trials() (phasegrid.Sequence, error) {
	return append(phasegrid.Sequence(nil), s...), nil
}

func (s SequenceSource) String() string {
	return "sequence"
}
