package figure

import (
	"time"

	"github.com/sarchlab/trialgrid/datarecording"
	"github.com/sarchlab/trialgrid/phasegrid"
)

// Recorder stores rendered layouts.
type Recorder = datarecording.DataRecorder

// Tables written by a pipeline with a recorder.
const (
	RunTable   = "trialgrid_run"
	PhaseTable = "trialgrid_phase"
	CellTable  = "trialgrid_cell"
)

// RunEntry is one rendered image.
type RunEntry struct {
	Run    string
	Time   string
	Source string
	Output string
	Format string
	Trials int
	Phases int
	Width  float64
}

// PhaseEntry is one phase of a rendered image.
type PhaseEntry struct {
	Run     string
	Phase   int
	Label   string
	Start   int
	End     int
	Columns int
	XOffset float64
	LabelX  float64
}

// CellEntry is one cell of a rendered image.
type CellEntry struct {
	Run    string
	Trial  int
	Code   int
	Phase  int
	Column int
	Row    int
	X      float64
	Y      float64
	Fill   string
}

func (p *Pipeline) createTables() {
	p.recorder.CreateTable(RunTable, RunEntry{})
	p.recorder.CreateTable(PhaseTable, PhaseEntry{})
	p.recorder.CreateTable(CellTable, CellEntry{})
}

func (p *Pipeline) record(res Result, output string) {
	if p.recorder == nil {
		return
	}

	p.recordLock.Lock()
	defer p.recordLock.Unlock()

	grid := res.Grid

	p.recorder.InsertData(RunTable, RunEntry{
		Run:    res.RunID,
		Time:   time.Now().Format(time.RFC3339Nano),
		Source: describe(p.source).String(),
		Output: output,
		Format: string(res.Format),
		Trials: grid.CellCount(),
		Phases: len(grid.Phases),
		Width:  grid.Width,
	})

	for _, ph := range grid.Phases {
		p.recorder.InsertData(PhaseTable, PhaseEntry{
			Run:     res.RunID,
			Phase:   ph.Index,
			Label:   ph.Label,
			Start:   ph.Start,
			End:     ph.End,
			Columns: ph.Columns,
			XOffset: ph.XOffset,
			LabelX:  ph.LabelX,
		})

		for _, c := range ph.Cells {
			p.recorder.InsertData(CellTable, CellEntry{
				Run:    res.RunID,
				Trial:  c.Trial,
				Code:   c.Code,
				Phase:  ph.Index,
				Column: c.Column,
				Row:    c.Row,
				X:      c.X,
				Y:      c.Y,
				Fill:   phasegrid.HexColor(c.Fill),
			})
		}
	}

	p.recorder.Flush()
}
