package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecTable is the table that run information is written to.
const ExecTable = "exec_info"

type execInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how a program was run: when it started, the command
// line, the working directory and when it ended.
type ExecRecorder struct {
	tablename string
	recorder  DataRecorder
	entries   []execInfo
}

// NewExecRecorder creates an ExecRecorder that writes to recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{
		tablename: ExecTable,
		recorder:  recorder,
	}

	e.recorder.CreateTable(e.tablename, execInfo{})

	return e
}

// Start logs the current execution.
func (e *ExecRecorder) Start() {
	e.Set("Start Time", timestamp())
	e.Set("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "unknown"
	}
	e.Set("Working Directory", cwd)
}

// Set adds a property of the run.
func (e *ExecRecorder) Set(property, value string) {
	e.entries = append(e.entries, execInfo{property, value})
}

// End writes the collected properties along with the exit time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(e.tablename, entry)
	}

	e.recorder.InsertData(e.tablename, execInfo{"End Time", timestamp()})

	e.entries = nil

	e.recorder.Flush()
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
