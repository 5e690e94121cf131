package phasegrid

// PhaseSummary counts the trials of each category in one phase.
type PhaseSummary struct {
	Label   string
	Trials  int
	Columns int
	Counts  map[int]int
}

// Summarize counts the categories of every phase of the grid.
func Summarize(g *Grid) []PhaseSummary {
	summaries := make([]PhaseSummary, 0, len(g.Phases))

	for _, p := range g.Phases {
		s := PhaseSummary{
			Label:   p.Label,
			Trials:  p.NumTrials(),
			Columns: p.Columns,
			Counts:  make(map[int]int),
		}

		for _, c := range p.Cells {
			s.Counts[c.Code]++
		}

		summaries = append(summaries, s)
	}

	return summaries
}
