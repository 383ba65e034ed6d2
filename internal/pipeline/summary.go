package pipeline

import (
	"sort"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
)

// SubdivisionSummary rolls the circuit metrics of one comuna up.
type SubdivisionSummary struct {
	Subdivision  string
	Circuits     int
	FocusVotes   int64
	RivalVotes   int64
	TotalCurrent int64
	PriorRef     int64
	TotalPrior   int64
	FocusWins    int
	RivalWins    int
}

// ShareCurrent is the focus share of the comuna's current votes, nil without votes.
func (s SubdivisionSummary) ShareCurrent() *float64 { return share(s.FocusVotes, s.TotalCurrent) }

// SharePrior is the reference party share of the comuna's prior votes, nil without votes.
func (s SubdivisionSummary) SharePrior() *float64 { return share(s.PriorRef, s.TotalPrior) }

// Summarize groups metrics by comuna, sorted by name. Circuits without a comuna are
// grouped under the empty name, which sorts first.
func Summarize(metrics []model.AggregatedCircuit, e config.Election) []SubdivisionSummary {
	by := map[string]*SubdivisionSummary{}
	for _, m := range metrics {
		s, ok := by[m.Subdivision]
		if !ok {
			s = &SubdivisionSummary{Subdivision: m.Subdivision}
			by[m.Subdivision] = s
		}
		s.Circuits++
		s.FocusVotes += m.FocusVotes
		s.RivalVotes += m.RivalVotes
		s.TotalCurrent += m.TotalCurrent
		s.PriorRef += m.PriorReferenceVotes
		s.TotalPrior += m.TotalPrior
		if m.Winner == e.FocusGroup {
			s.FocusWins++
		} else {
			s.RivalWins++
		}
	}

	out := make([]SubdivisionSummary, 0, len(by))
	for _, s := range by {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subdivision < out[j].Subdivision })
	return out
}
