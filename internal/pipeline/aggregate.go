package pipeline

import (
	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
)

// Aggregates are the per-circuit reductions of both years. Each map only holds the
// circuits that had contributing rows; absent keys read as zero.
type Aggregates struct {
	// PivotCurrent holds current-year votes per group tag, grouped parties only.
	PivotCurrent map[string]map[string]int64
	// TotalsCurrent and TotalsPrior sum every party.
	TotalsCurrent map[string]int64
	TotalsPrior   map[string]int64
	// PriorReference sums the reference party in the prior year.
	PriorReference map[string]int64
	// TooltipDetail holds current-year votes per tooltip field.
	TooltipDetail map[string]map[string]int64
	// SubdivisionByCircuit is the first non-empty comuna seen per circuit in the current
	// year. Rows with a blank comuna are skipped rather than taken as the first occurrence,
	// so a leading blank row does not hide the circuit's comuna.
	SubdivisionByCircuit map[string]string
}

// Aggregate reduces the normalized records of both years by circuit.
func Aggregate(current, prior []model.ResultRecord, e config.Election) Aggregates {
	agg := Aggregates{
		PivotCurrent:         map[string]map[string]int64{},
		TotalsCurrent:        map[string]int64{},
		TotalsPrior:          map[string]int64{},
		PriorReference:       map[string]int64{},
		TooltipDetail:        map[string]map[string]int64{},
		SubdivisionByCircuit: map[string]string{},
	}

	tooltipField := make(map[string]string, len(e.Tooltip))
	for _, tp := range e.Tooltip {
		tooltipField[tp.Party] = tp.Field
	}

	for _, r := range current {
		agg.TotalsCurrent[r.Circuit] += r.Votes

		if tag, ok := e.Groups[r.Party]; ok {
			addNested(agg.PivotCurrent, r.Circuit, tag, r.Votes)
		}
		if field, ok := tooltipField[r.Party]; ok {
			addNested(agg.TooltipDetail, r.Circuit, field, r.Votes)
		}
		if _, seen := agg.SubdivisionByCircuit[r.Circuit]; !seen && r.Subdivision != "" {
			agg.SubdivisionByCircuit[r.Circuit] = r.Subdivision
		}
	}

	for _, r := range prior {
		agg.TotalsPrior[r.Circuit] += r.Votes
		if r.Party == e.ReferenceParty {
			agg.PriorReference[r.Circuit] += r.Votes
		}
	}

	return agg
}

func addNested(m map[string]map[string]int64, circuit, key string, votes int64) {
	inner, ok := m[circuit]
	if !ok {
		inner = map[string]int64{}
		m[circuit] = inner
	}
	inner[key] += votes
}
