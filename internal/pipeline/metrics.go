package pipeline

import (
	"sort"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
)

// ComputeMetrics outer-joins the aggregates on circuit, zero-filling gaps, and derives
// the winner, shares and growth per circuit. The result is sorted by circuit.
//
// The winner is the focus group only when it strictly out-polls the rival group; a tie
// goes to the rival group.
func ComputeMetrics(agg Aggregates, e config.Election) []model.AggregatedCircuit {
	keys := circuitKeys(agg)

	out := make([]model.AggregatedCircuit, 0, len(keys))
	for _, c := range keys {
		focus := agg.PivotCurrent[c][e.FocusGroup]
		rival := agg.PivotCurrent[c][e.RivalGroup]
		priorRef := agg.PriorReference[c]
		totalCur := agg.TotalsCurrent[c]
		totalPrior := agg.TotalsPrior[c]

		winner := e.RivalGroup
		if focus > rival {
			winner = e.FocusGroup
		}

		shareCur := share(focus, totalCur)
		sharePrior := share(priorRef, totalPrior)

		tooltip := make([]model.TooltipVote, len(e.Tooltip))
		for i, tp := range e.Tooltip {
			tooltip[i] = model.TooltipVote{
				Field: tp.Field,
				Alias: tp.Alias,
				Votes: agg.TooltipDetail[c][tp.Field],
			}
		}

		out = append(out, model.AggregatedCircuit{
			Circuit:             c,
			FocusVotes:          focus,
			RivalVotes:          rival,
			PriorReferenceVotes: priorRef,
			TotalCurrent:        totalCur,
			TotalPrior:          totalPrior,
			Winner:              winner,
			ShareCurrent:        shareCur,
			SharePrior:          sharePrior,
			GrowthAbs:           focus - priorRef,
			GrowthPct:           diff(shareCur, sharePrior),
			Tooltip:             tooltip,
			Subdivision:         agg.SubdivisionByCircuit[c],
		})
	}
	return out
}

// share is part/total*100, or nil when total is zero.
func share(part, total int64) *float64 {
	if total == 0 {
		return nil
	}
	v := float64(part) / float64(total) * 100
	return &v
}

// diff is a-b, or nil when either side is nil.
func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

// circuitKeys is the sorted union of circuits across the four joined tables.
func circuitKeys(agg Aggregates) []string {
	seen := map[string]struct{}{}
	for k := range agg.PivotCurrent {
		seen[k] = struct{}{}
	}
	for _, m := range []map[string]int64{agg.PriorReference, agg.TotalsCurrent, agg.TotalsPrior} {
		for k := range m {
			seen[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
