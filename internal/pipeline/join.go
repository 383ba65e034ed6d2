package pipeline

import "github.com/EmpoweredVote/EV-Circuits/internal/model"

// Coverage counts how the geometry and metric circuit sets overlapped.
type Coverage struct {
	Matched      int      `json:"matched"`
	GeometryOnly int      `json:"geometry_only"`
	MetricsOnly  []string `json:"metrics_only,omitempty"`
}

// Mismatched reports whether any circuit failed to join.
func (c Coverage) Mismatched() bool {
	return c.GeometryOnly > 0 || len(c.MetricsOnly) > 0
}

// JoinGeometry left-joins geometry with metrics on circuit. Every geometry row is kept;
// rows without metrics get a nil Metrics. Metrics without geometry are dropped from the
// result and listed in the coverage.
func JoinGeometry(geoms []model.CircuitGeometry, metrics []model.AggregatedCircuit) ([]model.EnrichedCircuit, Coverage) {
	byCircuit := make(map[string]*model.AggregatedCircuit, len(metrics))
	for i := range metrics {
		byCircuit[metrics[i].Circuit] = &metrics[i]
	}

	var cov Coverage
	used := make(map[string]bool, len(metrics))
	out := make([]model.EnrichedCircuit, 0, len(geoms))
	for _, g := range geoms {
		m, ok := byCircuit[g.Circuit]
		if ok {
			cov.Matched++
			used[g.Circuit] = true
		} else {
			cov.GeometryOnly++
		}
		out = append(out, model.EnrichedCircuit{CircuitGeometry: g, Metrics: m})
	}

	for _, m := range metrics {
		if !used[m.Circuit] {
			cov.MetricsOnly = append(cov.MetricsOnly, m.Circuit)
		}
	}
	return out, cov
}
