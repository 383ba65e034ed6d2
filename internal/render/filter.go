package render

import (
	"sort"

	"github.com/EmpoweredVote/EV-Circuits/internal/model"
)

// AllSubdivisions is the filter option that keeps every circuit.
const AllSubdivisions = "Todas"

// FilterBySubdivision keeps the rows of one comuna. An empty selection or
// AllSubdivisions keeps everything; circuits without metrics have no comuna and only
// survive the unfiltered view.
func FilterBySubdivision(rows []model.EnrichedCircuit, comuna string) []model.EnrichedCircuit {
	if comuna == "" || comuna == AllSubdivisions {
		return rows
	}
	want := model.NormalizeName(comuna)

	out := make([]model.EnrichedCircuit, 0, len(rows))
	for _, r := range rows {
		if r.Subdivision() == want {
			out = append(out, r)
		}
	}
	return out
}

// SubdivisionOptions returns AllSubdivisions followed by the sorted distinct comunas.
func SubdivisionOptions(rows []model.EnrichedCircuit) []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range rows {
		s := r.Subdivision()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		names = append(names, s)
	}
	sort.Strings(names)
	return append([]string{AllSubdivisions}, names...)
}
