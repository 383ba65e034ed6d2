// Package pipeline turns a source snapshot into per-circuit metrics joined to the circuit
// map: normalize both results tables, aggregate by circuit, derive metrics, then
// left-join onto the geometry. Every step is a pure function of its inputs.
package pipeline

import (
	"fmt"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
	"github.com/EmpoweredVote/EV-Circuits/internal/sources"
)

// Result is the output of one pipeline run.
type Result struct {
	SnapshotID  string
	Fingerprint string
	Election    config.Election
	Metrics     []model.AggregatedCircuit
	Circuits    []model.EnrichedCircuit
	Coverage    Coverage
}

// Run executes the pipeline over snap. MissingColumnError and ErrInvalidVotes are fatal
// and returned as-is (wrapped); no partial result is produced.
func Run(snap *sources.Snapshot, e config.Election) (*Result, error) {
	if snap == nil {
		return nil, fmt.Errorf("pipeline: nil snapshot")
	}

	current, err := Normalize(snap.Current, e.Current)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", e.Current.Name, err)
	}
	prior, err := Normalize(snap.Prior, e.Prior)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", e.Prior.Name, err)
	}

	metrics := ComputeMetrics(Aggregate(current, prior, e), e)
	circuits, cov := JoinGeometry(snap.Geometry, metrics)

	return &Result{
		SnapshotID:  snap.ID,
		Fingerprint: snap.Fingerprint,
		Election:    e,
		Metrics:     metrics,
		Circuits:    circuits,
		Coverage:    cov,
	}, nil
}

// Find returns the enriched circuit with the given (unpadded or padded) id.
func (r *Result) Find(circuit string) (model.EnrichedCircuit, bool) {
	id := model.PadCircuit(circuit)
	for _, c := range r.Circuits {
		if c.Circuit == id {
			return c, true
		}
	}
	return model.EnrichedCircuit{}, false
}
