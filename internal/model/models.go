package model

import (
	"strings"

	"github.com/twpayne/go-geom"
)

// CircuitWidth is the fixed width of every circuit identifier. Geometry, current and
// prior results are all padded to this width so the joins line up.
const CircuitWidth = 5

// PadCircuit trims raw and left-pads it with zeros to CircuitWidth.
// Longer identifiers are returned unchanged, never truncated.
func PadCircuit(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= CircuitWidth {
		return s
	}
	return strings.Repeat("0", CircuitWidth-len(s)) + s
}

// ResultRecord is one normalized row of a year's results table.
type ResultRecord struct {
	Circuit     string `json:"circuit"`
	Party       string `json:"party"`
	Subdivision string `json:"comuna"`
	Votes       int64  `json:"votes"`
}

// CircuitGeometry is one feature of the circuit map.
type CircuitGeometry struct {
	Circuit    string                 `json:"circuito"`
	Geometry   geom.T                 `json:"-"`
	Properties map[string]interface{} `json:"properties"`
}

// TooltipVote holds the raw vote count of one named party, shown in the winner tooltip.
type TooltipVote struct {
	Field string `json:"field"` // e.g. LLA_TIP
	Alias string `json:"alias"` // e.g. "LLA votos"
	Votes int64  `json:"votes"`
}

// AggregatedCircuit holds the per-circuit metrics derived from both years.
// Nullable ratios are nil when their denominator is zero.
type AggregatedCircuit struct {
	Circuit             string        `json:"circuito"`
	FocusVotes          int64         `json:"focus_votes"`
	RivalVotes          int64         `json:"rival_votes"`
	PriorReferenceVotes int64         `json:"prior_reference_votes"`
	TotalCurrent        int64         `json:"total_current"`
	TotalPrior          int64         `json:"total_prior"`
	Winner              string        `json:"winner"`
	ShareCurrent        *float64      `json:"share_current"`
	SharePrior          *float64      `json:"share_prior"`
	GrowthAbs           int64         `json:"growth_abs"`
	GrowthPct           *float64      `json:"growth_pct"`
	Tooltip             []TooltipVote `json:"tooltip"`
	Subdivision         string        `json:"comuna,omitempty"` // empty when unknown
}

// TooltipVotes returns the votes stored under field, and false when the field is absent.
func (a *AggregatedCircuit) TooltipVotes(field string) (int64, bool) {
	for _, t := range a.Tooltip {
		if t.Field == field {
			return t.Votes, true
		}
	}
	return 0, false
}

// EnrichedCircuit is a geometry row left-joined with its metrics.
// Metrics is nil when no results matched the geometry's circuit.
type EnrichedCircuit struct {
	CircuitGeometry
	Metrics *AggregatedCircuit `json:"metrics"`
}

// Subdivision returns the comuna of the joined metrics, or "" when unmatched.
func (e EnrichedCircuit) Subdivision() string {
	if e.Metrics == nil {
		return ""
	}
	return e.Metrics.Subdivision
}

// RawTable is a parsed CSV resource: a header and its data rows, untyped.
type RawTable struct {
	Name   string
	Header []string
	Rows   [][]string
}
