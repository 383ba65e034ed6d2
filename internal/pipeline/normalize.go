package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
)

// Normalize maps one year's raw table onto ResultRecords. Header names are matched after
// lower-casing and trimming; party and comuna names are upper-cased and circuits padded.
func Normalize(table model.RawTable, spec config.TableSpec) ([]model.ResultRecord, error) {
	col := map[string]int{}
	for i, h := range table.Header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := col[name]; !dup {
			col[name] = i
		}
	}

	required := []string{spec.Columns.Party, spec.Columns.Votes, spec.Columns.Circuit, spec.Columns.Subdivision}
	for _, k := range required {
		if _, ok := col[k]; !ok {
			return nil, &MissingColumnError{Table: spec.Name, Column: k}
		}
	}

	out := make([]model.ResultRecord, 0, len(table.Rows))
	for rowIdx, rec := range table.Rows {
		get := func(name string) string {
			i := col[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		votes, err := parseVotes(get(spec.Columns.Votes))
		if err != nil {
			// +2: header line plus 1-based numbering
			return nil, fmt.Errorf("%s row %d: %w", spec.Name, rowIdx+2, err)
		}

		out = append(out, model.ResultRecord{
			Circuit:     model.PadCircuit(get(spec.Columns.Circuit)),
			Party:       model.NormalizeName(get(spec.Columns.Party)),
			Subdivision: model.NormalizeName(get(spec.Columns.Subdivision)),
			Votes:       votes,
		})
	}
	return out, nil
}

// parseVotes accepts whole numbers, including integral decimals such as "300.0".
// An empty cell counts as zero.
func parseVotes(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: %q is negative", ErrInvalidVotes, s)
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidVotes, s)
	}
	if f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q is not a whole non-negative number", ErrInvalidVotes, s)
	}
	return int64(f), nil
}
