package sources

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/EmpoweredVote/EV-Circuits/internal/model"
)

// ParseTable parses a CSV payload into a RawTable. Column names are kept as-is; the
// normalizer owns case and whitespace handling.
func ParseTable(name string, data []byte) (model.RawTable, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: csv: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return model.RawTable{}, fmt.Errorf("%w: csv has no header row", ErrMalformed)
	}

	header := records[0]
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return model.RawTable{
		Name:   name,
		Header: header,
		Rows:   records[1:],
	}, nil
}
