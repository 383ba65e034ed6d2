package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidVotes marks a vote cell that is not a non-negative whole number. It is an
// upstream data-quality problem and stops the pipeline.
var ErrInvalidVotes = errors.New("invalid vote count")

// MissingColumnError reports a required column absent from a results table.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q in table %q", e.Column, e.Table)
}

// UserMessage is the message shown on the dashboard when the session halts.
func (e *MissingColumnError) UserMessage() string {
	return fmt.Sprintf("No se encontró la columna '%s' en %s.", e.Column, e.Table)
}
