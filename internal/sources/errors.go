package sources

import (
	"errors"
	"fmt"
)

// Source names used in errors and logs.
const (
	SourceCurrent  = "current"
	SourcePrior    = "prior"
	SourceGeometry = "geometry"
)

// ErrMalformed marks a payload that was retrieved but could not be parsed.
var ErrMalformed = errors.New("malformed payload")

// RetrievalError reports a source that could not be fetched or parsed. It is fatal for
// the session: nothing downstream can run without all three sources.
type RetrievalError struct {
	Source string
	URL    string
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s source (%s): %v", e.Source, e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// IsRetrievalError reports whether err is, or wraps, a RetrievalError.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}
