package telemetry

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by RequestError when the API answers 404.
var ErrNotFound = errors.New("not found")

// RequestError describes a failed telemetry request. Only operations without
// a fallback (FetchExecutionDetail, Health) return it.
type RequestError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: API returned %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
