package paging

import (
	"errors"
	"fmt"
)

// ErrMalformedPage marks a response without a data object or without the expected items array.
var ErrMalformedPage = errors.New("malformed page")

// InvalidRangeError reports violated chunking preconditions.
type InvalidRangeError struct {
	Start   string
	End     string
	MaxSpan int
}

func (e *InvalidRangeError) Error() string {
	if e.MaxSpan < 1 {
		return fmt.Sprintf("invalid range: max span %d days, need >= 1", e.MaxSpan)
	}
	return fmt.Sprintf("invalid range: start %s is after end %s", e.Start, e.End)
}

// PageRequestError reports a single failed page request.
// Paginator recovers from it locally: the stream ends and partial results are kept.
type PageRequestError struct {
	URL    string
	Offset int
	Err    error
}

func (e *PageRequestError) Error() string {
	return fmt.Sprintf("page request %s (offset %d): %v", e.URL, e.Offset, e.Err)
}

func (e *PageRequestError) Unwrap() error { return e.Err }
