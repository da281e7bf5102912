package pagination

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned by Advance once the last page has been handed out.
	ErrExhausted = errors.New("pagination exhausted")

	// ErrMalformedLink is returned in strict mode when a page's Link header
	// cannot be parsed.
	ErrMalformedLink = errors.New("malformed link header")

	errNoResponse = errors.New("transport returned no response")
)

// DecodeError reports a page body that did not match the expected shape.
type DecodeError struct {
	// Index is the 1-based page number.
	Index int
	URL   string
	Err   error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode page %d (%s): %v", e.Index, e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
