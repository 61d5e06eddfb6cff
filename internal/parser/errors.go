package parser

import "fmt"

// FormatError is a whole-document failure: the body could not be parsed
// under the sniffed format at all. It aborts the fetch and surfaces to
// the caller.
type FormatError struct {
	Format Format
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("parser: malformed %s document: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ValidationError is a per-row failure (empty symbol, cancelled row,
// undecodable entry). It causes the row, never the batch, to be dropped.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "parser: row dropped: " + e.Reason
}
