package loader

import "fmt"

// MalformedInputError reports a row of an input file that cannot be parsed.
type MalformedInputError struct {
	File   string
	Row    int
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Row, e.Reason)
	}

	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// RowError attaches a file position to an error found while interpreting a
// row.
type RowError struct {
	File string
	Row  int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
