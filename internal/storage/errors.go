package storage

import "fmt"

// WriteError reports that content could not be persisted.
type WriteError struct {
	// Op is the failed step: "write", "backup", "seed" or "reset".
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *WriteError) Unwrap() error {
	return e.Err
}
