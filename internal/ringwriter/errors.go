package ringwriter

import "fmt"

// WriteError is returned when opening, seeking or writing the backing file
// fails. The Write Offset has not been advanced.
type WriteError struct {
	Op     string // "open", "seek" or "write"
	Path   string
	Offset int64
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s at offset %d: %v", e.Op, e.Path, e.Offset, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// CloseError is returned when the record was written but closing the file
// failed. The Write Offset has already been advanced past the record.
type CloseError struct {
	Path string
	Err  error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("close %s: %v", e.Path, e.Err)
}

func (e *CloseError) Unwrap() error {
	return e.Err
}
