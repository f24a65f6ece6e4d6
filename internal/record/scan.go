package record

import (
	"errors"
	"fmt"
	"io"
)

// Scan reads consecutive records from r and calls fn with each record and
// its byte offset. A trailing partial record is reported as an error after
// every complete record has been passed to fn.
func Scan(r io.Reader, fn func(offset int64, rec *Record) error) error {
	buf := make([]byte, Size)
	var offset int64

	for {
		n, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("trailing %d bytes at offset %d: %w", n, offset, err)
		}
		if err != nil {
			return err
		}

		rec, err := DecodeRecordFromBytes(buf)
		if err != nil {
			return err
		}
		if err := fn(offset, rec); err != nil {
			return err
		}

		offset += Size
	}
}
