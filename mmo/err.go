package mmo

import (
	"errors"

	"github.com/ezrec/mmixdbg/translate"
)

var f = translate.From

var (
	ErrTruncated = errors.New(f("object image truncated"))
)

// ErrRecord indicates the offset of a record that could not be decoded.
type ErrRecord struct {
	Offset int
	Tetra  []byte // Leading bytes of the record, if any.
	Err    error
}

func (err *ErrRecord) Error() string {
	if len(err.Tetra) >= 2 && err.Tetra[0] == Escape {
		return f("offset %#x %v %v", err.Offset, Lop(err.Tetra[1]), err.Err)
	}
	return f("offset %#x %v", err.Offset, err.Err)
}

func (err *ErrRecord) Unwrap() error {
	return err.Err
}
