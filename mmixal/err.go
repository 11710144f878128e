package mmixal

import (
	"errors"

	"github.com/ezrec/mmixdbg/translate"
)

var f = translate.From

var ErrAssemblyFailed = errors.New(f("assembly failed"))

// ErrAssemble carries the assembler's diagnostics.
type ErrAssemble struct {
	Output string // Combined standard output and error.
	Err    error
}

func (err *ErrAssemble) Error() string {
	if err.Output == "" {
		return f("assembly failed: %v", err.Err)
	}
	return f("assembly failed: %v\n%s", err.Err, err.Output)
}

func (err *ErrAssemble) Unwrap() []error {
	return []error{ErrAssemblyFailed, err.Err}
}
