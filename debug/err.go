package debug

import (
	"errors"

	"github.com/ezrec/mmixdbg/translate"
)

var f = translate.From

var (
	ErrInvalidArgument   = errors.New(f("invalid argument"))
	ErrUnresolvedLine    = errors.New(f("line has no address"))
	ErrUnresolvedAddress = errors.New(f("address has no line"))
	ErrMalformedResponse = errors.New(f("malformed response"))
)

// ErrArgument describes a rejected argument.
type ErrArgument struct {
	Name  string
	Value any
}

func (err *ErrArgument) Error() string {
	if text, ok := err.Value.(string); ok {
		return f("invalid %v %q", err.Name, text)
	}
	return f("invalid %v %v", err.Name, err.Value)
}

func (err *ErrArgument) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ErrResponse carries an interpreter reply that did not have the expected
// shape.
type ErrResponse struct {
	Command string
	Reply   string
}

func (err *ErrResponse) Error() string {
	return f("malformed response to %q: %q", err.Command, err.Reply)
}

func (err *ErrResponse) Is(target error) bool {
	return target == ErrMalformedResponse
}

// ErrLine reports a source line with no mapped address.
type ErrLine int

func (err ErrLine) Error() string {
	return f("line %d has no address", int(err))
}

func (err ErrLine) Is(target error) bool {
	return target == ErrUnresolvedLine
}

// ErrAddress reports an address with no mapped source line.
type ErrAddress uint64

func (err ErrAddress) Error() string {
	return f("address #%x has no line", uint64(err))
}

func (err ErrAddress) Is(target error) bool {
	return target == ErrUnresolvedAddress
}
