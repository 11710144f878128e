package session

import (
	"errors"

	"github.com/ezrec/mmixdbg/translate"
)

var f = translate.From

var (
	ErrProtocolViolation = errors.New(f("protocol violation"))
	ErrTerminated        = errors.New(f("session terminated"))
	ErrTimeout           = errors.New(f("timed out waiting for prompt"))
	ErrClosed            = errors.New(f("session closed"))
	ErrExited            = errors.New(f("interpreter exited"))
)

// ErrViolation describes a command that broke the one-command-in-flight rule.
type ErrViolation struct {
	Command string
	Reason  string
}

func (err *ErrViolation) Error() string {
	return f("protocol violation: %v: %q", err.Reason, err.Command)
}

func (err *ErrViolation) Is(target error) bool {
	return target == ErrProtocolViolation
}

// ErrEnded reports why a session terminated. It matches ErrTerminated and
// its cause.
type ErrEnded struct {
	Cause error
}

func (err *ErrEnded) Error() string {
	return f("session terminated: %v", err.Cause)
}

func (err *ErrEnded) Unwrap() []error {
	return []error{ErrTerminated, err.Cause}
}

// ErrLaunch wraps a failure to start the interpreter.
type ErrLaunch struct {
	Err error
}

func (err *ErrLaunch) Error() string {
	return f("launch: %v", err.Err)
}

func (err *ErrLaunch) Unwrap() error {
	return err.Err
}
