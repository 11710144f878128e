package config

import (
	"errors"

	"github.com/ezrec/mmixdbg/translate"
)

var f = translate.From

var ErrInvalidConfig = errors.New(f("invalid configuration"))

// ErrLoad reports a configuration source that could not be read.
type ErrLoad struct {
	Source string
	Err    error
}

func (err *ErrLoad) Error() string {
	return f("config %v: %v", err.Source, err.Err)
}

func (err *ErrLoad) Unwrap() error {
	return err.Err
}

// ErrInvalid reports a setting with an unacceptable value.
type ErrInvalid struct {
	Key   string
	Value any
}

func (err *ErrInvalid) Error() string {
	return f("invalid %v: %v", err.Key, err.Value)
}

func (err *ErrInvalid) Is(target error) bool {
	return target == ErrInvalidConfig
}
