package workspace

import (
	"errors"

	"github.com/ezrec/mmixdbg/translate"
)

var f = translate.From

var (
	ErrNoProgram   = errors.New(f("no program loaded"))
	ErrNoAssembler = errors.New(f("no assembler configured"))
	ErrClosed      = errors.New(f("workspace closed"))
)
