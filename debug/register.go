package debug

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/ezrec/mmixdbg/internal"
)

// Format selects how the simulator prints a value.
type Format byte

const (
	Decimal Format = '!'
	Hex     Format = '#'
)

// ParseFormat accepts "!" or "#"; an empty string selects Decimal.
func ParseFormat(text string) (format Format, err error) {
	switch text {
	case "", "!":
		format = Decimal
	case "#":
		format = Hex
	default:
		err = &ErrArgument{Name: "format", Value: text}
	}
	return
}

func (fm Format) valid() bool {
	return fm == Decimal || fm == Hex
}

func (fm Format) String() string {
	return string(fm)
}

// Register is a named register value, as printed by the simulator.
type Register struct {
	Name  string
	Value string
}

// RegisterCount is the number of general registers.
const RegisterCount = 256

// Register reads one register. name is a simulator register name such as
// "$3", "rL" or "g255".
func (dbg *Debugger) Register(ctx context.Context, name string, format Format) (value string, err error) {
	if !format.valid() {
		err = &ErrArgument{Name: "format", Value: string(format)}
		return
	}
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		err = &ErrArgument{Name: "register", Value: name}
		return
	}

	cmd := name + string(format) + "\n"
	reply, err := dbg.exchange(ctx, cmd)
	if err != nil {
		return
	}

	// The value follows the last '=', as in "$1=l[1]=42".
	n := strings.LastIndexByte(reply, '=')
	if n < 0 {
		err = &ErrResponse{Command: cmd, Reply: reply}
		return
	}
	value, _, _ = strings.Cut(reply[n+1:], "\n")

	return
}

// registerNames lists the registers in use: locals $0..$(rL-1) and globals
// $rG..$255.
func registerNames(rL, rG int) iter.Seq[string] {
	rL = min(max(rL, 0), RegisterCount)
	rG = min(max(rG, rL), RegisterCount)

	name := func(n int) string { return fmt.Sprintf("$%d", n) }

	return internal.IterSeqConcat(
		internal.IterMap(internal.IterRange(0, rL), name),
		internal.IterMap(internal.IterRange(rG, RegisterCount), name),
	)
}

// Registers reads every local and global register.
func (dbg *Debugger) Registers(ctx context.Context, format Format) (regs []Register, err error) {
	if !format.valid() {
		err = &ErrArgument{Name: "format", Value: string(format)}
		return
	}

	rL, err := dbg.count(ctx, "rL")
	if err != nil {
		return
	}
	rG, err := dbg.count(ctx, "rG")
	if err != nil {
		return
	}

	for name := range registerNames(rL, rG) {
		var value string
		value, err = dbg.Register(ctx, name, format)
		if err != nil {
			return
		}
		regs = append(regs, Register{Name: name, Value: value})
	}

	return
}

// count reads a special register holding a register count.
func (dbg *Debugger) count(ctx context.Context, name string) (n int, err error) {
	text, err := dbg.Register(ctx, name, Decimal)
	if err != nil {
		return
	}

	n, err = strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		err = &ErrResponse{Command: name + string(Decimal), Reply: text}
	}

	return
}
