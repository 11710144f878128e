package debug

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Breakpoint is an enabled breakpoint.
type Breakpoint struct {
	Address uint64
	Line    int
}

// ToggleBreakpoint flips the breakpoint on the address of line and reports
// whether it is now enabled.
func (dbg *Debugger) ToggleBreakpoint(ctx context.Context, line int) (enabled bool, err error) {
	addr, ok := dbg.Lines.Address(line)
	if !ok {
		err = ErrLine(line)
		return
	}

	dbg.mu.Lock()
	defer dbg.mu.Unlock()

	if dbg.breakpoints == nil {
		dbg.breakpoints = map[uint64]bool{}
	}

	enabled = !dbg.breakpoints[addr]

	var cmd string
	if enabled {
		cmd = fmt.Sprintf("b%x\n", addr)
	} else {
		cmd = fmt.Sprintf("bx%x\n", addr)
	}

	_, err = dbg.exchange(ctx, cmd)
	if err != nil {
		enabled = !enabled
		return
	}

	if enabled {
		dbg.breakpoints[addr] = true
	} else {
		delete(dbg.breakpoints, addr)
	}

	dbg.log().Debug("breakpoint", "line", line, "addr", addr, "enabled", enabled)

	return
}

// Breakpoints lists the enabled breakpoints in address order.
func (dbg *Debugger) Breakpoints() (list []Breakpoint) {
	dbg.mu.Lock()
	defer dbg.mu.Unlock()

	for _, addr := range slices.Sorted(maps.Keys(dbg.breakpoints)) {
		line, _ := dbg.Lines.Line(addr)
		list = append(list, Breakpoint{Address: addr, Line: line})
	}

	return
}
