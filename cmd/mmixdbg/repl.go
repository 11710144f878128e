package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ezrec/mmixdbg/debug"
	"github.com/ezrec/mmixdbg/workspace"
)

const replPrompt = "(mmixdbg) "

var errUsage = errors.New("usage")

// repl executes debugger command lines against a workspace.
type repl struct {
	ws  *workspace.Workspace
	out io.Writer

	registerFormat debug.Format
	memoryBytes    int
	memoryFormat   debug.Format
}

func (r *repl) help() {
	fmt.Fprint(r.out, `Commands:
  step, n, <empty>          execute one instruction
  c                         continue to a breakpoint or halt
  where                     show the current address and line
  reg NAME [!|#]            show one register
  regs [!|#]                show all local and global registers
  mem HEX COUNT [1|2|4|8] [!|#]
                            show COUNT bytes of memory from address HEX
  b LINE                    toggle the breakpoint on source line LINE
  breaks                    list breakpoints
  lines                     show the address to line table
  help                      show this help
  quit                      leave the debugger
`)
}

// optFormat parses an optional trailing format argument.
func optFormat(args []string, n int, def debug.Format) (format debug.Format, err error) {
	if len(args) <= n {
		format = def
		return
	}
	return debug.ParseFormat(args[n])
}

// exec runs one command line.
func (r *repl) exec(ctx context.Context, line string) (quit bool, err error) {
	args := strings.Fields(line)
	cmd := "step"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "quit", "q", "exit":
		quit = true
		return
	case "help", "?":
		r.help()
		return
	}

	dbg, err := r.ws.Debugger()
	if err != nil {
		return
	}

	switch cmd {
	case "step", "n":
		var at int
		var ok bool
		at, ok, err = dbg.Step(ctx)
		if err == nil {
			renderLocation(r.out, at, ok)
		}
	case "c", "cont", "continue":
		var at int
		var ok bool
		at, ok, err = dbg.Continue(ctx)
		if err == nil {
			renderLocation(r.out, at, ok)
		}
	case "where":
		var addr uint64
		addr, err = dbg.Where(ctx)
		if err != nil {
			return
		}
		at, lerr := dbg.Line(addr)
		fmt.Fprintf(r.out, "%s", hexAddress(addr))
		if lerr == nil {
			fmt.Fprintf(r.out, " line %d", at)
		}
		fmt.Fprintln(r.out)
	case "reg":
		if len(args) < 1 || len(args) > 2 {
			err = fmt.Errorf("%w: reg NAME [!|#]", errUsage)
			return
		}
		var format debug.Format
		format, err = optFormat(args, 1, r.registerFormat)
		if err != nil {
			return
		}
		var value string
		value, err = dbg.Register(ctx, args[0], format)
		if err == nil {
			fmt.Fprintf(r.out, "%s = %s\n", args[0], value)
		}
	case "regs":
		var format debug.Format
		format, err = optFormat(args, 0, r.registerFormat)
		if err != nil {
			return
		}
		var regs []debug.Register
		regs, err = dbg.Registers(ctx, format)
		if err == nil {
			renderRegisters(r.out, regs)
		}
	case "mem", "m":
		err = r.memory(ctx, dbg, args)
	case "b", "break":
		if len(args) != 1 {
			err = fmt.Errorf("%w: b LINE", errUsage)
			return
		}
		var at int
		at, err = strconv.Atoi(args[0])
		if err != nil {
			err = fmt.Errorf("%w: b LINE", errUsage)
			return
		}
		var enabled bool
		enabled, err = dbg.ToggleBreakpoint(ctx, at)
		if err == nil {
			state := "disabled"
			if enabled {
				state = "enabled"
			}
			fmt.Fprintf(r.out, "breakpoint at line %d %s\n", at, state)
		}
	case "breaks":
		renderBreakpoints(r.out, dbg.Breakpoints())
	case "lines":
		renderLines(r.out, dbg.Lines)
	default:
		err = fmt.Errorf("unknown command %q (type help for commands)", cmd)
	}

	return
}

func (r *repl) memory(ctx context.Context, dbg *debug.Debugger, args []string) (err error) {
	const usage = "mem HEX COUNT [1|2|4|8] [!|#]"

	if len(args) < 2 || len(args) > 4 {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}

	start := strings.TrimPrefix(args[0], "#")
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}

	width := r.memoryBytes
	format := r.memoryFormat
	for _, arg := range args[2:] {
		if n, nerr := strconv.Atoi(arg); nerr == nil {
			width = n
			continue
		}
		format, err = debug.ParseFormat(arg)
		if err != nil {
			return
		}
	}

	if width != 1 && width != 2 && width != 4 && width != 8 {
		return &debug.ErrArgument{Name: "width", Value: width}
	}

	data, err := dbg.Memory(ctx, start, count)
	if err != nil {
		return
	}

	// Memory has validated start.
	base, _ := strconv.ParseUint(start, 16, 64)

	rows, err := debug.Octas(base, data, width)
	if err != nil {
		return
	}

	renderMemory(r.out, rows, width, format)
	return
}

// run reads commands from rl until quit, end of input or ctx is done.
func (r *repl) run(ctx context.Context, rl *readline.Instance) (err error) {
	for ctx.Err() == nil {
		line, rerr := rl.Readline()
		if errors.Is(rerr, readline.ErrInterrupt) {
			continue
		}
		if rerr != nil {
			return
		}

		quit, xerr := r.exec(ctx, line)
		if xerr != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", xerr)
		}
		if quit {
			return
		}
	}

	return
}
