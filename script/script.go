// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package script runs Starlark programs against a debugger.
//
// The predeclared functions are:
//
//	step()                 execute one instruction; returns the line or None
//	cont()                 continue to a breakpoint; returns the line or None
//	where()                current address as an int
//	reg(name, format="!")  one register, as printed
//	regs(format="!")       dict of every local and global register
//	mem(start, count)      bytes read from the hex address start
//	toggle(line)           flip a breakpoint; returns True when enabled
//	lines()                dict of address to source line
package script

import (
	"context"
	"fmt"
	"io"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/mmixdbg/debug"
)

const contextKey = "context"

// Run executes src, with print output going to out.
func Run(ctx context.Context, dbg *debug.Debugger, filename string, src []byte, out io.Writer) (err error) {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(out, msg)
		},
	}
	thread.SetLocal(contextKey, ctx)

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(ctx.Err().Error())
	})
	defer stop()

	_, err = starlark.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, Predeclared(dbg))
	return
}

// Predeclared returns the debugger builtins.
func Predeclared(dbg *debug.Debugger) starlark.StringDict {
	b := &builtins{dbg: dbg}
	return starlark.StringDict{
		"step":   starlark.NewBuiltin("step", b.step),
		"cont":   starlark.NewBuiltin("cont", b.cont),
		"where":  starlark.NewBuiltin("where", b.where),
		"reg":    starlark.NewBuiltin("reg", b.reg),
		"regs":   starlark.NewBuiltin("regs", b.regs),
		"mem":    starlark.NewBuiltin("mem", b.mem),
		"toggle": starlark.NewBuiltin("toggle", b.toggle),
		"lines":  starlark.NewBuiltin("lines", b.lines),
	}
}

type builtins struct {
	dbg *debug.Debugger
}

func threadContext(thread *starlark.Thread) context.Context {
	if ctx, ok := thread.Local(contextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

func location(line int, ok bool, err error) (starlark.Value, error) {
	if err != nil {
		return nil, err
	}
	if !ok {
		return starlark.None, nil
	}
	return starlark.MakeInt(line), nil
}

func (b *builtins) step(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return location(b.dbg.Step(threadContext(thread)))
}

func (b *builtins) cont(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return location(b.dbg.Continue(threadContext(thread)))
}

func (b *builtins) where(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs); err != nil {
		return nil, err
	}
	addr, err := b.dbg.Where(threadContext(thread))
	if err != nil {
		return nil, err
	}
	return starlark.MakeUint64(addr), nil
}

func (b *builtins) reg(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name, text string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "format?", &text); err != nil {
		return nil, err
	}
	fm, err := debug.ParseFormat(text)
	if err != nil {
		return nil, err
	}
	value, err := b.dbg.Register(threadContext(thread), name, fm)
	if err != nil {
		return nil, err
	}
	return starlark.String(value), nil
}

func (b *builtins) regs(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "format?", &text); err != nil {
		return nil, err
	}
	fm, err := debug.ParseFormat(text)
	if err != nil {
		return nil, err
	}
	regs, err := b.dbg.Registers(threadContext(thread), fm)
	if err != nil {
		return nil, err
	}
	dict := starlark.NewDict(len(regs))
	for _, reg := range regs {
		if err := dict.SetKey(starlark.String(reg.Name), starlark.String(reg.Value)); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

func (b *builtins) mem(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var start string
	var count int
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "start", &start, "count", &count); err != nil {
		return nil, err
	}
	data, err := b.dbg.Memory(threadContext(thread), start, count)
	if err != nil {
		return nil, err
	}
	return starlark.Bytes(data), nil
}

func (b *builtins) toggle(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var line int
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "line", &line); err != nil {
		return nil, err
	}
	enabled, err := b.dbg.ToggleBreakpoint(threadContext(thread), line)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(enabled), nil
}

func (b *builtins) lines(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs); err != nil {
		return nil, err
	}
	dict := starlark.NewDict(b.dbg.Lines.Len())
	for addr, line := range b.dbg.Lines.Addresses() {
		if err := dict.SetKey(starlark.MakeUint64(addr), starlark.MakeInt(line)); err != nil {
			return nil, err
		}
	}
	return dict, nil
}
