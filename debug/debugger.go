// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package debug

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ezrec/mmixdbg/mmo"
	"github.com/ezrec/mmixdbg/session"
)

// Conversation is the part of a session the debugger drives.
type Conversation interface {
	Submit(text string) error
	Await(ctx context.Context) error
	Exchange(ctx context.Context, text string) (string, error)
}

var _ Conversation = (*session.Session)(nil)

// Debugger offers source-level control of one running program.
type Debugger struct {
	Session Conversation
	Lines   *mmo.LineMap
	Logger  *slog.Logger // Optional.

	mu          sync.Mutex
	breakpoints map[uint64]bool
}

// NewDebugger pairs a launched session with the line map of its image.
func NewDebugger(sess Conversation, lines *mmo.LineMap) *Debugger {
	return &Debugger{
		Session:     sess,
		Lines:       lines,
		breakpoints: map[uint64]bool{},
	}
}

func (dbg *Debugger) log() *slog.Logger {
	if dbg.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return dbg.Logger
}

// exchange sends cmd and returns the reply without its trailing prompt.
func (dbg *Debugger) exchange(ctx context.Context, cmd string) (reply string, err error) {
	reply, err = dbg.Session.Exchange(ctx, cmd)
	reply = strings.TrimSuffix(reply, session.Prompt)
	return
}

// run submits cmd with its output going to the session's Output, then
// reports the new source line.
func (dbg *Debugger) run(ctx context.Context, cmd string) (line int, ok bool, err error) {
	err = dbg.Session.Await(ctx)
	if err != nil {
		return
	}

	err = dbg.Session.Submit(cmd)
	if err != nil {
		return
	}

	err = dbg.Session.Await(ctx)
	if err != nil {
		return
	}

	return dbg.Location(ctx)
}

// Step executes one instruction.
func (dbg *Debugger) Step(ctx context.Context) (line int, ok bool, err error) {
	return dbg.run(ctx, "\n")
}

// Continue runs until a breakpoint or halt.
func (dbg *Debugger) Continue(ctx context.Context) (line int, ok bool, err error) {
	return dbg.run(ctx, "c\n")
}

var reLocation = regexp.MustCompile(`now at location #([0-9A-Fa-f]+)`)

// Where asks the simulator for the current execution address.
func (dbg *Debugger) Where(ctx context.Context) (addr uint64, err error) {
	const cmd = "s\n"

	reply, err := dbg.exchange(ctx, cmd)
	if err != nil {
		return
	}

	match := reLocation.FindStringSubmatch(reply)
	if match == nil {
		err = &ErrResponse{Command: cmd, Reply: reply}
		return
	}

	addr, err = strconv.ParseUint(match[1], 16, 64)
	if err != nil {
		err = &ErrResponse{Command: cmd, Reply: reply}
	}

	return
}

// Line maps an address to its source line.
func (dbg *Debugger) Line(addr uint64) (line int, err error) {
	line, ok := dbg.Lines.Line(addr)
	if !ok {
		err = ErrAddress(addr)
	}
	return
}

// Location reports the source line being executed. ok is false when the
// simulator reports no location (for example, after halting) or when the
// location is not program text.
func (dbg *Debugger) Location(ctx context.Context) (line int, ok bool, err error) {
	addr, err := dbg.Where(ctx)
	if errors.Is(err, ErrMalformedResponse) {
		dbg.log().Debug("no location", "err", err)
		err = nil
		return
	}
	if err != nil {
		return
	}

	line, err = dbg.Line(addr)
	if errors.Is(err, ErrUnresolvedAddress) {
		dbg.log().Debug("no line", "addr", addr)
		err = nil
		return
	}
	ok = err == nil

	return
}
