// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package workspace owns the program being debugged. Loading a new image
// replaces the running interpreter and its line map as a unit.
package workspace

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ezrec/mmixdbg/debug"
	"github.com/ezrec/mmixdbg/mmo"
	"github.com/ezrec/mmixdbg/session"
)

// Assembler turns source text into an object image.
type Assembler interface {
	Assemble(ctx context.Context, src []byte) ([]byte, error)
}

// AssemblerFunc adapts a function to an Assembler.
type AssemblerFunc func(ctx context.Context, src []byte) ([]byte, error)

func (fn AssemblerFunc) Assemble(ctx context.Context, src []byte) ([]byte, error) {
	return fn(ctx, src)
}

// Workspace holds at most one live program. It is safe for concurrent use.
type Workspace struct {
	Assembler Assembler     // Needed by Compile.
	Host      session.Host  // Starts interpreters.
	Output    io.Writer     // Interpreter output outside of queries.
	Timeout   time.Duration // Per-turn timeout for new sessions.
	Logger    *slog.Logger  // Optional.

	mu      sync.Mutex
	closed  bool
	sess    *session.Session
	dbg     *debug.Debugger
	version int
}

func (ws *Workspace) log() *slog.Logger {
	if ws.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return ws.Logger
}

// Compile assembles src and loads the result.
func (ws *Workspace) Compile(ctx context.Context, src []byte) (dbg *debug.Debugger, err error) {
	if ws.Assembler == nil {
		err = ErrNoAssembler
		return
	}

	image, err := ws.Assembler.Assemble(ctx, src)
	if err != nil {
		return
	}

	return ws.Load(ctx, image)
}

// Load decodes image, stops any running program and launches image in a
// fresh session.
func (ws *Workspace) Load(ctx context.Context, image []byte) (dbg *debug.Debugger, err error) {
	lines, err := mmo.Decode(image)
	if err != nil {
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.closed {
		err = ErrClosed
		return
	}

	ws.dropLocked()

	sess := session.NewSession(ws.Host)
	sess.Output = ws.Output
	sess.Timeout = ws.Timeout
	sess.Logger = ws.Logger

	err = sess.Launch(ctx, image)
	if err != nil {
		sess.Close()
		return
	}

	dbg = debug.NewDebugger(sess, lines)
	dbg.Logger = ws.Logger

	ws.sess = sess
	ws.dbg = dbg
	ws.version++

	ws.log().Info("program loaded", "session", sess.ID, "lines", lines.Len(), "version", ws.version)

	return
}

// Debugger returns the debugger of the current program.
func (ws *Workspace) Debugger() (dbg *debug.Debugger, err error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.dbg == nil {
		err = ErrNoProgram
		return
	}
	dbg = ws.dbg
	return
}

// Session returns the session of the current program.
func (ws *Workspace) Session() (sess *session.Session, err error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.sess == nil {
		err = ErrNoProgram
		return
	}
	sess = ws.sess
	return
}

// Version counts successful loads.
func (ws *Workspace) Version() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.version
}

// Close stops the current program. Later loads fail with ErrClosed.
func (ws *Workspace) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	ws.closed = true
	ws.dropLocked()
	return nil
}

func (ws *Workspace) dropLocked() {
	if ws.sess != nil {
		ws.sess.Close()
	}
	ws.sess = nil
	ws.dbg = nil
}
