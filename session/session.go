// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Prompt ends every interpreter turn.
const Prompt = "mmix> "

var promptBytes = []byte(Prompt)

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// Session is one live conversation with an interpreter instance.
type Session struct {
	ID      string        // Unique identifier, used in logs.
	Output  io.Writer     // Receives interpreter output outside of Exchange.
	Logger  *slog.Logger  // Optional.
	Timeout time.Duration // Maximum wait for a prompt; zero waits forever.

	host Host

	mu      sync.Mutex
	state   State
	conn    Conn
	acc     bytes.Buffer  // Output since the last flush.
	capture bool          // Set while Exchange owns acc.
	turn    chan struct{} // Closed when the outstanding turn ends.
	done    chan struct{} // Closed on termination.
	err     error         // Why the session terminated.
	turns   int           // Prompts observed.
}

// NewSession creates an unlaunched session on host.
func NewSession(host Host) *Session {
	return &Session{
		ID:   uuid.NewString(),
		host: host,
		done: make(chan struct{}),
	}
}

func (s *Session) log() *slog.Logger {
	return logger(s.Logger).With("session", s.ID)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns why the session terminated, or nil while it is live.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the session terminates.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Launch starts the interpreter against image and waits for its first
// prompt.
func (s *Session) Launch(ctx context.Context, image []byte) (err error) {
	s.mu.Lock()
	if s.state != StateUninitialized {
		state := s.state
		s.mu.Unlock()
		return &ErrViolation{Reason: f("launch while %v", state)}
	}
	s.state = StateLaunching
	s.turn = make(chan struct{})
	s.mu.Unlock()

	s.log().Debug("launching", "image", len(image))

	conn, err := s.host.Launch(ctx, image)
	if err != nil {
		err = &ErrLaunch{Err: err}
		s.terminate(err)
		return
	}

	s.mu.Lock()
	closed := s.state == StateTerminated
	s.conn = conn
	s.mu.Unlock()

	if closed {
		conn.Close()
		return s.Err()
	}

	go s.run(conn)

	err = s.Await(ctx)
	return
}

// run ingests interpreter output until it ends.
func (s *Session) run(conn Conn) {
	r := bufio.NewReader(conn)

	var err error
	for {
		var b byte
		b, err = r.ReadByte()
		if err != nil {
			break
		}
		s.ingest(b)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		err = nil
	}
	if werr := conn.Wait(); err == nil {
		err = werr
	}
	if err == nil {
		err = ErrExited
	}

	s.terminate(err)
}

// ingest appends one output byte and ends the turn when the accumulated
// output ends with the prompt.
func (s *Session) ingest(b byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.acc.WriteByte(b)
	if !bytes.HasSuffix(s.acc.Bytes(), promptBytes) {
		return
	}

	ended := false
	switch s.state {
	case StateLaunching, StateAwaitingResponse:
		s.state = StateReady
		s.turns++
		ended = true
	}

	if !s.capture {
		s.flushLocked()
	}

	if ended {
		close(s.turn)
		s.log().Debug("prompt", "turn", s.turns)
	}
}

func (s *Session) flushLocked() {
	if s.acc.Len() == 0 {
		return
	}
	if s.Output != nil {
		s.Output.Write(s.acc.Bytes())
	}
	s.acc.Reset()
}

// submitLocked claims the turn for text.
func (s *Session) submitLocked(text string) (conn Conn, line string, err error) {
	line = text
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	switch {
	case strings.Contains(line[:len(line)-1], "\n"):
		err = &ErrViolation{Command: text, Reason: f("multiple lines")}
	case s.state == StateTerminated:
		err = s.err
	case s.state == StateAwaitingResponse:
		err = &ErrViolation{Command: text, Reason: f("command outstanding")}
	case s.state != StateReady:
		err = &ErrViolation{Command: text, Reason: f("session %v", s.state)}
	}
	if err != nil {
		return
	}

	s.state = StateAwaitingResponse
	s.turn = make(chan struct{})
	conn = s.conn

	return
}

// deliver hands line to the interpreter's pending input.
func (s *Session) deliver(conn Conn, line string) (err error) {
	s.log().Debug("submit", "command", line)

	_, err = io.WriteString(conn, line)
	if err != nil {
		s.terminate(err)
		err = s.Err()
	}

	return
}

// Submit sends one command line. The session must be ready; a second
// Submit before the prompt returns fails with ErrProtocolViolation. A
// missing trailing newline is added.
func (s *Session) Submit(text string) (err error) {
	s.mu.Lock()
	conn, line, err := s.submitLocked(text)
	s.mu.Unlock()
	if err != nil {
		return
	}

	err = s.deliver(conn, line)
	return
}

// Await blocks until no command is outstanding.
//
// If ctx ends first, ctx.Err() is returned and the outstanding command keeps
// running. If Timeout elapses first, the session terminates with
// ErrTimeout.
func (s *Session) Await(ctx context.Context) (err error) {
	s.mu.Lock()
	state, turn, done := s.state, s.turn, s.done
	s.mu.Unlock()

	switch state {
	case StateUninitialized:
		return &ErrViolation{Reason: f("await before launch")}
	case StateTerminated:
		return s.Err()
	}

	select {
	case <-turn:
		return
	default:
	}

	var timeout <-chan time.Time
	if s.Timeout > 0 {
		timer := time.NewTimer(s.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-turn:
	case <-done:
		err = s.Err()
	case <-ctx.Done():
		err = ctx.Err()
	case <-timeout:
		s.log().Warn("no prompt", "timeout", s.Timeout)
		s.terminate(ErrTimeout)
		err = s.Err()
	}

	return
}

// Exchange waits until the session is ready, submits text, and returns the
// output produced up to and including the next prompt. Output that was
// buffered before the exchange is kept aside and restored afterwards.
func (s *Session) Exchange(ctx context.Context, text string) (output string, err error) {
	err = s.Await(ctx)
	if err != nil {
		return
	}

	s.mu.Lock()
	saved := bytes.Clone(s.acc.Bytes())
	s.acc.Reset()
	s.capture = true
	conn, line, err := s.submitLocked(text)
	if err != nil {
		s.restoreLocked(saved)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if err == nil {
			output = s.acc.String()
			s.acc.Reset()
		}
		s.restoreLocked(saved)
		s.mu.Unlock()
	}()

	err = s.deliver(conn, line)
	if err != nil {
		return
	}

	err = s.Await(ctx)
	return
}

// restoreLocked ends a capture window, putting saved ahead of anything still
// buffered.
func (s *Session) restoreLocked(saved []byte) {
	rest := bytes.Clone(s.acc.Bytes())
	s.acc.Reset()
	s.acc.Write(saved)
	s.acc.Write(rest)
	s.capture = false
}

// Close terminates the session and its interpreter.
func (s *Session) Close() error {
	s.terminate(ErrClosed)
	return nil
}

func (s *Session) terminate(cause error) {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return
	}
	s.state = StateTerminated
	s.err = &ErrEnded{Cause: cause}
	if !s.capture {
		s.flushLocked()
	}
	close(s.done)
	conn := s.conn
	s.mu.Unlock()

	s.log().Debug("terminated", "cause", cause)

	if conn != nil {
		conn.Close()
	}
}
