package session

import (
	"fmt"
)

// State of a Session.
type State int

const (
	// StateUninitialized is a session that has not been launched.
	StateUninitialized State = iota
	// StateLaunching is waiting for the interpreter's first prompt.
	StateLaunching
	// StateReady has no command outstanding.
	StateReady
	// StateAwaitingResponse has one command outstanding.
	StateAwaitingResponse
	// StateTerminated no longer accepts commands.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLaunching:
		return "launching"
	case StateReady:
		return "ready"
	case StateAwaitingResponse:
		return "awaiting-response"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}
