// Package debug implements source-level debugging on top of a simulator
// session.
//
// A Debugger pairs a session with the LineMap decoded from the running
// object image. Stepping, continuing, and breakpoints are phrased in
// source lines; register and memory reads are phrased in the simulator's
// own names and hexadecimal addresses.
package debug
