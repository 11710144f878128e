// Package mmixal runs the MMIX assembler on source text and returns the
// object image it produces.
package mmixal
