package mmo

import (
	"iter"
	"maps"
	"slices"
)

// LineMap correlates loaded instruction addresses with source lines.
type LineMap struct {
	addrToLine map[uint64]int
	lineToAddr map[int]uint64
}

// NewLineMap returns an empty line map.
func NewLineMap() *LineMap {
	return &LineMap{
		addrToLine: map[uint64]int{},
		lineToAddr: map[int]uint64{},
	}
}

// Set records that addr was produced by line. The line to address mapping is
// last-write-wins.
func (lm *LineMap) Set(addr uint64, line int) {
	lm.addrToLine[addr] = line
	lm.lineToAddr[line] = addr
}

// Line returns the source line that produced addr.
func (lm *LineMap) Line(addr uint64) (line int, ok bool) {
	if lm == nil {
		return
	}
	line, ok = lm.addrToLine[addr]
	return
}

// Address returns the address recorded for line.
func (lm *LineMap) Address(line int) (addr uint64, ok bool) {
	if lm == nil {
		return
	}
	addr, ok = lm.lineToAddr[line]
	return
}

// Len returns the number of mapped addresses.
func (lm *LineMap) Len() int {
	if lm == nil {
		return 0
	}
	return len(lm.addrToLine)
}

// Addresses iterates address and line pairs in ascending address order.
func (lm *LineMap) Addresses() iter.Seq2[uint64, int] {
	return func(yield func(uint64, int) bool) {
		if lm == nil {
			return
		}
		for _, addr := range slices.Sorted(maps.Keys(lm.addrToLine)) {
			if !yield(addr, lm.addrToLine[addr]) {
				return
			}
		}
	}
}

// Lines iterates line and address pairs in ascending line order.
func (lm *LineMap) Lines() iter.Seq2[int, uint64] {
	return func(yield func(int, uint64) bool) {
		if lm == nil {
			return
		}
		for _, line := range slices.Sorted(maps.Keys(lm.lineToAddr)) {
			if !yield(line, lm.lineToAddr[line]) {
				return
			}
		}
	}
}

// Equal reports whether both maps hold identical mappings.
func (lm *LineMap) Equal(other *LineMap) bool {
	return maps.Equal(lm.addrToLine, other.addrToLine) &&
		maps.Equal(lm.lineToAddr, other.lineToAddr)
}
