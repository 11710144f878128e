// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package mmo

import (
	"encoding/binary"
)

// decoder holds the transient state of a single Decode pass.
type decoder struct {
	data    []byte
	offset  int
	addr    uint64
	line    int
	special int // Running special data type; negative when inactive.
	track   bool
	quoted  bool
	lines   *LineMap
}

// Decode scans an object image and returns the address and line mappings
// of every tracked instruction tetra.
//
// Decoding stops at lop_post. A record that runs past the end of data stops
// decoding; the mappings gathered so far are returned with an error wrapping
// ErrTruncated.
func Decode(data []byte) (lm *LineMap, err error) {
	dec := &decoder{
		data:    data,
		special: -1,
		track:   true,
		lines:   NewLineMap(),
	}

	err = dec.run()
	lm = dec.lines

	return
}

// need verifies that size bytes are available at the current offset.
func (dec *decoder) need(size int) (err error) {
	if size > len(dec.data)-dec.offset {
		err = &ErrRecord{Offset: dec.offset, Tetra: dec.data[dec.offset:min(len(dec.data), dec.offset+TetraSize)], Err: ErrTruncated}
	}
	return
}

func (dec *decoder) u16() uint16 {
	return binary.BigEndian.Uint16(dec.data[dec.offset+2:])
}

func (dec *decoder) run() (err error) {
	for dec.offset < len(dec.data) {
		if dec.data[dec.offset] != Escape || dec.quoted {
			err = dec.word()
			if err != nil {
				return
			}
			continue
		}

		err = dec.need(TetraSize)
		if err != nil {
			return
		}

		lop := Lop(dec.data[dec.offset+1])
		if lop > LopPost {
			// Not a lopcode this decoder knows; load it as a word.
			err = dec.word()
			if err != nil {
				return
			}
			continue
		}

		dec.special = -1

		y := dec.data[dec.offset+2]
		z := dec.data[dec.offset+3]
		size := TetraSize

		switch lop {
		case LopQuote:
			dec.quoted = true
		case LopLoc:
			high := uint64(y) << 56
			if z == 1 {
				size += 4
				if err = dec.need(size); err != nil {
					return
				}
				dec.addr = high | uint64(binary.BigEndian.Uint32(dec.data[dec.offset+4:]))
				dec.track = y == 0
			} else {
				size += 8
				if err = dec.need(size); err != nil {
					return
				}
				dec.addr = high | binary.BigEndian.Uint64(dec.data[dec.offset+4:])
				dec.track = dec.addr>>56 == 0
			}
		case LopSkip:
			dec.addr += uint64(dec.u16())
		case LopFixo, LopPre:
			size = (int(z) + 1) * TetraSize
		case LopFixr, LopFixrx:
		case LopFile:
			dec.line = 0
			size = (int(z) + 1) * TetraSize
		case LopLine:
			dec.line = int(dec.u16())
		case LopSpec:
			dec.special = int(dec.u16())
		case LopPost:
			return
		}

		if err = dec.need(size); err != nil {
			return
		}
		dec.offset += size
	}

	return
}

// word loads one tetra at the current location.
func (dec *decoder) word() (err error) {
	if err = dec.need(TetraSize); err != nil {
		return
	}

	if dec.special < 0 && dec.track {
		dec.lines.Set(dec.addr, dec.line)
		dec.line++
		dec.addr += TetraSize
	}

	dec.quoted = false
	dec.offset += TetraSize

	return
}
