package mmo

import (
	"encoding/binary"
	"fmt"
)

// Escape is the first byte of every lopcode tetra.
const Escape = 0x98

// TetraSize is the size, in bytes, of one unit of an object image.
const TetraSize = 4

// Lop identifies a lopcode record.
type Lop uint8

const (
	LopQuote Lop = 0  // Next tetra is data, even if it looks like a lopcode.
	LopLoc   Lop = 1  // Set the load location.
	LopSkip  Lop = 2  // Advance the load location.
	LopFixo  Lop = 3  // Fix up an octa; Z+1 tetras long.
	LopFixr  Lop = 4  // Fix up a relative address.
	LopFixrx Lop = 5  // Fix up a relative address, extended.
	LopFile  Lop = 6  // Source file name; Z+1 tetras long.
	LopLine  Lop = 7  // Set the source line number.
	LopSpec  Lop = 8  // Begin special data.
	LopPre   Lop = 9  // Preamble; Z+1 tetras long.
	LopPost  Lop = 10 // Postamble; ends the loadable stream.
)

var lopNames = [...]string{
	LopQuote: "lop_quote",
	LopLoc:   "lop_loc",
	LopSkip:  "lop_skip",
	LopFixo:  "lop_fixo",
	LopFixr:  "lop_fixr",
	LopFixrx: "lop_fixrx",
	LopFile:  "lop_file",
	LopLine:  "lop_line",
	LopSpec:  "lop_spec",
	LopPre:   "lop_pre",
	LopPost:  "lop_post",
}

func (lop Lop) String() string {
	if int(lop) < len(lopNames) {
		return lopNames[lop]
	}
	return fmt.Sprintf("lop_%d", uint8(lop))
}

// Builder assembles an object image one record at a time.
type Builder struct {
	buf []byte
}

func (b *Builder) lop(lop Lop, y, z uint8) *Builder {
	b.buf = append(b.buf, Escape, byte(lop), y, z)
	return b
}

// Tetra appends a raw tetra.
func (b *Builder) Tetra(word uint32) *Builder {
	b.buf = binary.BigEndian.AppendUint32(b.buf, word)
	return b
}

// Quote appends a lop_quote followed by word, so word is loaded verbatim.
func (b *Builder) Quote(word uint32) *Builder {
	return b.lop(LopQuote, 0, 1).Tetra(word)
}

// Loc appends a lop_loc. Addresses whose low part fits in 32 bits use the
// short form.
func (b *Builder) Loc(addr uint64) *Builder {
	high := uint8(addr >> 56)
	low := addr &^ (uint64(0xff) << 56)
	if low <= 0xffffffff {
		return b.lop(LopLoc, high, 1).Tetra(uint32(low))
	}
	b.lop(LopLoc, high, 2)
	b.buf = binary.BigEndian.AppendUint64(b.buf, low)
	return b
}

// Skip appends a lop_skip advancing the location by delta bytes.
func (b *Builder) Skip(delta uint16) *Builder {
	return b.lop(LopSkip, uint8(delta>>8), uint8(delta))
}

// Fixo appends a lop_fixo with an octa address.
func (b *Builder) Fixo(high uint8, addr uint64) *Builder {
	b.lop(LopFixo, high, 2)
	b.buf = binary.BigEndian.AppendUint64(b.buf, addr)
	return b
}

// Fixr appends a lop_fixr.
func (b *Builder) Fixr(delta uint16) *Builder {
	return b.lop(LopFixr, uint8(delta>>8), uint8(delta))
}

// Fixrx appends a bare lop_fixrx record.
func (b *Builder) Fixrx(z uint8) *Builder {
	return b.lop(LopFixrx, 0, z)
}

// File appends a lop_file naming source file y. The name is padded to a
// whole number of tetras.
func (b *Builder) File(y uint8, name string) *Builder {
	tetras := (len(name) + TetraSize - 1) / TetraSize
	b.lop(LopFile, y, uint8(tetras))
	padded := make([]byte, tetras*TetraSize)
	copy(padded, name)
	b.buf = append(b.buf, padded...)
	return b
}

// Line appends a lop_line setting the current source line.
func (b *Builder) Line(line uint16) *Builder {
	return b.lop(LopLine, uint8(line>>8), uint8(line))
}

// Spec appends a lop_spec beginning special data of the given type.
func (b *Builder) Spec(kind uint16) *Builder {
	return b.lop(LopSpec, uint8(kind>>8), uint8(kind))
}

// Pre appends a lop_pre with an optional creation timestamp.
func (b *Builder) Pre(stamps ...uint32) *Builder {
	b.lop(LopPre, 1, uint8(len(stamps)))
	for _, stamp := range stamps {
		b.Tetra(stamp)
	}
	return b
}

// Post appends a lop_post; rG is the first global register.
func (b *Builder) Post(rG uint8) *Builder {
	return b.lop(LopPost, 0, rG)
}

// Bytes returns the image built so far.
func (b *Builder) Bytes() []byte {
	return b.buf
}
