package debug

import (
	"context"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// OctaSize is the size of the simulator's memory word.
const OctaSize = 8

var reHexAddress = regexp.MustCompile(`^[0-9A-Fa-f]+$`)

// Memory reads at least count bytes starting at the octa holding the
// hexadecimal address start. Whole octas are returned.
func (dbg *Debugger) Memory(ctx context.Context, start string, count int) (data []byte, err error) {
	if count <= 0 {
		err = &ErrArgument{Name: "count", Value: count}
		return
	}
	if !reHexAddress.MatchString(start) {
		err = &ErrArgument{Name: "address", Value: start}
		return
	}
	if _, perr := strconv.ParseUint(start, 16, 64); perr != nil {
		err = &ErrArgument{Name: "address", Value: start}
		return
	}

	cmd := "M" + start + "#\n"
	octa, err := dbg.octas(ctx, cmd, 1)
	if err != nil {
		return
	}
	data = append(data, octa...)

	if count > OctaSize {
		more := (count - OctaSize + OctaSize - 1) / OctaSize
		cmd = "+" + strconv.Itoa(more) + "#\n"
		octa, err = dbg.octas(ctx, cmd, more)
		if err != nil {
			data = nil
			return
		}
		data = append(data, octa...)
	}

	return
}

// octas issues cmd and decodes the expected number of "<addr>=#<hex>" lines.
func (dbg *Debugger) octas(ctx context.Context, cmd string, expect int) (data []byte, err error) {
	reply, err := dbg.exchange(ctx, cmd)
	if err != nil {
		return
	}

	malformed := &ErrResponse{Command: cmd, Reply: reply}
	for line := range strings.Lines(reply) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		n := strings.LastIndex(line, "=#")
		if n < 0 {
			err = malformed
			return
		}
		hex := line[n+2:]
		if len(hex) == 0 || len(hex) > 16 || !reHexAddress.MatchString(hex) {
			err = malformed
			return
		}
		var value uint64
		value, err = strconv.ParseUint(hex, 16, 64)
		if err != nil {
			err = malformed
			return
		}
		data = binary.BigEndian.AppendUint64(data, value)
	}

	if len(data) != expect*OctaSize {
		data = nil
		err = malformed
	}

	return
}

// Octa is one row of a memory dump.
type Octa struct {
	Address  uint64
	Elements []uint64
}

// Octas groups data into rows of one octa each, splitting every row into
// big-endian elements of width bytes. A short final row is zero padded.
func Octas(start uint64, data []byte, width int) (rows []Octa, err error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		err = &ErrArgument{Name: "width", Value: width}
		return
	}

	start &^= OctaSize - 1
	for offset := 0; offset < len(data); offset += OctaSize {
		var octa [OctaSize]byte
		copy(octa[:], data[offset:])

		row := Octa{Address: start + uint64(offset)}
		for n := 0; n < OctaSize; n += width {
			var value uint64
			for _, b := range octa[n : n+width] {
				value = value<<8 | uint64(b)
			}
			row.Elements = append(row.Elements, value)
		}
		rows = append(rows, row)
	}

	return
}

// FormatElement renders one element of width bytes in the given format.
func FormatElement(value uint64, width int, format Format) string {
	if format == Hex {
		return fmt.Sprintf("#%0*x", width*2, value)
	}
	return strconv.FormatUint(value, 10)
}
