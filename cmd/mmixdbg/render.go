package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ezrec/mmixdbg/debug"
	"github.com/ezrec/mmixdbg/mmo"
)

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}

func hexAddress(addr uint64) string {
	return fmt.Sprintf("#%016x", addr)
}

func renderLines(w io.Writer, lines *mmo.LineMap) {
	if lines.Len() == 0 {
		fmt.Fprintln(w, "(no line information)")
		return
	}

	t := newTable(w, "Address", "Line")
	for addr, line := range lines.Addresses() {
		t.AppendRow(table.Row{hexAddress(addr), line})
	}
	t.Render()
}

func renderRegisters(w io.Writer, regs []debug.Register) {
	t := newTable(w, "Register", "Value")
	for _, reg := range regs {
		t.AppendRow(table.Row{reg.Name, reg.Value})
	}
	t.Render()
}

func renderMemory(w io.Writer, rows []debug.Octa, width int, format debug.Format) {
	header := table.Row{"Address"}
	for n := 0; n < debug.OctaSize; n += width {
		header = append(header, fmt.Sprintf("+%d", n))
	}

	t := newTable(w, header...)
	for _, row := range rows {
		cells := table.Row{hexAddress(row.Address)}
		for _, value := range row.Elements {
			cells = append(cells, debug.FormatElement(value, width, format))
		}
		t.AppendRow(cells)
	}
	t.Render()
}

func renderBreakpoints(w io.Writer, bps []debug.Breakpoint) {
	if len(bps) == 0 {
		fmt.Fprintln(w, "(no breakpoints)")
		return
	}

	t := newTable(w, "Line", "Address")
	for _, bp := range bps {
		t.AppendRow(table.Row{bp.Line, hexAddress(bp.Address)})
	}
	t.Render()
}

func renderLocation(w io.Writer, line int, ok bool) {
	if !ok {
		fmt.Fprintln(w, "(no source line)")
		return
	}
	fmt.Fprintf(w, "line %d\n", line)
}
