package fakemmix

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Machine is a Handler modelling just enough of the simulator for the
// debugger: a fixed execution trace, registers, memory and breakpoints.
type Machine struct {
	Trace     []uint64          // Addresses executed, in order.
	Registers map[string]uint64 // Register values by name ("$0", "rL", ...).
	Memory    map[uint64]uint64 // Octas by aligned address.

	mu     sync.Mutex
	pc     int // Index into Trace; len(Trace) once halted.
	breaks map[uint64]bool
	next   uint64 // Address of the octa "+" continues from.
}

// Handle answers one command line.
func (m *Machine) Handle(cmd string) Reply {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case cmd == "":
		return Reply{Text: m.step()}
	case cmd == "c":
		var text strings.Builder
		for {
			text.WriteString(m.step())
			if m.halted() || m.breaks[m.Trace[m.pc]] {
				break
			}
		}
		return Reply{Text: text.String()}
	case cmd == "s":
		if m.halted() {
			return Reply{Text: fmt.Sprintf(" %d instructions, 0 mems, %d oops; 0 good guesses, 0 bad\n  (halted at location #%016x)\n",
				m.pc, m.pc, m.last())}
		}
		return Reply{Text: fmt.Sprintf(" %d instructions, 0 mems, %d oops; 0 good guesses, 0 bad\n  (now at location #%016x)\n",
			m.pc, m.pc, m.Trace[m.pc])}
	case strings.HasPrefix(cmd, "bx"):
		if addr, err := strconv.ParseUint(cmd[2:], 16, 64); err == nil {
			delete(m.breaks, addr)
		}
		return Reply{}
	case strings.HasPrefix(cmd, "b"):
		if addr, err := strconv.ParseUint(cmd[1:], 16, 64); err == nil {
			if m.breaks == nil {
				m.breaks = map[uint64]bool{}
			}
			m.breaks[addr] = true
		}
		return Reply{}
	case strings.HasPrefix(cmd, "M") && strings.HasSuffix(cmd, "#"):
		addr, err := strconv.ParseUint(cmd[1:len(cmd)-1], 16, 64)
		if err != nil {
			return Reply{Text: "Eh?\n"}
		}
		m.next = addr &^ 7
		return Reply{Text: m.octas(1)}
	case strings.HasPrefix(cmd, "+") && strings.HasSuffix(cmd, "#"):
		n, err := strconv.Atoi(cmd[1 : len(cmd)-1])
		if err != nil {
			return Reply{Text: "Eh?\n"}
		}
		return Reply{Text: m.octas(n)}
	case strings.HasSuffix(cmd, "!") || strings.HasSuffix(cmd, "#"):
		return Reply{Text: m.register(cmd[:len(cmd)-1], cmd[len(cmd)-1])}
	}

	return Reply{Text: "Eh? Sorry, I don't understand that.\n"}
}

// Breakpoints returns the addresses with breakpoints set.
func (m *Machine) Breakpoints() map[uint64]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	bps := map[uint64]bool{}
	for addr := range m.breaks {
		bps[addr] = true
	}
	return bps
}

func (m *Machine) halted() bool {
	return m.pc >= len(m.Trace)
}

func (m *Machine) last() (addr uint64) {
	if len(m.Trace) > 0 {
		addr = m.Trace[len(m.Trace)-1]
	}
	return
}

func (m *Machine) step() string {
	if m.halted() {
		return ""
	}
	addr := m.Trace[m.pc]
	m.pc++
	text := fmt.Sprintf("    %d. %016x: 00000000 (TRAP)\n", m.pc, addr)
	if m.halted() {
		text += "  halted\n"
	}
	return text
}

func (m *Machine) octas(n int) string {
	var text strings.Builder
	for range n {
		fmt.Fprintf(&text, "M8[#%x]=#%x\n", m.next, m.Memory[m.next])
		m.next += 8
	}
	return text.String()
}

func (m *Machine) register(name string, format byte) string {
	value := m.Registers[name]

	var shown string
	if format == '#' {
		shown = fmt.Sprintf("#%x", value)
	} else {
		shown = strconv.FormatUint(value, 10)
	}

	// Local registers are echoed with their ring position, as the simulator
	// does: $1=l[1]=42.
	if n, ok := strings.CutPrefix(name, "$"); ok {
		return fmt.Sprintf("%s=l[%s]=%s\n", name, n, shown)
	}
	return fmt.Sprintf("%s=%s\n", name, shown)
}
