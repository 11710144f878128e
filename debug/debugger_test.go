package debug_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/mmixdbg/debug"
	"github.com/ezrec/mmixdbg/internal/fakemmix"
	"github.com/ezrec/mmixdbg/internal/testlog"
	"github.com/ezrec/mmixdbg/mmo"
	"github.com/ezrec/mmixdbg/session"
)

// program is three instructions at #100 on source lines 1 to 3.
func program() (image []byte, lines *mmo.LineMap) {
	image = (&mmo.Builder{}).
		Pre(0).
		Loc(0x100).
		File(0, "code.mms").
		Line(1).
		Tetra(0xe3ff0001).
		Tetra(0xe3ff0002).
		Tetra(0x00000000).
		Post(255).
		Bytes()

	lines, err := mmo.Decode(image)
	if err != nil {
		panic(err)
	}
	return
}

func newDebugger(t *testing.T, m *fakemmix.Machine) (dbg *debug.Debugger, host *fakemmix.Host) {
	t.Helper()

	image, lines := program()

	logger := testlog.New(t)

	host = &fakemmix.Host{Handler: m.Handle}
	sess := session.NewSession(host)
	sess.Timeout = 5 * time.Second
	sess.Logger = logger
	t.Cleanup(func() { sess.Close() })

	require.NoError(t, sess.Launch(context.Background(), image))

	dbg = debug.NewDebugger(sess, lines)
	dbg.Logger = logger
	return
}

func trace() *fakemmix.Machine {
	return &fakemmix.Machine{Trace: []uint64{0x100, 0x104, 0x108}}
}

func TestDebugger_Step(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	dbg, host := newDebugger(t, trace())

	line, ok, err := dbg.Step(ctx)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(2, line)

	line, ok, err = dbg.Step(ctx)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(3, line)

	assert.Equal([]string{"", "s", "", "s"}, host.Commands())
}

func TestDebugger_ContinueToHalt(t *testing.T) {
	assert := assert.New(t)

	dbg, host := newDebugger(t, trace())

	_, ok, err := dbg.Continue(context.Background())
	assert.NoError(err)
	assert.False(ok)
	assert.Equal([]string{"c", "s"}, host.Commands())
}

func TestDebugger_Breakpoint(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	m := trace()
	dbg, host := newDebugger(t, m)

	enabled, err := dbg.ToggleBreakpoint(ctx, 3)
	assert.NoError(err)
	assert.True(enabled)
	assert.Equal(map[uint64]bool{0x108: true}, m.Breakpoints())
	assert.Equal([]debug.Breakpoint{{Address: 0x108, Line: 3}}, dbg.Breakpoints())

	line, ok, err := dbg.Continue(ctx)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(3, line)

	enabled, err = dbg.ToggleBreakpoint(ctx, 3)
	assert.NoError(err)
	assert.False(enabled)
	assert.Empty(m.Breakpoints())
	assert.Empty(dbg.Breakpoints())

	assert.Equal([]string{"b108", "c", "s", "bx108"}, host.Commands())
}

func TestDebugger_BreakpointUnmapped(t *testing.T) {
	assert := assert.New(t)

	dbg, host := newDebugger(t, trace())

	_, err := dbg.ToggleBreakpoint(context.Background(), 42)
	assert.ErrorIs(err, debug.ErrUnresolvedLine)
	assert.Equal(debug.ErrLine(42), err)
	assert.Empty(host.Commands())
}

func TestDebugger_Where(t *testing.T) {
	assert := assert.New(t)

	dbg, _ := newDebugger(t, trace())

	addr, err := dbg.Where(context.Background())
	assert.NoError(err)
	assert.Equal(uint64(0x100), addr)

	line, err := dbg.Line(addr)
	assert.NoError(err)
	assert.Equal(1, line)

	_, err = dbg.Line(0x200)
	assert.ErrorIs(err, debug.ErrUnresolvedAddress)
}

func TestDebugger_WhereMalformed(t *testing.T) {
	assert := assert.New(t)

	dbg, _ := newDebugger(t, &fakemmix.Machine{})

	_, err := dbg.Where(context.Background())
	assert.ErrorIs(err, debug.ErrMalformedResponse)

	_, ok, err := dbg.Location(context.Background())
	assert.NoError(err)
	assert.False(ok)
}

func TestDebugger_LocationUnmapped(t *testing.T) {
	assert := assert.New(t)

	dbg, _ := newDebugger(t, &fakemmix.Machine{Trace: []uint64{0x2000}})

	_, ok, err := dbg.Location(context.Background())
	assert.NoError(err)
	assert.False(ok)
}

func TestDebugger_Register(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	m := trace()
	m.Registers = map[string]uint64{"$1": 42, "rJ": 0x10}
	dbg, host := newDebugger(t, m)

	value, err := dbg.Register(ctx, "$0", debug.Decimal)
	assert.NoError(err)
	assert.Equal("0", value)

	value, err = dbg.Register(ctx, "$1", debug.Decimal)
	assert.NoError(err)
	assert.Equal("42", value)

	value, err = dbg.Register(ctx, "rJ", debug.Hex)
	assert.NoError(err)
	assert.Equal("#10", value)

	_, err = dbg.Register(ctx, "rJ", debug.Format('?'))
	assert.ErrorIs(err, debug.ErrInvalidArgument)

	_, err = dbg.Register(ctx, "", debug.Decimal)
	assert.ErrorIs(err, debug.ErrInvalidArgument)

	assert.Equal([]string{"$0!", "$1!", "rJ#"}, host.Commands())
}

func TestDebugger_RegisterMalformed(t *testing.T) {
	assert := assert.New(t)

	host := &fakemmix.Host{Handler: func(cmd string) fakemmix.Reply {
		return fakemmix.Reply{Text: "Eh?\n"}
	}}
	sess := session.NewSession(host)
	t.Cleanup(func() { sess.Close() })
	require.NoError(t, sess.Launch(context.Background(), nil))

	dbg := debug.NewDebugger(sess, mmo.NewLineMap())
	_, err := dbg.Register(context.Background(), "rA", debug.Decimal)
	assert.ErrorIs(err, debug.ErrMalformedResponse)
}

func TestDebugger_Registers(t *testing.T) {
	assert := assert.New(t)

	m := trace()
	m.Registers = map[string]uint64{
		"rL":   2,
		"rG":   254,
		"$0":   7,
		"$1":   8,
		"$254": 0x100,
		"$255": 1,
	}
	dbg, _ := newDebugger(t, m)

	regs, err := dbg.Registers(context.Background(), debug.Hex)
	assert.NoError(err)
	assert.Equal([]debug.Register{
		{Name: "$0", Value: "#7"},
		{Name: "$1", Value: "#8"},
		{Name: "$254", Value: "#100"},
		{Name: "$255", Value: "#1"},
	}, regs)
}

func TestDebugger_Memory(t *testing.T) {
	ctx := context.Background()

	memory := map[uint64]uint64{
		0x1000: 0x0102030405060708,
		0x1008: 0xff,
		0x1010: 0x1122334455667788,
	}

	table := [...]struct {
		name     string
		start    string
		count    int
		data     []byte
		commands []string
	}{
		{"one", "1000", 8,
			[]byte{1, 2, 3, 4, 5, 6, 7, 8},
			[]string{"M1000#"}},
		{"short", "1000", 1,
			[]byte{1, 2, 3, 4, 5, 6, 7, 8},
			[]string{"M1000#"}},
		{"nine", "1000", 9,
			[]byte{1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0, 0, 0, 0, 0xff},
			[]string{"M1000#", "+1#"}},
		{"three", "1000", 24,
			[]byte{1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0, 0, 0, 0, 0xff,
				0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88},
			[]string{"M1000#", "+2#"}},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			m := trace()
			m.Memory = memory
			dbg, host := newDebugger(t, m)

			data, err := dbg.Memory(ctx, entry.start, entry.count)
			assert.NoError(err)
			assert.Equal(entry.data, data)
			assert.Equal(entry.commands, host.Commands())
		})
	}
}

func TestDebugger_MemoryInvalid(t *testing.T) {
	ctx := context.Background()

	table := [...]struct {
		name  string
		start string
		count int
	}{
		{"zero count", "1000", 0},
		{"negative count", "1000", -8},
		{"empty start", "", 8},
		{"not hex", "10g0", 8},
		{"prefixed", "#1000", 8},
		{"too wide", "10000000000000000", 8},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			dbg, host := newDebugger(t, trace())

			_, err := dbg.Memory(ctx, entry.start, entry.count)
			assert.ErrorIs(err, debug.ErrInvalidArgument)
			assert.Empty(host.Commands())
		})
	}
}

func TestOctas(t *testing.T) {
	assert := assert.New(t)

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 0xff}

	rows, err := debug.Octas(0x1003, data, 2)
	assert.NoError(err)
	assert.Equal([]debug.Octa{
		{Address: 0x1000, Elements: []uint64{0x0102, 0x0304, 0x0506, 0x0708}},
		{Address: 0x1008, Elements: []uint64{0xff00, 0, 0, 0}},
	}, rows)

	rows, err = debug.Octas(0x1000, data[:8], 8)
	assert.NoError(err)
	assert.Equal([]debug.Octa{{Address: 0x1000, Elements: []uint64{0x0102030405060708}}}, rows)

	_, err = debug.Octas(0, data, 3)
	assert.ErrorIs(err, debug.ErrInvalidArgument)

	assert.Equal("#00ff", debug.FormatElement(0xff, 2, debug.Hex))
	assert.Equal("255", debug.FormatElement(0xff, 2, debug.Decimal))
}

func TestParseFormat(t *testing.T) {
	assert := assert.New(t)

	for text, want := range map[string]debug.Format{"": debug.Decimal, "!": debug.Decimal, "#": debug.Hex} {
		format, err := debug.ParseFormat(text)
		assert.NoError(err, text)
		assert.Equal(want, format, text)
	}

	_, err := debug.ParseFormat("x")
	assert.ErrorIs(err, debug.ErrInvalidArgument)
}

func TestDebugger_RegistersBadCount(t *testing.T) {
	table := [...]struct {
		name  string
		reply string
		sent  []string
	}{
		{"rL", "rL=many\n", []string{"rL!"}},
		{"rG", "rG=?\n", []string{"rL!", "rG!"}},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			host := &fakemmix.Host{Handler: func(cmd string) fakemmix.Reply {
				if cmd == entry.name+"!" {
					return fakemmix.Reply{Text: entry.reply}
				}
				return fakemmix.Reply{Text: cmd[:len(cmd)-1] + "=2\n"}
			}}
			sess := session.NewSession(host)
			sess.Timeout = 5 * time.Second
			t.Cleanup(func() { sess.Close() })
			require.NoError(t, sess.Launch(context.Background(), nil))

			dbg := debug.NewDebugger(sess, mmo.NewLineMap())
			_, err := dbg.Registers(context.Background(), debug.Decimal)
			assert.ErrorIs(err, debug.ErrMalformedResponse)

			var bad *debug.ErrResponse
			if assert.ErrorAs(err, &bad) {
				assert.Equal(entry.name+"!", bad.Command)
			}
			assert.Equal(entry.sent, host.Commands())
		})
	}
}
