package script_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/mmixdbg/debug"
	"github.com/ezrec/mmixdbg/internal/fakemmix"
	"github.com/ezrec/mmixdbg/mmo"
	"github.com/ezrec/mmixdbg/script"
	"github.com/ezrec/mmixdbg/session"
)

func newDebugger(t *testing.T) (dbg *debug.Debugger, host *fakemmix.Host) {
	t.Helper()

	image := (&mmo.Builder{}).
		Loc(0x100).
		Line(10).
		Tetra(0).
		Tetra(0).
		Tetra(0).
		Post(255).
		Bytes()
	lines, err := mmo.Decode(image)
	require.NoError(t, err)

	m := &fakemmix.Machine{
		Trace:     []uint64{0x100, 0x104, 0x108},
		Registers: map[string]uint64{"rL": 1, "rG": 255, "$0": 3, "$255": 9, "rJ": 0x20},
		Memory:    map[uint64]uint64{0x2000: 0x48656c6c6f000000},
	}
	host = &fakemmix.Host{Handler: m.Handle}

	sess := session.NewSession(host)
	sess.Timeout = 5 * time.Second
	t.Cleanup(func() { sess.Close() })
	require.NoError(t, sess.Launch(context.Background(), image))

	dbg = debug.NewDebugger(sess, lines)
	return
}

func run(t *testing.T, src string) (out string, err error) {
	t.Helper()

	dbg, _ := newDebugger(t)

	var buf bytes.Buffer
	err = script.Run(context.Background(), dbg, "test.star", []byte(src), &buf)
	out = buf.String()
	return
}

func TestRun(t *testing.T) {
	table := [...]struct {
		name string
		src  string
		out  string
	}{
		{"where", `print("%x" % where())`, "100\n"},
		{"step", `print(step(), step())`, "11 12\n"},
		{"cont", `print(cont())`, "None\n"},
		{"reg", `print(reg("$0"), reg("rJ", "#"))`, "3 #20\n"},
		{"regs", `print(sorted(regs().items()))`, `[("$0", "3"), ("$255", "9")]` + "\n"},
		{"mem", `print(repr(mem("2000", 5)))`, `b"Hello\x00\x00\x00"` + "\n"},
		{"mem elems", `print(list(mem("2000", 2).elems()))`, "[72, 101, 108, 108, 111, 0, 0, 0]\n"},
		{"toggle", "print(toggle(12))\nprint(cont())\nprint(toggle(12))", "True\n12\nFalse\n"},
		{"lines", `print(sorted(lines().items()))`, "[(256, 10), (260, 11), (264, 12)]\n"},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			out, err := run(t, entry.src)
			assert.NoError(t, err)
			assert.Equal(t, entry.out, out)
		})
	}
}

func TestRun_Errors(t *testing.T) {
	assert := assert.New(t)

	_, err := run(t, `toggle(99)`)
	assert.ErrorIs(err, debug.ErrUnresolvedLine)

	_, err = run(t, `mem("xyz", 8)`)
	assert.ErrorIs(err, debug.ErrInvalidArgument)

	_, err = run(t, `reg("rJ", "?")`)
	assert.ErrorIs(err, debug.ErrInvalidArgument)

	_, err = run(t, `step(1)`)
	assert.Error(err)

	_, err = run(t, `syntax error here`)
	assert.Error(err)
}

func TestRun_Cancelled(t *testing.T) {
	dbg, host := newDebugger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := script.Run(ctx, dbg, "loop.star", []byte("for x in range(1000000):\n    where()\n"), &bytes.Buffer{})
	assert.Error(t, err)
	assert.Less(t, len(host.Commands()), 1000000)
}
