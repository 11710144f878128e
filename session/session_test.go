package session_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/mmixdbg/internal/fakemmix"
	"github.com/ezrec/mmixdbg/internal/testlog"
	"github.com/ezrec/mmixdbg/session"
)

// syncBuffer is a bytes.Buffer safe to write from the session's reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (sb *syncBuffer) Write(p []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.Write(p)
}

func (sb *syncBuffer) String() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.String()
}

func launch(t *testing.T, host *fakemmix.Host) (sess *session.Session, out *syncBuffer) {
	t.Helper()

	out = &syncBuffer{}
	sess = session.NewSession(host)
	sess.Output = out
	sess.Timeout = 5 * time.Second
	sess.Logger = testlog.New(t)
	t.Cleanup(func() { sess.Close() })

	require.NoError(t, sess.Launch(context.Background(), []byte{0x98, 0x0a, 0, 0}))
	return
}

func echo(cmd string) fakemmix.Reply {
	return fakemmix.Reply{Text: "got " + cmd + "\n"}
}

func TestSession_Launch(t *testing.T) {
	assert := assert.New(t)

	host := &fakemmix.Host{Banner: "MMIX simulator\n", Handler: echo}
	sess, out := launch(t, host)

	assert.Equal(session.StateReady, sess.State())
	assert.Equal("MMIX simulator\n"+session.Prompt, out.String())
	assert.Equal([][]byte{{0x98, 0x0a, 0, 0}}, host.Images())
	assert.NotEmpty(sess.ID)
	assert.NoError(sess.Err())
}

func TestSession_Exchange(t *testing.T) {
	assert := assert.New(t)

	host := &fakemmix.Host{Handler: func(cmd string) fakemmix.Reply {
		return fakemmix.Reply{Text: "r0=0\n"}
	}}
	sess, out := launch(t, host)

	reply, err := sess.Exchange(context.Background(), "r0!\n")
	assert.NoError(err)
	assert.Equal("r0=0\n"+session.Prompt, reply)
	assert.Equal(session.StateReady, sess.State())

	// Captured replies are not echoed to Output.
	assert.Equal(session.Prompt, out.String())
	assert.Equal([]string{"r0!"}, host.Commands())
}

func TestSession_ExchangeAddsNewline(t *testing.T) {
	assert := assert.New(t)

	host := &fakemmix.Host{Handler: echo}
	sess, _ := launch(t, host)

	reply, err := sess.Exchange(context.Background(), "s")
	assert.NoError(err)
	assert.Equal("got s\n"+session.Prompt, reply)
}

func TestSession_SubmitOutput(t *testing.T) {
	assert := assert.New(t)

	host := &fakemmix.Host{Handler: echo}
	sess, out := launch(t, host)

	ctx := context.Background()
	assert.NoError(sess.Submit("\n"))
	assert.NoError(sess.Await(ctx))
	assert.Equal(session.Prompt+"got \n"+session.Prompt, out.String())
	assert.Equal([]string{""}, host.Commands())
}

func TestSession_SubmitTwice(t *testing.T) {
	assert := assert.New(t)

	release := make(chan struct{})
	host := &fakemmix.Host{Handler: func(cmd string) fakemmix.Reply {
		<-release
		return fakemmix.Reply{}
	}}
	sess, _ := launch(t, host)

	assert.NoError(sess.Submit("c\n"))
	assert.Equal(session.StateAwaitingResponse, sess.State())

	err := sess.Submit("s\n")
	assert.True(errors.Is(err, session.ErrProtocolViolation), "%v", err)

	_, err = sess.Exchange(ctx(t, 50*time.Millisecond), "s\n")
	assert.True(errors.Is(err, context.DeadlineExceeded), "%v", err)

	close(release)
	assert.NoError(sess.Await(context.Background()))
	assert.Equal([]string{"c"}, host.Commands())
}

func ctx(t *testing.T, d time.Duration) context.Context {
	c, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return c
}

func TestSession_Multiline(t *testing.T) {
	assert := assert.New(t)

	host := &fakemmix.Host{Handler: echo}
	sess, _ := launch(t, host)

	err := sess.Submit("s\nc\n")
	assert.True(errors.Is(err, session.ErrProtocolViolation))
	assert.Equal(session.StateReady, sess.State())
	assert.Empty(host.Commands())
}

func TestSession_NotLaunched(t *testing.T) {
	assert := assert.New(t)

	sess := session.NewSession(&fakemmix.Host{})

	err := sess.Submit("s\n")
	assert.True(errors.Is(err, session.ErrProtocolViolation))

	err = sess.Await(context.Background())
	assert.True(errors.Is(err, session.ErrProtocolViolation))
}

func TestSession_LaunchFailure(t *testing.T) {
	assert := assert.New(t)

	boom := errors.New("no such binary")
	sess := session.NewSession(&fakemmix.Host{Fail: boom})

	err := sess.Launch(context.Background(), nil)
	assert.True(errors.Is(err, boom))
	assert.Equal(session.StateTerminated, sess.State())
	assert.True(errors.Is(sess.Err(), session.ErrTerminated))

	err = sess.Launch(context.Background(), nil)
	assert.True(errors.Is(err, session.ErrProtocolViolation))
}

func TestSession_Timeout(t *testing.T) {
	assert := assert.New(t)

	host := &fakemmix.Host{Handler: func(cmd string) fakemmix.Reply {
		return fakemmix.Reply{Text: "looping", NoPrompt: true}
	}}
	sess, _ := launch(t, host)
	sess.Timeout = 50 * time.Millisecond

	_, err := sess.Exchange(context.Background(), "c\n")
	assert.True(errors.Is(err, session.ErrTimeout), "%v", err)
	assert.True(errors.Is(err, session.ErrTerminated), "%v", err)
	assert.Equal(session.StateTerminated, sess.State())

	err = sess.Submit("s\n")
	assert.True(errors.Is(err, session.ErrTerminated))
}

func TestSession_InterpreterExit(t *testing.T) {
	assert := assert.New(t)

	host := &fakemmix.Host{Handler: func(cmd string) fakemmix.Reply {
		return fakemmix.Reply{Text: "bye\n", Exit: true}
	}}
	sess, out := launch(t, host)

	_, err := sess.Exchange(context.Background(), "q\n")
	assert.True(errors.Is(err, session.ErrTerminated), "%v", err)

	<-sess.Done()
	assert.True(errors.Is(sess.Err(), session.ErrExited))
	assert.False(strings.Contains(out.String(), "bye"))
}

func TestSession_Close(t *testing.T) {
	assert := assert.New(t)

	host := &fakemmix.Host{Handler: echo}
	sess, _ := launch(t, host)

	assert.NoError(sess.Close())
	assert.Equal(session.StateTerminated, sess.State())
	assert.True(errors.Is(sess.Err(), session.ErrClosed))

	err := sess.Submit("s\n")
	assert.True(errors.Is(err, session.ErrTerminated))
}

func TestSession_PromptInsideOutput(t *testing.T) {
	assert := assert.New(t)

	// A program printing the prompt text ends the turn early; the rest
	// of its output is left for the next flush.
	host := &fakemmix.Host{Handler: func(cmd string) fakemmix.Reply {
		return fakemmix.Reply{Text: "hello " + session.Prompt + "world\n"}
	}}
	sess, out := launch(t, host)

	reply, err := sess.Exchange(context.Background(), "c\n")
	assert.NoError(err)
	assert.Equal("hello "+session.Prompt, reply)

	assert.NoError(sess.Submit("\n"))
	assert.NoError(sess.Await(context.Background()))
	assert.Contains(out.String(), "world\n")
}
