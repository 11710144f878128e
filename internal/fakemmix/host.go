// Package fakemmix provides an in-process stand-in for the interactive MMIX
// simulator. It speaks the same prompt-delimited protocol over pipes and
// writes its output one byte at a time.
package fakemmix

import (
	"bufio"
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/ezrec/mmixdbg/session"
)

// Prompt is written after every reply.
const Prompt = session.Prompt

// Reply is the simulator's answer to one command line.
type Reply struct {
	Text     string // Output written before the prompt.
	NoPrompt bool   // Withhold the prompt so the turn never ends.
	Exit     bool   // Exit after writing Text.
}

// Handler answers one command line, given without its newline.
type Handler func(cmd string) Reply

// Host is a session.Host whose interpreters run Handler in-process.
type Host struct {
	Banner  string  // Written before the first prompt.
	Handler Handler // Answers commands; nil echoes nothing.
	Fail    error   // When set, Launch fails with it.

	mu       sync.Mutex
	commands []string
	images   [][]byte
}

// Launch starts a fake interpreter.
func (h *Host) Launch(ctx context.Context, image []byte) (conn session.Conn, err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	if h.Fail != nil {
		err = h.Fail
		return
	}

	h.mu.Lock()
	h.images = append(h.images, slices.Clone(image))
	h.mu.Unlock()

	c := &Conn{done: make(chan struct{})}
	c.inR, c.inW = io.Pipe()
	c.outR, c.outW = io.Pipe()

	go h.serve(c)

	conn = c
	return
}

// Commands returns every command line received, across all launches.
func (h *Host) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.commands)
}

// Images returns every image launched.
func (h *Host) Images() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.images)
}

func (h *Host) serve(c *Conn) {
	defer close(c.done)
	defer c.outW.Close()

	if !c.write(h.Banner + Prompt) {
		return
	}

	r := bufio.NewReader(c.inR)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSuffix(line, "\n")

		h.mu.Lock()
		h.commands = append(h.commands, cmd)
		h.mu.Unlock()

		var reply Reply
		if h.Handler != nil {
			reply = h.Handler(cmd)
		}

		if !c.write(reply.Text) || reply.Exit {
			return
		}
		if !reply.NoPrompt && !c.write(Prompt) {
			return
		}
	}
}

// Conn is the session side of a fake interpreter.
type Conn struct {
	inR  *io.PipeReader
	inW  *io.PipeWriter
	outR *io.PipeReader
	outW *io.PipeWriter

	done      chan struct{}
	closeOnce sync.Once
}

// write emits text one byte per pipe write.
func (c *Conn) write(text string) bool {
	for i := range len(text) {
		if _, err := c.outW.Write([]byte{text[i]}); err != nil {
			return false
		}
	}
	return true
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.outR.Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	return c.inW.Write(p)
}

// Close stops the fake interpreter.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.inW.Close()
		c.outR.Close()
	})
	return nil
}

// Wait blocks until the fake interpreter has stopped.
func (c *Conn) Wait() error {
	<-c.done
	return nil
}
