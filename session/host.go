package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"
)

// ImageName is the file name an object image is stored under before launch.
const ImageName = "code.mmo"

// Host starts interpreter instances.
type Host interface {
	// Launch stores image where the interpreter can load it and starts the
	// interpreter in interactive mode against it.
	Launch(ctx context.Context, image []byte) (Conn, error)
}

// Conn is a running interpreter. Reads return its output bytes, writes feed
// its input, and Wait blocks until it has exited.
type Conn interface {
	io.ReadWriteCloser
	Wait() error
}

// ProcessHost runs the MMIX simulator as a child process.
type ProcessHost struct {
	Path   string       // Simulator binary; "mmix" when empty.
	Args   []string     // Extra arguments placed before "-i".
	Logger *slog.Logger // Optional.
}

// Launch writes image into a private directory and starts the simulator
// there. Standard output and standard error are merged into one stream.
func (ph *ProcessHost) Launch(ctx context.Context, image []byte) (conn Conn, err error) {
	if err = ctx.Err(); err != nil {
		return
	}

	dir, err := os.MkdirTemp("", "mmixdbg-")
	if err != nil {
		return
	}

	err = os.WriteFile(filepath.Join(dir, ImageName), image, 0o644)
	if err != nil {
		os.RemoveAll(dir)
		return
	}

	bin := ph.Path
	if bin == "" {
		bin = "mmix"
	}
	args := append(slices.Clone(ph.Args), "-i", ImageName)

	cmd := exec.Command(bin, args...)
	cmd.Dir = dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.RemoveAll(dir)
		return
	}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	err = cmd.Start()
	if err != nil {
		stdin.Close()
		os.RemoveAll(dir)
		return
	}

	logger(ph.Logger).Debug("interpreter started", "path", bin, "args", args, "pid", cmd.Process.Pid)

	pc := &processConn{
		cmd:    cmd,
		stdin:  stdin,
		output: pr,
		dir:    dir,
		done:   make(chan struct{}),
	}
	go pc.wait(pw)

	conn = pc
	return
}

// processConn is the Conn of a ProcessHost child.
type processConn struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	output *io.PipeReader
	dir    string

	done      chan struct{}
	err       error
	closeOnce sync.Once
}

func (pc *processConn) wait(pw *io.PipeWriter) {
	pc.err = pc.cmd.Wait()
	pw.Close()
	os.RemoveAll(pc.dir)
	close(pc.done)
}

func (pc *processConn) Read(p []byte) (int, error) {
	return pc.output.Read(p)
}

func (pc *processConn) Write(p []byte) (int, error) {
	return pc.stdin.Write(p)
}

// Close kills the child if it is still running.
func (pc *processConn) Close() (err error) {
	pc.closeOnce.Do(func() {
		pc.stdin.Close()
		err = pc.cmd.Process.Kill()
		if errors.Is(err, os.ErrProcessDone) {
			err = nil
		}
		pc.output.Close()
	})
	return
}

func (pc *processConn) Wait() error {
	<-pc.done
	return pc.err
}
