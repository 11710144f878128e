// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package mmixal

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

const (
	SourceName = "code.mms"
	ObjectName = "code.mmo"

	// DefaultLineWidth is the assembler's default buffer width.
	DefaultLineWidth = 80
)

// Assembler runs an mmixal binary.
type Assembler struct {
	Path   string       // Assembler binary; "mmixal" when empty.
	Logger *slog.Logger // Optional.
}

func (asm *Assembler) log() *slog.Logger {
	if asm.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return asm.Logger
}

// LineWidth is the line buffer width needed to assemble src: the default,
// or one more than the longest line when that is longer.
func LineWidth(src []byte) (width int) {
	width = DefaultLineWidth
	for line := range bytes.Lines(src) {
		line = bytes.TrimRight(line, "\r\n")
		if len(line) > width {
			width = len(line) + 1
		}
	}
	return
}

// Assemble translates src in a private directory and returns the object
// image.
func (asm *Assembler) Assemble(ctx context.Context, src []byte) (image []byte, err error) {
	dir, err := os.MkdirTemp("", "mmixal-")
	if err != nil {
		return
	}
	defer os.RemoveAll(dir)

	err = os.WriteFile(filepath.Join(dir, SourceName), src, 0o644)
	if err != nil {
		return
	}

	bin := asm.Path
	if bin == "" {
		bin = "mmixal"
	}
	width := LineWidth(src)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-b", strconv.Itoa(width), SourceName)
	cmd.Dir = dir
	cmd.Stdout = &output
	cmd.Stderr = &output

	asm.log().Debug("assembling", "path", bin, "width", width, "bytes", len(src))

	err = cmd.Run()
	if err != nil {
		err = &ErrAssemble{Output: output.String(), Err: err}
		return
	}

	image, err = os.ReadFile(filepath.Join(dir, ObjectName))
	if err != nil {
		err = &ErrAssemble{Output: output.String(), Err: err}
		return
	}

	asm.log().Debug("assembled", "bytes", len(image))

	return
}
