package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ezrec/mmixdbg/debug"
	"github.com/ezrec/mmixdbg/workspace"
)

func (a *app) debugCmd() *cobra.Command {
	var watch bool
	var github string

	cmd := &cobra.Command{
		Use:   "debug [file.mms|file.mmo]",
		Short: "Debug a program interactively",
		Long: `Assemble (or load) a program, start it under the simulator and read
debugger commands. Type help at the prompt for the command list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			switch {
			case github == "" && len(args) == 0:
				return errors.New("a program file or --github URL is required")
			case github != "" && len(args) > 0:
				return errors.New("give either a program file or --github, not both")
			case github != "" && watch:
				return errors.New("--watch needs a local source file")
			case watch && isObject(args[0]):
				return errors.New("--watch needs a source file, not an object file")
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          replPrompt,
				HistoryFile:     a.cfg.History,
				InterruptPrompt: "^C",
				EOFPrompt:       "quit",
				Stdin:           io.NopCloser(cmd.InOrStdin()),
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return
			}
			defer rl.Close()

			ws := a.workspace(rl.Stdout())
			defer ws.Close()

			ctx := cmd.Context()
			if github != "" {
				err = loadGitHub(ctx, ws, http.DefaultClient, github)
			} else {
				_, err = loadFile(ctx, ws, args[0])
			}
			if err != nil {
				return
			}

			r, err := a.newRepl(ws, rl.Stdout())
			if err != nil {
				return
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			stop := context.AfterFunc(gctx, func() { rl.Close() })
			defer stop()

			g.Go(func() error {
				defer cancel()
				return r.run(gctx, rl)
			})
			if watch {
				g.Go(func() error {
					return watchSource(gctx, ws, args[0], rl.Stdout(), a.logger)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reassemble and restart when the source file changes")
	cmd.Flags().StringVar(&github, "github", "", "load the source from a GitHub file URL")

	return cmd
}

func (a *app) newRepl(ws *workspace.Workspace, out io.Writer) (r *repl, err error) {
	r = &repl{ws: ws, out: out, memoryBytes: a.cfg.MemoryBytes}

	r.registerFormat, err = debug.ParseFormat(a.cfg.RegisterFormat)
	if err != nil {
		return
	}
	r.memoryFormat, err = debug.ParseFormat(a.cfg.MemoryFormat)
	return
}

func loadGitHub(ctx context.Context, ws *workspace.Workspace, client *http.Client, page string) (err error) {
	raw, err := rawGitHubURL(page)
	if err != nil {
		return
	}

	src, err := fetch(ctx, client, raw)
	if err != nil {
		return
	}

	_, err = ws.Compile(ctx, src)
	return
}

// watchSource recompiles path into ws whenever it is written, until ctx is
// done. Compile errors are reported to out and the old program keeps
// running.
func watchSource(ctx context.Context, ws *workspace.Workspace, path string, out io.Writer, logger *slog.Logger) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	path = filepath.Clean(path)
	err = watcher.Add(filepath.Dir(path))
	if err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			logger.Debug("source changed", "file", path, "op", event.Op.String())

			src, rerr := os.ReadFile(path)
			if rerr != nil {
				fmt.Fprintf(out, "reload: %v\n", rerr)
				continue
			}
			if _, cerr := ws.Compile(ctx, src); cerr != nil {
				fmt.Fprintf(out, "reload: %v\n", cerr)
				continue
			}
			fmt.Fprintf(out, "reloaded %v\n", path)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch", "err", werr)
		}
	}
}
