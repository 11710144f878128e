package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ezrec/mmixdbg/config"
	"github.com/ezrec/mmixdbg/mmixal"
	"github.com/ezrec/mmixdbg/session"
	"github.com/ezrec/mmixdbg/workspace"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger

	// Replaced in tests.
	host      session.Host
	assembler workspace.Assembler
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mmixdbg",
		Short: "Source-level debugger for MMIX programs",
		Long: `mmixdbg assembles an MMIX program with mmixal, runs it under the
interactive mmix simulator, and lets you step, continue, set breakpoints
by source line, and inspect registers and memory.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) (err error) {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return
			}
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	flags.String("interpreter", config.DefaultInterpreter, "MMIX simulator binary")
	flags.StringSlice("interpreter-args", nil, "extra simulator arguments")
	flags.String("assembler", config.DefaultAssembler, "MMIX assembler binary")
	flags.Duration("timeout", config.DefaultTimeout, "maximum wait for the simulator prompt (0 waits forever)")
	flags.BoolP("verbose", "v", false, "verbose logging")

	root.AddCommand(a.linesCmd())
	root.AddCommand(a.debugCmd())
	root.AddCommand(a.scriptCmd())

	return root
}

func (a *app) setup(cmd *cobra.Command) (err error) {
	a.cfg, err = config.Load(a.cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return
	}

	a.logger = newLogger(cmd.ErrOrStderr(), a.cfg.Verbose)
	if a.cfg.File != "" {
		a.logger.Debug("using config", "file", a.cfg.File)
	}

	return
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// workspace builds a workspace sending interpreter output to out.
func (a *app) workspace(out io.Writer) *workspace.Workspace {
	host := a.host
	if host == nil {
		host = &session.ProcessHost{
			Path:   a.cfg.Interpreter,
			Args:   a.cfg.InterpreterArgs,
			Logger: a.logger,
		}
	}

	asm := a.assembler
	if asm == nil {
		asm = &mmixal.Assembler{Path: a.cfg.Assembler, Logger: a.logger}
	}

	return &workspace.Workspace{
		Assembler: asm,
		Host:      host,
		Output:    out,
		Timeout:   a.cfg.Timeout,
		Logger:    a.logger,
	}
}
