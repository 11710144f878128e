package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ezrec/mmixdbg/script"
)

func (a *app) scriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "script <file.mms|file.mmo> <script.star>",
		Short: "Run a Starlark debugging script against a program",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			src, err := os.ReadFile(args[1])
			if err != nil {
				return
			}

			ws := a.workspace(cmd.OutOrStdout())
			defer ws.Close()

			ctx := cmd.Context()
			dbg, err := loadFile(ctx, ws, args[0])
			if err != nil {
				return
			}

			return script.Run(ctx, dbg, args[1], src, cmd.OutOrStdout())
		},
	}
}
