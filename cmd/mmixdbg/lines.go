package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ezrec/mmixdbg/mmo"
)

func (a *app) linesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lines <file.mmo>",
		Short: "Print the address to source line table of an object file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return
			}

			lines, err := mmo.Decode(data)
			if err != nil {
				return
			}

			renderLines(cmd.OutOrStdout(), lines)
			return
		},
	}
}
