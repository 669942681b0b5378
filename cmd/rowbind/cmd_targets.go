package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rowbind/rowbind/compiler/gen"
)

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List registered language targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range gen.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
