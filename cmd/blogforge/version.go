package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/blogforge/internal/app"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "blogforge", app.VersionString())
		},
	}
}
