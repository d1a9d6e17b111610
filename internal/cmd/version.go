package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgbox-dev/pgbox/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pgbox and bundled PostgreSQL versions",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pgbox %s\n", Version)
		fmt.Fprintf(out, "PostgreSQL %s\n", config.BundledServerVersion)
		fmt.Fprintf(out, "pgvector %s\n", config.BundledVectorVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
