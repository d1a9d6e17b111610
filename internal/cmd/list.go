package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pgbox-dev/pgbox/internal/orchestrator"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all instances",
	RunE:  runList,
}

var listOutput string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listOutput, "output", "o", formatText, "Output format (text or json)")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := validateFormat(listOutput); err != nil {
		return err
	}

	orc, _, err := newOrchestrator()
	if err != nil {
		return err
	}

	statuses, err := orc.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listOutput == formatJSON {
		if statuses == nil {
			statuses = []*orchestrator.Status{}
		}
		return printJSON(out, statuses)
	}
	printStatusList(out, statuses)
	return nil
}
