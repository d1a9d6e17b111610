package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgbox-dev/pgbox/internal/config"
	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
	"github.com/pgbox-dev/pgbox/internal/orchestrator"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show instance info (status, connection URI, etc.)",
	RunE:  runInfo,
}

var (
	infoName   string
	infoOutput string
)

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringVar(&infoName, "name", config.DefaultInstanceName, "Instance name")
	infoCmd.Flags().StringVarP(&infoOutput, "output", "o", formatText, "Output format (text or json)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	if err := validateFormat(infoOutput); err != nil {
		return err
	}

	orc, _, err := newOrchestrator()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st, err := orc.Info(infoName)
	if err != nil {
		if pgberrors.Is(err, pgberrors.ErrInstanceNotFound) {
			// A missing instance is an answer, not a failure.
			if infoOutput == formatJSON {
				return printJSON(out, &orchestrator.Status{Name: infoName})
			}
			fmt.Fprintf(out, "PostgreSQL instance '%s' does not exist\n", infoName)
			return nil
		}
		return err
	}

	if infoOutput == formatJSON {
		return printJSON(out, st)
	}
	printStatus(out, st)
	return nil
}
