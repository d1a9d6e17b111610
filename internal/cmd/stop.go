package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgbox-dev/pgbox/internal/config"
	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a PostgreSQL instance",
	RunE:  runStop,
}

var stopName string

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().StringVar(&stopName, "name", config.DefaultInstanceName, "Instance name")
}

func runStop(cmd *cobra.Command, args []string) error {
	orc, _, err := newOrchestrator()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	res, err := orc.Stop(stopName)
	if err != nil {
		if pgberrors.Is(err, pgberrors.ErrInstanceNotFound) {
			fmt.Fprintf(out, "PostgreSQL instance '%s' is not running.\n", stopName)
			return nil
		}
		return err
	}

	if res.WasRunning {
		fmt.Fprintf(out, "PostgreSQL instance '%s' stopped (pid: %d).\n", res.Name, res.PID)
	} else {
		fmt.Fprintf(out, "PostgreSQL instance '%s' was not running; removed stale state.\n", res.Name)
	}
	return nil
}
