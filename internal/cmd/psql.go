package cmd

import (
	"errors"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/pgbox-dev/pgbox/internal/config"
)

var psqlCmd = &cobra.Command{
	Use:   "psql [-- psql-args...]",
	Short: "Open a psql shell connected to the running instance",
	Long: `Open an interactive psql shell connected to the running instance using
the bundled psql binary. Arguments after -- are passed through to psql.

Examples:
  pgbox psql
  pgbox psql --name analytics
  pgbox psql -- -c "SELECT version();"`,
	RunE: runPsql,
}

var psqlName string

func init() {
	rootCmd.AddCommand(psqlCmd)
	psqlCmd.Flags().StringVar(&psqlName, "name", config.DefaultInstanceName, "Instance name")
}

func runPsql(cmd *cobra.Command, args []string) error {
	orc, _, err := newOrchestrator()
	if err != nil {
		return err
	}

	sess, err := orc.Psql(psqlName)
	if err != nil {
		return err
	}

	// The shell owns the terminal until it exits.
	psql := exec.Command(sess.Path, append([]string{sess.URI}, args...)...)
	psql.Stdin = os.Stdin
	psql.Stdout = os.Stdout
	psql.Stderr = os.Stderr

	if err := psql.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Propagate psql's own exit code; it already reported the error.
			os.Exit(exitErr.ExitCode())
		}
		return err
	}
	return nil
}
