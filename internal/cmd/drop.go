package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgbox-dev/pgbox/internal/config"
	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
)

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop an instance (stop if running, delete all data)",
	RunE:  runDrop,
}

var (
	dropName  string
	dropForce bool
)

func init() {
	rootCmd.AddCommand(dropCmd)
	dropCmd.Flags().StringVar(&dropName, "name", config.DefaultInstanceName, "Instance name")
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "Skip confirmation prompt")
}

// confirmDrop asks for an explicit yes. Anything but y/yes aborts.
func confirmDrop(in io.Reader, out io.Writer, name, dataDir string) (bool, error) {
	fmt.Fprintf(out, "This will permanently delete instance '%s' and all its data:\n", name)
	fmt.Fprintln(out, field("Data dir", dataDir))
	fmt.Fprintln(out)
	fmt.Fprint(out, "Are you sure? [y/N] ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func runDrop(cmd *cobra.Command, args []string) error {
	orc, _, err := newOrchestrator()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st, err := orc.Info(dropName)
	if err != nil {
		if pgberrors.Is(err, pgberrors.ErrInstanceNotFound) {
			fmt.Fprintf(out, "Instance '%s' does not exist.\n", dropName)
			return nil
		}
		return err
	}

	if !dropForce {
		ok, err := confirmDrop(cmd.InOrStdin(), out, dropName, st.DataDir)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	res, err := orc.Drop(dropName)
	if err != nil {
		return err
	}
	if res.WasRunning {
		fmt.Fprintf(out, "Stopped PostgreSQL instance '%s'.\n", res.Name)
	}
	fmt.Fprintf(out, "Instance '%s' dropped.\n", res.Name)
	return nil
}
