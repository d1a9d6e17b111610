package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
	"github.com/pgbox-dev/pgbox/internal/orchestrator"
)

// Output formats accepted by info and list.
const (
	formatText = "text"
	formatJSON = "json"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	uriStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	}
	return pgberrors.NewValidationError(fmt.Sprintf("invalid output format %q, expected text or json", format))
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func field(label, value string) string {
	return fmt.Sprintf("  %s %s", labelStyle.Render(label+":"), value)
}

func printWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintln(w, warnStyle.Render("Warning: "+warning))
	}
}

// printStatus renders one instance's status in the text format.
func printStatus(w io.Writer, st *orchestrator.Status) {
	if st.Running {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("PostgreSQL instance '%s' is %s", st.Name, runningStyle.Render("running"))))
		fmt.Fprintln(w, field("PID", fmt.Sprintf("%d", st.PID)))
	} else {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("PostgreSQL instance '%s' is %s", st.Name, stoppedStyle.Render("stopped"))))
	}
	fmt.Fprintln(w, field("Port", fmt.Sprintf("%d", st.Port)))
	fmt.Fprintln(w, field("Version", st.Version))
	fmt.Fprintln(w, field("Username", st.Username))
	fmt.Fprintln(w, field("Database", st.Database))
	fmt.Fprintln(w, field("Data dir", st.DataDir))
	fmt.Fprintln(w)
	if st.Running {
		fmt.Fprintln(w, "URI:", uriStyle.Render(st.URI))
	} else {
		fmt.Fprintf(w, "Use 'pgbox start --name %s' to start it.\n", st.Name)
	}
}

// printStatusList renders the one-line-per-instance listing.
func printStatusList(w io.Writer, statuses []*orchestrator.Status) {
	if len(statuses) == 0 {
		fmt.Fprintln(w, "No instances found.")
		return
	}

	fmt.Fprintln(w, headerStyle.Render("Instances:"))
	fmt.Fprintln(w)
	for _, st := range statuses {
		if st.Running {
			fmt.Fprintf(w, "  %s (%s) - port %d - %s\n",
				st.Name, runningStyle.Render("running"), st.Port, uriStyle.Render(st.URI))
		} else {
			fmt.Fprintf(w, "  %s (%s) - port %d - %s\n",
				st.Name, stoppedStyle.Render("stopped"), st.Port, st.DataDir)
		}
	}
}
