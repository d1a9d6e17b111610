package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgbox-dev/pgbox/internal/config"
	"github.com/pgbox-dev/pgbox/internal/orchestrator"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a PostgreSQL instance",
	Long: `Start a PostgreSQL instance, installing the server binaries on first use.

Examples:
  # Start the default instance
  pgbox start

  # Start a second instance on a fixed port
  pgbox start --name analytics -p 5544

  # Override server configuration
  pgbox start -c shared_buffers=512MB -c work_mem=128MB`,
	RunE: runStart,
}

var (
	startName     string
	startPort     uint16
	startVersion  string
	startDataDir  string
	startUsername string
	startPassword string
	startDatabase string
	startConfig   []string
)

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVar(&startName, "name", config.DefaultInstanceName, "Instance name (allows running multiple instances)")
	startCmd.Flags().Uint16VarP(&startPort, "port", "p", 0, "Port to listen on (scans forward from the default when omitted)")
	startCmd.Flags().StringVarP(&startVersion, "pg-version", "V", "", "PostgreSQL version to install and run")
	startCmd.Flags().StringVarP(&startDataDir, "data-dir", "d", "", "Data directory (defaults to ~/.pgbox/instances/<name>/data)")
	startCmd.Flags().StringVarP(&startUsername, "username", "u", "", "Username for the database")
	startCmd.Flags().StringVarP(&startPassword, "password", "P", "", "Password for the database")
	startCmd.Flags().StringVarP(&startDatabase, "database", "n", "", "Database name to create")
	startCmd.Flags().StringArrayVarP(&startConfig, "config", "c", nil, "Server configuration option KEY=VALUE (repeatable)")
}

// parseServerOptions turns repeated KEY=VALUE flags into an option map.
// Malformed pairs are skipped and reported, not fatal.
func parseServerOptions(pairs []string) (map[string]string, []string) {
	var opts map[string]string
	var malformed []string
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			malformed = append(malformed, fmt.Sprintf("invalid config format %q, expected KEY=VALUE", pair))
			continue
		}
		if opts == nil {
			opts = make(map[string]string, len(pairs))
		}
		opts[key] = strings.TrimSpace(value)
	}
	return opts, malformed
}

func runStart(cmd *cobra.Command, args []string) error {
	serverOpts, malformed := parseServerOptions(startConfig)
	printWarnings(cmd.ErrOrStderr(), malformed)

	orc, _, err := newOrchestrator()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Starting PostgreSQL instance '%s'...\n", startName)

	res, err := orc.Start(orchestrator.StartOptions{
		Name:          startName,
		Port:          startPort,
		PortExplicit:  cmd.Flags().Changed("port"),
		Version:       startVersion,
		DataDir:       startDataDir,
		Username:      startUsername,
		Password:      startPassword,
		Database:      startDatabase,
		ServerOptions: serverOpts,
	})
	if err != nil {
		return err
	}

	printWarnings(cmd.ErrOrStderr(), res.Warnings)

	rec := res.Record
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("PostgreSQL is running!"))
	fmt.Fprintln(out, field("Instance", res.Name))
	fmt.Fprintln(out, field("PID", fmt.Sprintf("%d", rec.PID)))
	fmt.Fprintln(out, field("Port", fmt.Sprintf("%d", rec.Port)))
	fmt.Fprintln(out, field("Username", rec.Username))
	fmt.Fprintln(out, field("Password", rec.Password))
	fmt.Fprintln(out, field("Database", rec.Database))
	fmt.Fprintln(out, field("Data dir", rec.DataDir))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "URI:", uriStyle.Render(rec.URI()))
	fmt.Fprintln(out)
	if res.Name == config.DefaultInstanceName {
		fmt.Fprintln(out, "Use 'pgbox stop' to stop the server.")
	} else {
		fmt.Fprintf(out, "Use 'pgbox stop --name %s' to stop the server.\n", res.Name)
	}
	return nil
}
