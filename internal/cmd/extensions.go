package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgbox-dev/pgbox/internal/config"
)

var installExtensionCmd = &cobra.Command{
	Use:   "install-extension <extension>",
	Short: "Install a PostgreSQL extension (e.g. vector)",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstallExtension,
}

var listExtensionsCmd = &cobra.Command{
	Use:   "list-extensions",
	Short: "List installable extensions",
	RunE:  runListExtensions,
}

var installExtensionName string

func init() {
	rootCmd.AddCommand(installExtensionCmd)
	rootCmd.AddCommand(listExtensionsCmd)
	installExtensionCmd.Flags().StringVar(&installExtensionName, "name", config.DefaultInstanceName, "Instance name")
}

func runInstallExtension(cmd *cobra.Command, args []string) error {
	orc, _, err := newOrchestrator()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Installing extension '%s'...\n", args[0])

	ext, err := orc.InstallExtension(installExtensionName, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Extension '%s' installed successfully!\n", ext.Name)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "To enable it in your database, run:")
	fmt.Fprintf(out, "  pgbox psql -- -c \"CREATE EXTENSION IF NOT EXISTS %s;\"\n", ext.Name)
	return nil
}

func runListExtensions(cmd *cobra.Command, args []string) error {
	orc, _, err := newOrchestrator()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("Available extensions:"))
	fmt.Fprintln(out)
	for _, ext := range orc.Extensions() {
		fmt.Fprintf(out, "  %s - %s\n", ext.Name, ext.Description)
	}
	return nil
}
