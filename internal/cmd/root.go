package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pgbox-dev/pgbox/internal/config"
	"github.com/pgbox-dev/pgbox/internal/logging"
	"github.com/pgbox-dev/pgbox/internal/orchestrator"
)

// Version is stamped by the release build via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "pgbox",
	Short:   "Run embedded PostgreSQL instances locally",
	Version: Version,
	Long: `Pgbox runs self-contained PostgreSQL instances on the local machine
without a system-wide installation. Server binaries are installed on first
use under ~/.pgbox and shared between instances; each named instance owns
its data directory and runs as a regular background process.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var verbose bool

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config-file", "", "config file (default is $HOME/.config/pgbox/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	_ = viper.BindPFlag("config_file", rootCmd.PersistentFlags().Lookup("config-file"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config_file"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/pgbox")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PGBOX")
	// PGBOX_SERVER_PORT maps to server.port
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger builds the stderr diagnostic logger. --verbose wins over the
// configured level.
func newLogger(cfg *config.Config) *logging.Logger {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.New(os.Stderr, level)
}

// newOrchestrator loads the effective configuration and wires up the
// orchestrator every command runs through.
func newOrchestrator() (*orchestrator.Orchestrator, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	orc, err := orchestrator.New(cfg, newLogger(cfg))
	if err != nil {
		return nil, nil, err
	}
	return orc, cfg, nil
}
