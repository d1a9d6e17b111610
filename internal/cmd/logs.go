package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pgbox-dev/pgbox/internal/config"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show PostgreSQL server logs",
	Long: `Show the server log of an instance, from the most recent log file in
its data directory.

Examples:
  # Show the full current log
  pgbox logs

  # Show the last 50 lines
  pgbox logs -n 50

  # Follow the log in real time
  pgbox logs -f`,
	RunE: runLogs,
}

var (
	logsName   string
	logsLines  int
	logsFollow bool
)

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringVar(&logsName, "name", config.DefaultInstanceName, "Instance name")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 0, "Number of lines to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	orc, _, err := newOrchestrator()
	if err != nil {
		return err
	}

	logPath, err := orc.LogFile(logsName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if logsFollow {
		fmt.Fprintf(out, "Following logs for instance '%s' (Ctrl+C to exit):\n", logsName)
		fmt.Fprintf(out, "Log file: %s\n\n", logPath)
		return followFile(out, logPath)
	}

	fmt.Fprintf(out, "Logs for instance '%s' (%s)\n\n", logsName, logPath)
	return tailFile(out, logPath, logsLines)
}

// tailFile prints the last n lines of a file, or all of it when n is 0.
func tailFile(out io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return nil
}

// followFile prints the file and then streams everything appended to it.
// File change notifications drive the reads; a slow ticker backstops them
// for filesystems where notifications are unreliable.
func followFile(out io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(out, file); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if err := watcher.Add(path); err == nil {
			events = watcher.Events
		}
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-events:
		case <-ticker.C:
		}
		if _, err := io.Copy(out, file); err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}
	}
}
