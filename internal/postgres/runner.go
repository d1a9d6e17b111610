package postgres

import (
	"fmt"
	"os/exec"
)

// Runner executes external commands and returns their combined output.
// The supervisor never parses tool output except for error reporting, so a
// single method suffices. Replaceable in tests.
type Runner interface {
	Run(name string, args ...string) ([]byte, error)
}

// execRunner runs commands through os/exec.
type execRunner struct{}

// NewRunner returns the default Runner.
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(name string, args ...string) ([]byte, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}
