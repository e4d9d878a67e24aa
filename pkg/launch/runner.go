package launch

import (
	"context"
	"io"
	"os"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/artsync/pkg/errors"
)

// DefaultShell runs descriptors on a Windows host reachable from WSL.
const DefaultShell = "pwsh.exe"

// Mocked out for unit testing.
var execCommand = exec.CommandContext

// Runner starts a synced descriptor and waits for the process to exit.
type Runner struct {
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the descriptor at `path`, which must be in the shell's path
// syntax.
func (r Runner) Run(ctx context.Context, path string) error {
	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := execCommand(ctx, shell, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	log.WithField("descriptor", path).Info("Running")
	if err := cmd.Run(); err != nil {
		return errors.WithContext(err, shell)
	}
	return nil
}
