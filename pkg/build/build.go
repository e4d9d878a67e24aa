// Package build invokes the upstream build command that produces the
// artifacts artsync syncs.
package build

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/artsync/pkg/errors"
)

const (
	// DebugProfile is the default cargo profile.
	DebugProfile = "debug"

	// ReleaseProfile is selected by `-r` or `--release`.
	ReleaseProfile = "release"
)

// Mocked out for unit testing.
var execCommand = exec.CommandContext

// Command is a build invocation, e.g. `cargo build -Fdev`.
type Command struct {
	Program string
	Args    []string
	Dir     string

	Stdout io.Writer
	Stderr io.Writer
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Run runs the build and waits for it to finish. Any failure is returned as
// an errors.BuildFailure.
func (c Command) Run(ctx context.Context) error {
	cmd := execCommand(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	log.Infof("> %s", c)
	if err := cmd.Run(); err != nil {
		return errors.BuildFailure{Command: c.String(), Err: err}
	}
	return nil
}

// Profile returns the cargo profile selected by the build arguments.
func Profile(args []string) string {
	for _, arg := range args {
		if arg == "-r" || arg == "--release" {
			return ReleaseProfile
		}
	}
	return DebugProfile
}

// TargetLibDir asks rustc where the standard library for `target` lives.
// Dynamically linked builds need it on the PATH when they're launched.
func TargetLibDir(ctx context.Context, target string) (string, error) {
	args := []string{"--print", "target-libdir"}
	if target != "" {
		args = append([]string{"--target=" + target}, args...)
	}

	out, err := execCommand(ctx, "rustc", args...).Output()
	if err != nil {
		return "", errors.WithContext(err, "rustc")
	}
	return strings.TrimSpace(string(out)), nil
}
