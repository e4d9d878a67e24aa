package build

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/artsync/pkg/errors"
)

func TestProfile(t *testing.T) {
	assert.Equal(t, DebugProfile, Profile(nil))
	assert.Equal(t, DebugProfile, Profile([]string{"-Fdev"}))
	assert.Equal(t, ReleaseProfile, Profile([]string{"-Fdev", "-r"}))
	assert.Equal(t, ReleaseProfile, Profile([]string{"--release"}))
}

func TestRun(t *testing.T) {
	defer func() { execCommand = exec.CommandContext }()

	var gotArgs []string
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = append([]string{name}, args...)
		return exec.CommandContext(ctx, "echo", "built")
	}

	var stdout bytes.Buffer
	cmd := Command{Program: "cargo", Args: []string{"build", "-Fdev"}, Stdout: &stdout}
	assert.NoError(t, cmd.Run(context.Background()))
	assert.Equal(t, []string{"cargo", "build", "-Fdev"}, gotArgs)
	assert.Equal(t, "built\n", stdout.String())
}

func TestRunFailure(t *testing.T) {
	defer func() { execCommand = exec.CommandContext }()
	execCommand = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "false")
	}

	err := Command{Program: "cargo", Args: []string{"build"}}.Run(context.Background())
	var buildErr errors.BuildFailure
	if assert.True(t, errors.As(err, &buildErr)) {
		assert.Equal(t, "cargo build", buildErr.Command)
	}
}

func TestTargetLibDir(t *testing.T) {
	defer func() { execCommand = exec.CommandContext }()

	var gotArgs []string
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = append([]string{name}, args...)
		return exec.CommandContext(ctx, "echo", "/home/me/.rustup/lib/rustlib/x86_64-pc-windows-gnu/lib")
	}

	dir, err := TargetLibDir(context.Background(), "x86_64-pc-windows-gnu")
	assert.NoError(t, err)
	assert.Equal(t, "/home/me/.rustup/lib/rustlib/x86_64-pc-windows-gnu/lib", dir)
	assert.Equal(t, []string{"rustc", "--target=x86_64-pc-windows-gnu", "--print", "target-libdir"}, gotArgs)

	_, err = TargetLibDir(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, []string{"rustc", "--print", "target-libdir"}, gotArgs)
}
