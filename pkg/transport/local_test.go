package transport

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/artsync/pkg/errors"
	"github.com/sidkik/artsync/pkg/manifest"
)

func TestLocalExecute(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/target/game.exe", []byte("exe"), 0755))
	assert.NoError(t, afero.WriteFile(fs, "/proj/assets/ui/a.png", []byte("png"), 0644))

	// The destination directory already exists for one of the files.
	assert.NoError(t, fs.MkdirAll("/mnt/c/game", 0755))
	assert.NoError(t, afero.WriteFile(fs, "/mnt/c/game/game.exe", []byte("stale and longer"), 0755))

	local := &Local{Fs: fs}
	res := local.Execute(context.Background(), Plan{
		Destination: "/mnt/c/game",
		Artifacts: []manifest.Artifact{
			{Path: "game.exe", Source: "/target/game.exe"},
			{Path: "assets/ui/a.png", Source: "/proj/assets/ui/a.png"},
		},
	})
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"game.exe", "assets/ui/a.png"}, res.Moved)

	contents, err := afero.ReadFile(fs, "/mnt/c/game/game.exe")
	assert.NoError(t, err)
	assert.Equal(t, "exe", string(contents))

	contents, err = afero.ReadFile(fs, "/mnt/c/game/assets/ui/a.png")
	assert.NoError(t, err)
	assert.Equal(t, "png", string(contents))
}

func TestLocalExecutePartialFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/src/a", []byte("a"), 0644))
	assert.NoError(t, afero.WriteFile(fs, "/src/c", []byte("c"), 0644))

	local := &Local{Fs: fs}
	res := local.Execute(context.Background(), Plan{
		Destination: "/dst",
		Artifacts: []manifest.Artifact{
			{Path: "a", Source: "/src/a"},
			{Path: "b", Source: "/src/missing-b"},
			{Path: "c", Source: "/src/c"},
			{Path: "d", Source: "/src/missing-d"},
		},
	})

	// Every file is attempted, even after the first failure.
	assert.Equal(t, []string{"a", "c"}, res.Moved)
	exists, err := afero.Exists(fs, "/dst/c")
	assert.NoError(t, err)
	assert.True(t, exists)

	var transportErr errors.TransportFailure
	if assert.True(t, errors.As(res.Err, &transportErr)) {
		assert.Equal(t, "local", transportErr.Transport)
		assert.Equal(t, 2, transportErr.Failed)
		assert.Contains(t, transportErr.Err.Error(), "b: open source")
	}
}

func TestLocalExecuteCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/src/a", []byte("a"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := (&Local{Fs: fs}).Execute(ctx, Plan{
		Destination: "/dst",
		Artifacts:   []manifest.Artifact{{Path: "a", Source: "/src/a"}},
	})
	assert.Empty(t, res.Moved)
	assert.True(t, errors.Is(res.Err, context.Canceled))
}

func TestLocalExecuteEmptyPlan(t *testing.T) {
	res := (&Local{Fs: afero.NewMemMapFs()}).Execute(context.Background(), Plan{Destination: "/dst"})
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Moved)
}
