package config

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/artsync/pkg/errors"
	"github.com/sidkik/artsync/pkg/launch"
	"github.com/sidkik/artsync/pkg/transport"
)

const cargoToml = `[package]
name = "bevy_game"
version = "0.1.0"

[dependencies]
bevy = "0.15"
`

func mockHomedir(t *testing.T) {
	homedirExpand = func(path string) (string, error) {
		if len(path) > 0 && path[0] == '~' {
			return "/home/user" + path[1:], nil
		}
		return path, nil
	}
}

func setupProject(t *testing.T, files map[string]string) {
	fs = afero.NewMemMapFs()
	for path, contents := range files {
		assert.NoError(t, afero.WriteFile(fs, filepath.Join("/project", path), []byte(contents), 0644))
	}
}

func TestLoad(t *testing.T) {
	mockHomedir(t)

	defaultRunEnv := []launch.EnvVar{
		{Name: "RUST_LOG"},
		{Name: "DEBUG_LEVEL"},
		{Name: "RUST_BACKTRACE"},
	}

	tests := []struct {
		name   string
		files  map[string]string
		env    Env
		expCfg func() Config
		expErr error
	}{
		{
			name:  "Defaults",
			files: map[string]string{"Cargo.toml": cargoToml},
			expCfg: func() Config {
				cfg := Default()
				cfg.ProjectDir = "/project"
				cfg.Package = "bevy_game"
				cfg.RunEnv = defaultRunEnv
				cfg.Transport.KnownHostsFile = "/home/user/.ssh/known_hosts"
				return cfg
			},
		},
		{
			name:  "EnvironmentOverrides",
			files: map[string]string{"Cargo.toml": cargoToml},
			env: Env{
				"CARGO_CMD":          "run",
				"HOSTPATH":           "~/games",
				"SYNC_PING_ADDRESS":  "ws://localhost:9001",
				"CARGO_BUILD_TARGET": "x86_64-pc-windows-gnu",
				"SSH_CONNECTION":     "10.0.0.2 50022 10.0.0.3 22",
				"SYNC_HOST":          "me@host:2222",
				"USER":               "me",
				"SCP_FLAGS":          "-P 2200",
				"SSH_AUTH_SOCK":      "/tmp/agent.sock",
				"RUST_LOG":           "info",
				"DEBUG_LEVEL":        "2",
			},
			expCfg: func() Config {
				cfg := Default()
				cfg.ProjectDir = "/project"
				cfg.Package = "bevy_game"
				cfg.CargoCommand = "run"
				cfg.HostPath = "/home/user/games"
				cfg.NotifyEndpoint = "ws://localhost:9001"
				cfg.Target = "x86_64-pc-windows-gnu"
				cfg.RunEnv = []launch.EnvVar{
					{Name: "RUST_LOG", Value: "info"},
					{Name: "DEBUG_LEVEL", Value: "2"},
					{Name: "RUST_BACKTRACE"},
				}
				cfg.Transport = transport.Config{
					SSHConnection:  "10.0.0.2 50022 10.0.0.3 22",
					Host:           "me@host:2222",
					User:           "me",
					Flags:          "-P 2200",
					AgentSocket:    "/tmp/agent.sock",
					KnownHostsFile: "/home/user/.ssh/known_hosts",
				}
				return cfg
			},
		},
		{
			name: "ProjectFile",
			files: map[string]string{
				"Cargo.toml": cargoToml,
				"artsync.yaml": `version: v1alpha1
package: renamed
assets: data
hostPath: /mnt/c/games
workers: 3
syncManifest: false
features: []
notify:
  endpoint: ws://listener:9001
  prefix: ""
launch:
  libraryPaths: ['C:\libs']
`,
			},
			env: Env{"HOSTPATH": "/mnt/d/games"},
			expCfg: func() Config {
				cfg := Default()
				cfg.ProjectDir = "/project"
				cfg.Package = "renamed"
				cfg.AssetDir = "data"
				cfg.HostPath = "/mnt/d/games"
				cfg.Workers = 3
				cfg.SyncManifest = false
				cfg.DefaultFeatures = []string{}
				cfg.NotifyEndpoint = "ws://listener:9001"
				cfg.NotifyPrefix = ""
				cfg.LibraryPaths = []string{`C:\libs`}
				cfg.RunEnv = defaultRunEnv
				cfg.Transport.KnownHostsFile = "/home/user/.ssh/known_hosts"
				return cfg
			},
		},
		{
			name: "WrongProjectVersion",
			files: map[string]string{
				"Cargo.toml":   cargoToml,
				"artsync.yaml": "version: v2\n",
			},
			expErr: incompatibleVersionError{"/project/artsync.yaml", ProjectVersion, "v2"},
		},
		{
			name:   "MissingCargoManifest",
			expErr: errors.NewFriendlyError("No Cargo.toml found in %q. Run artsync from the project root.", "/project"),
		},
		{
			name:   "MissingPackageName",
			files:  map[string]string{"Cargo.toml": "[workspace]\n"},
			expErr: errors.WithContext(errors.MissingFieldError{Field: "package.name"}, "/project/Cargo.toml"),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			setupProject(t, test.files)

			cfg, err := Load(test.env, "/project")
			if test.expErr != nil {
				assert.Equal(t, test.expErr, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, test.expCfg(), cfg)
		})
	}
}

func TestLoadUnknownProjectField(t *testing.T) {
	mockHomedir(t)
	setupProject(t, map[string]string{
		"Cargo.toml":   cargoToml,
		"artsync.yaml": "version: v1alpha1\nbogus: true\n",
	})

	_, err := Load(nil, "/project")
	assert.Error(t, err)
	_, isFriendly := err.(errors.FriendlyError)
	assert.True(t, isFriendly)
}

func TestDefaultWorkers(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), Default().Workers)
}

func TestBuildArgs(t *testing.T) {
	local := Default()
	remote := Default()
	remote.Transport.SSHConnection = "10.0.0.2 50022 10.0.0.3 22"

	tests := []struct {
		name              string
		cfg               Config
		forward           []string
		noDefaultFeatures bool
		trace             bool
		exp               []string
	}{
		{
			name: "DefaultFeatures",
			cfg:  local,
			exp:  []string{"build", "-Fdebug", "-Fdev", "-Finspector"},
		},
		{
			name:              "ForwardedOnly",
			cfg:               local,
			forward:           []string{"--release"},
			noDefaultFeatures: true,
			exp:               []string{"build", "--release"},
		},
		{
			name:  "TraceDropsDev",
			cfg:   local,
			trace: true,
			exp:   []string{"build", "-Fdebug", "-Finspector", "-Fbevy/trace_tracy", "--release"},
		},
		{
			name:    "RemoteDropsDev",
			cfg:     remote,
			forward: []string{"-Fdev", "--locked"},
			exp:     []string{"build", "--locked", "-Fdebug", "-Finspector"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.cfg.BuildArgs(test.forward, test.noDefaultFeatures, test.trace))
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.ProjectDir = "/project"
	cfg.Package = "bevy_game"
	cfg.HostPath = "/mnt/c/Users/me/AppData/Local/Temp"

	assert.Equal(t, "/project/target/debug", cfg.TargetDir("debug"))
	cfg.Target = "x86_64-pc-windows-msvc"
	assert.Equal(t, "/project/target/x86_64-pc-windows-msvc/release", cfg.TargetDir("release"))

	assert.Equal(t, "/project/assets", cfg.AssetRoot())
	assert.Equal(t, "assets", cfg.AssetPath())
	assert.Equal(t, "/mnt/c/Users/me/AppData/Local/Temp/bevy_game", cfg.Destination())
	assert.Equal(t, []string{"assets", "src", "Cargo.toml"}, cfg.WatchPaths())
	cfg.Watch = []string{"levels"}
	assert.Equal(t, []string{"levels"}, cfg.WatchPaths())
	assert.Equal(t, "bevy_game.exe", cfg.ExecutableName())
	assert.Equal(t, "bevy_game.pdb", cfg.DebugSymbolsName())
}

func TestParseEnv(t *testing.T) {
	env := ParseEnv([]string{"A=1", "B=x=y", "=bad", "noequals", "A=2", "EMPTY="})
	assert.Equal(t, Env{"A": "2", "B": "x=y", "EMPTY": ""}, env)
	assert.Equal(t, "", env.Get("MISSING"))
}
