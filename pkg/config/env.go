package config

import (
	"os"
	"strings"
)

// The environment variables read by Load.
const (
	EnvCargoCommand  = "CARGO_CMD"
	EnvHostPath      = "HOSTPATH"
	EnvSyncHost      = "SYNC_HOST"
	EnvPingAddress   = "SYNC_PING_ADDRESS"
	EnvBuildTarget   = "CARGO_BUILD_TARGET"
	EnvTransferFlags = "SCP_FLAGS"
	EnvSSHConnection = "SSH_CONNECTION"
	EnvUser          = "USER"
	EnvAgentSocket   = "SSH_AUTH_SOCK"
)

// RunEnvVars are copied into the launched process's environment.
var RunEnvVars = []string{"RUST_LOG", "DEBUG_LEVEL", "RUST_BACKTRACE"}

// Env is a snapshot of the environment. Empty values are treated the same as
// unset ones.
type Env map[string]string

// Environ returns a snapshot of the process environment.
func Environ() Env {
	return ParseEnv(os.Environ())
}

// ParseEnv parses `KEY=value` pairs. Later pairs win.
func ParseEnv(pairs []string) Env {
	env := Env{}
	for _, pair := range pairs {
		idx := strings.IndexByte(pair, '=')
		if idx <= 0 {
			continue
		}
		env[pair[:idx]] = pair[idx+1:]
	}
	return env
}

// Get returns the value of `key`, or the empty string.
func (env Env) Get(key string) string {
	return env[key]
}
