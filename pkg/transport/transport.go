// Package transport moves a Transfer Set to its destination. There are two
// strategies: Local copies files onto a mounted filesystem, and Remote submits
// a single SFTP batch to a remote host. Both translate the plan into the same
// ordered sequence of directory-create and copy operations.
package transport

import (
	"context"

	"github.com/sidkik/artsync/pkg/manifest"
)

// Transport executes a sync Plan. Implementations must not be run
// concurrently against the same destination.
type Transport interface {
	// Name identifies the transport in logs.
	Name() string

	// Execute performs every operation in the plan. It doesn't return an
	// error directly, the outcome is reported through the Result.
	Execute(ctx context.Context, plan Plan) Result
}

// Plan is a Transfer Set bound to a destination root.
type Plan struct {
	// Artifacts are the files to transfer. Their Source is read, and they're
	// written to Destination/Path.
	Artifacts []manifest.Artifact

	// Destination is the root directory on the target.
	Destination string
}

// Result is the outcome of executing a Plan.
type Result struct {
	// Moved lists the paths, relative to the destination, of the artifacts
	// that were transferred.
	Moved []string

	// Err is set if any part of the transfer failed.
	Err error
}

// operation is a single copy, along with the directory that must exist
// before the copy.
type operation struct {
	path   string
	source string
	dir    string
	dest   string
}

// Config decides which transport is used and how it connects.
type Config struct {
	// SSHConnection is the connection descriptor left by sshd in the
	// environment ("<client ip> <client port> <server ip> <server port>").
	// When it's set, artifacts are sent back over SFTP.
	SSHConnection string

	// Host overrides the address derived from SSHConnection. It has the form
	// `user@host:port`.
	Host string

	// User is used when the address doesn't name one.
	User string

	// Flags are extra ssh options, in the same syntax as scp.
	Flags string

	// AgentSocket is the path to the ssh-agent socket, if any.
	AgentSocket string

	// KnownHostsFile is the default known_hosts location.
	KnownHostsFile string
}

// IsRemote returns whether the configuration selects the Remote transport.
func (cfg Config) IsRemote() bool {
	return cfg.SSHConnection != ""
}

// Select picks the transport for this invocation.
func Select(cfg Config) (Transport, error) {
	if !cfg.IsRemote() {
		return NewLocal(), nil
	}

	addr, err := ResolveAddress(cfg.Host, cfg.SSHConnection, cfg.User)
	if err != nil {
		return nil, err
	}

	opts, err := ParseFlags(cfg.Flags)
	if err != nil {
		return nil, err
	}
	if opts.Port != 0 {
		addr.Port = opts.Port
	}
	if opts.KnownHostsFile == "" {
		opts.KnownHostsFile = cfg.KnownHostsFile
	}
	opts.AgentSocket = cfg.AgentSocket

	return NewRemote(&SSHSession{Address: addr, Options: opts}), nil
}
