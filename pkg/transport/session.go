package transport

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/pkg/sftp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/sidkik/artsync/pkg/errors"
)

// SSHSession runs batch scripts over SFTP.
type SSHSession struct {
	Address Address
	Options SessionOptions

	// Fs is where the sources of `put` commands are read from. Defaults to
	// the OS filesystem.
	Fs afero.Fs
}

// Target implements Session.
func (s *SSHSession) Target() string {
	return s.Address.String()
}

// Run implements Session. Cancelling ctx tears down the whole connection;
// individual uploads can't be cancelled.
func (s *SSHSession) Run(ctx context.Context, script Script) error {
	config, closeAuth, err := s.clientConfig()
	if err != nil {
		return errors.WithContext(err, "configure ssh")
	}
	defer closeAuth()

	dialer := net.Dialer{Timeout: s.Options.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.Address.HostPort())
	if err != nil {
		return errors.WithContext(err, "dial")
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, s.Address.HostPort(), config)
	if err != nil {
		conn.Close()
		return errors.WithContext(err, "ssh handshake")
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-done:
		}
	}()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return errors.WithContext(err, "start sftp")
	}
	defer sftpClient.Close()

	fs := s.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if err := runScript(fs, sftpTarget{sftpClient}, script); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *SSHSession) clientConfig() (*ssh.ClientConfig, func(), error) {
	closeAuth := func() {}
	var auths []ssh.AuthMethod

	if s.Options.AgentSocket != "" {
		agentConn, err := net.Dial("unix", s.Options.AgentSocket)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to ssh-agent")
		} else {
			closeAuth = func() { agentConn.Close() }
			auths = append(auths, ssh.PublicKeysCallback(agent.NewClient(agentConn).Signers))
		}
	}

	var signers []ssh.Signer
	for _, path := range s.Options.IdentityFiles {
		pem, err := afero.ReadFile(afero.NewOsFs(), path)
		if err != nil {
			closeAuth()
			return nil, nil, errors.WithContext(err, fmt.Sprintf("read identity %q", path))
		}

		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			closeAuth()
			return nil, nil, errors.WithContext(err, fmt.Sprintf("parse identity %q", path))
		}
		signers = append(signers, signer)
	}
	if len(signers) != 0 {
		auths = append(auths, ssh.PublicKeys(signers...))
	}

	if len(auths) == 0 {
		closeAuth()
		return nil, nil, errors.NewFriendlyError("No SSH credentials available for %s. "+
			"Start ssh-agent or pass `-i identity_file` in SCP_FLAGS.", s.Address)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if s.Options.StrictHostKeyChecking {
		if s.Options.KnownHostsFile == "" {
			closeAuth()
			return nil, nil, errors.NewFriendlyError("No known_hosts file to verify %s. "+
				"Pass `-o UserKnownHostsFile=path` or `-o StrictHostKeyChecking=no` in SCP_FLAGS.",
				s.Address)
		}

		var err error
		hostKeyCallback, err = knownhosts.New(s.Options.KnownHostsFile)
		if err != nil {
			closeAuth()
			return nil, nil, errors.WithContext(err, "load known hosts")
		}
	}

	return &ssh.ClientConfig{
		User:            s.Address.User,
		Auth:            auths,
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.Options.ConnectTimeout,
	}, closeAuth, nil
}

// remoteFS is the subset of an SFTP client used to execute a script.
type remoteFS interface {
	MkdirAll(path string) error
	Create(path string) (io.WriteCloser, error)
}

type sftpTarget struct {
	client *sftp.Client
}

func (t sftpTarget) MkdirAll(path string) error {
	return t.client.MkdirAll(path)
}

func (t sftpTarget) Create(path string) (io.WriteCloser, error) {
	return t.client.Create(path)
}

// runScript executes each command in order, stopping at the first failure.
func runScript(local afero.Fs, remote remoteFS, script Script) error {
	for _, cmd := range script {
		if err := runCommand(local, remote, cmd); err != nil {
			return errors.WithContext(err, cmd.String())
		}
	}
	return nil
}

func runCommand(local afero.Fs, remote remoteFS, cmd Command) error {
	switch cmd.Op {
	case OpMkdir:
		if len(cmd.Args) != 1 {
			return fmt.Errorf("mkdir takes 1 argument, got %d", len(cmd.Args))
		}
		return remote.MkdirAll(cmd.Args[0])

	case OpPut:
		if len(cmd.Args) != 2 {
			return fmt.Errorf("put takes 2 arguments, got %d", len(cmd.Args))
		}

		src, err := local.Open(cmd.Args[0])
		if err != nil {
			return errors.WithContext(err, "open local file")
		}
		defer src.Close()

		dst, err := remote.Create(cmd.Args[1])
		if err != nil {
			return errors.WithContext(err, "create remote file")
		}

		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			return errors.WithContext(err, "upload")
		}
		return dst.Close()

	default:
		return fmt.Errorf("unknown command %q", cmd.Op)
	}
}
