package transport

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/sidkik/artsync/pkg/errors"
)

const defaultSSHPort = 22

// Address identifies the remote end of an SFTP session.
type Address struct {
	User string
	Host string
	Port int
}

// HostPort returns the address to dial.
func (addr Address) HostPort() string {
	return net.JoinHostPort(addr.Host, strconv.Itoa(addr.Port))
}

func (addr Address) String() string {
	return fmt.Sprintf("%s@%s", addr.User, addr.HostPort())
}

// ResolveAddress determines where remote sessions connect. An explicit
// `user@host:port` host wins. Otherwise the address is taken from the first
// two fields of the SSH connection descriptor, which identify the machine the
// user connected from.
func ResolveAddress(host, sshConnection, user string) (Address, error) {
	if host != "" {
		addr, err := ParseAddress(host)
		if err != nil {
			return Address{}, errors.WithContext(err, "parse sync host")
		}
		if addr.User == "" {
			addr.User = user
		}
		if addr.User == "" {
			return Address{}, errors.NewFriendlyError("No user for sync host %q. "+
				"Set SYNC_HOST to `user@host:port`.", host)
		}
		return addr, nil
	}

	fields := strings.Fields(sshConnection)
	if len(fields) < 2 {
		return Address{}, errors.NewFriendlyError("Can't derive the sync host from "+
			"SSH_CONNECTION (%q). Set SYNC_HOST to `user@host:port`.", sshConnection)
	}

	port, err := strconv.Atoi(fields[1])
	if err != nil {
		return Address{}, errors.WithContext(err, "parse SSH_CONNECTION port")
	}

	if user == "" {
		return Address{}, errors.MissingFieldError{Field: "USER"}
	}
	return Address{User: user, Host: fields[0], Port: port}, nil
}

// ParseAddress parses `[user@]host[:port]`.
func ParseAddress(s string) (Address, error) {
	var addr Address
	if i := strings.LastIndex(s, "@"); i >= 0 {
		addr.User = s[:i]
		s = s[i+1:]
	}

	addr.Host, addr.Port = s, defaultSSHPort
	if host, portStr, err := net.SplitHostPort(s); err == nil {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Address{}, fmt.Errorf("bad port %q", portStr)
		}
		addr.Host, addr.Port = host, port
	}

	if addr.Host == "" {
		return Address{}, errors.New("missing host")
	}
	return addr, nil
}
