package transport

import (
	"io/ioutil"
	"strconv"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/sidkik/artsync/pkg/errors"
)

// SessionOptions control how the SSH connection is established.
type SessionOptions struct {
	IdentityFiles         []string
	Port                  int
	KnownHostsFile        string
	StrictHostKeyChecking bool
	ConnectTimeout        time.Duration
	AgentSocket           string
}

// ParseFlags parses extra transfer flags written in scp's syntax. The
// supported subset is `-i identity_file`, `-P port`, and `-o key=value` for
// IdentityFile, Port, StrictHostKeyChecking, UserKnownHostsFile and
// ConnectTimeout.
func ParseFlags(flags string) (SessionOptions, error) {
	opts := SessionOptions{StrictHostKeyChecking: true}

	flagSet := pflag.NewFlagSet("SCP_FLAGS", pflag.ContinueOnError)
	flagSet.SetOutput(ioutil.Discard)
	identities := flagSet.StringArrayP("identity", "i", nil, "identity file")
	port := flagSet.IntP("port", "P", 0, "remote port")
	options := flagSet.StringArrayP("option", "o", nil, "ssh option")
	if err := flagSet.Parse(strings.Fields(flags)); err != nil {
		return SessionOptions{}, errors.NewFriendlyError("Failed to parse SCP_FLAGS %q: %s", flags, err)
	}

	if flagSet.NArg() != 0 {
		return SessionOptions{}, errors.NewFriendlyError(
			"Unexpected arguments in SCP_FLAGS: %s", strings.Join(flagSet.Args(), " "))
	}

	opts.IdentityFiles = append(opts.IdentityFiles, *identities...)
	opts.Port = *port

	for _, opt := range *options {
		kv := strings.SplitN(opt, "=", 2)
		if len(kv) != 2 {
			return SessionOptions{}, errors.NewFriendlyError(
				"SSH option %q in SCP_FLAGS must have the form key=value", opt)
		}

		key, value := strings.ToLower(strings.TrimSpace(kv[0])), strings.TrimSpace(kv[1])
		switch key {
		case "identityfile":
			opts.IdentityFiles = append(opts.IdentityFiles, value)
		case "port":
			p, err := strconv.Atoi(value)
			if err != nil {
				return SessionOptions{}, errors.WithContext(err, "parse Port option")
			}
			opts.Port = p
		case "stricthostkeychecking":
			opts.StrictHostKeyChecking = value != "no" && value != "off"
		case "userknownhostsfile":
			opts.KnownHostsFile = value
		case "connecttimeout":
			secs, err := strconv.Atoi(value)
			if err != nil {
				return SessionOptions{}, errors.WithContext(err, "parse ConnectTimeout option")
			}
			opts.ConnectTimeout = time.Duration(secs) * time.Second
		default:
			log.WithField("option", opt).Warn("Ignoring unsupported ssh option in SCP_FLAGS")
		}
	}

	for i, path := range opts.IdentityFiles {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return SessionOptions{}, errors.WithContext(err, "expand identity file")
		}
		opts.IdentityFiles[i] = expanded
	}

	if opts.KnownHostsFile != "" {
		expanded, err := homedir.Expand(opts.KnownHostsFile)
		if err != nil {
			return SessionOptions{}, errors.WithContext(err, "expand known hosts file")
		}
		opts.KnownHostsFile = expanded
	}
	return opts, nil
}
