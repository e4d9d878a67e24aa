package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name   string
		flags  string
		exp    SessionOptions
		expErr bool
	}{
		{
			name:  "Empty",
			flags: "",
			exp:   SessionOptions{StrictHostKeyChecking: true},
		},
		{
			name:  "IdentityAndPort",
			flags: "-i /keys/id_ed25519 -P 2222",
			exp: SessionOptions{
				IdentityFiles:         []string{"/keys/id_ed25519"},
				Port:                  2222,
				StrictHostKeyChecking: true,
			},
		},
		{
			name: "Options",
			flags: "-o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null " +
				"-o ConnectTimeout=5 -o IdentityFile=/keys/other -o Port=23",
			exp: SessionOptions{
				IdentityFiles:         []string{"/keys/other"},
				Port:                  23,
				KnownHostsFile:        "/dev/null",
				StrictHostKeyChecking: false,
				ConnectTimeout:        5 * time.Second,
			},
		},
		{
			name:  "UnsupportedOptionIsIgnored",
			flags: "-o Compression=yes",
			exp:   SessionOptions{StrictHostKeyChecking: true},
		},
		{name: "UnknownFlag", flags: "-r", expErr: true},
		{name: "StrayArgument", flags: "-P 22 extra", expErr: true},
		{name: "OptionWithoutValue", flags: "-o Compression", expErr: true},
		{name: "BadPort", flags: "-P abc", expErr: true},
		{name: "BadTimeout", flags: "-o ConnectTimeout=soon", expErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			opts, err := ParseFlags(test.flags)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.exp, opts)
		})
	}
}
