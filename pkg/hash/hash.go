// Package hash computes the content digests used to decide whether an
// artifact changed since the last sync. The digest is xxHash64, which is fast
// and stable across platforms, but isn't meant to resist tampering.
package hash

import (
	"encoding/hex"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/sidkik/artsync/pkg/errors"
)

// Size is the length of a rendered digest.
const Size = 2 * 8 // (*xxhash.Digest).Size() is always 8 bytes

// File returns the digest of the file at path.
func File(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", errors.WithContext(err, "open")
	}
	defer f.Close()

	return Reader(f)
}

// Reader returns the digest of everything read from r.
func Reader(r io.Reader) (string, error) {
	hasher := xxhash.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", errors.WithContext(err, "read")
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Bytes returns the digest of b.
func Bytes(b []byte) string {
	hasher := xxhash.New()
	_, _ = hasher.Write(b)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Valid returns whether s looks like a digest produced by this package.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
