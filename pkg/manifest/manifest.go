package manifest

import (
	"github.com/spf13/afero"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// An Artifact is a single tracked output file.
type Artifact struct {
	// Path is the slash-separated path of the artifact relative to the
	// destination root. It's also the key used to compare manifests. An
	// empty Path marks a tracked artifact that didn't exist at build time.
	Path string

	// Digest is the hex-encoded content hash of the file.
	Digest string

	// Source is the local path the contents were read from. It isn't
	// persisted, so artifacts loaded from a Store have an empty Source.
	Source string
}

// IsPlaceholder returns whether the artifact stands in for a missing file.
func (a Artifact) IsPlaceholder() bool {
	return a.Path == ""
}

// Manifest is the ordered list of artifacts produced by one build.
type Manifest []Artifact

// Digests returns the path to digest mapping of the manifest. Placeholders
// are skipped.
func (m Manifest) Digests() map[string]string {
	digests := make(map[string]string, len(m))
	for _, a := range m {
		if a.IsPlaceholder() {
			continue
		}
		digests[a.Path] = a.Digest
	}
	return digests
}

// Paths returns the paths of every artifact in order. Placeholders are
// skipped.
func (m Manifest) Paths() (paths []string) {
	for _, a := range m {
		if !a.IsPlaceholder() {
			paths = append(paths, a.Path)
		}
	}
	return paths
}

// Equal returns whether both manifests record the same digest for the same
// set of paths, regardless of order.
func (m Manifest) Equal(other Manifest) bool {
	mine, theirs := m.Digests(), other.Digests()
	if len(mine) != len(theirs) {
		return false
	}
	for path, digest := range mine {
		if otherDigest, ok := theirs[path]; !ok || otherDigest != digest {
			return false
		}
	}
	return true
}
