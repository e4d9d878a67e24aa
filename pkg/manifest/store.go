package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/artsync/pkg/errors"
	"github.com/sidkik/artsync/pkg/hash"
)

// FileName is the name of the manifest file within a target directory.
const FileName = ".hash"

// ErrNoManifest is returned by Load when nothing has been synced for the
// profile yet.
var ErrNoManifest = errors.New("no stored manifest")

// Store persists the manifest of the most recent pass for one target and
// profile. Each artifact is written as a `<path> <digest>` line. Paths are
// not escaped, so they can't contain spaces.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at `path`.
func NewStore(path string) Store {
	return Store{path: filepath.Clean(path)}
}

// StoreFor returns the store for the build output directory `targetDir`.
func StoreFor(targetDir string) Store {
	return NewStore(filepath.Join(targetDir, FileName))
}

// Path returns the location of the manifest file.
func (s Store) Path() string {
	return s.path
}

// Load reads the stored manifest. It returns ErrNoManifest if the file
// doesn't exist, and errors.ManifestCorrupt if it can't be parsed.
func (s Store) Load() (Manifest, error) {
	contents, err := afero.ReadFile(fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, errors.ManifestCorrupt{Path: s.path, Err: err}
	}

	var m Manifest
	scanner := bufio.NewScanner(bytes.NewReader(contents))
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, " ")
		if len(fields) != 2 || fields[0] == "" {
			return nil, errors.ManifestCorrupt{Path: s.path, Line: lineNum,
				Err: fmt.Errorf("expected `<path> <digest>`, got %q", line)}
		}

		if !hash.Valid(fields[1]) {
			return nil, errors.ManifestCorrupt{Path: s.path, Line: lineNum,
				Err: fmt.Errorf("malformed digest %q", fields[1])}
		}
		m = append(m, Artifact{Path: fields[0], Digest: fields[1]})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.ManifestCorrupt{Path: s.path, Err: err}
	}
	return m, nil
}

// Previous loads the stored manifest for diffing. A missing or corrupt
// manifest is reported as absent, which causes every artifact to be synced.
func (s Store) Previous() (Manifest, bool) {
	m, err := s.Load()
	switch {
	case err == nil:
		return m, true
	case err == ErrNoManifest:
		log.WithField("path", s.path).Debug("No stored manifest. Syncing everything.")
	default:
		log.WithError(err).Warn("Ignoring unreadable manifest. Syncing everything.")
	}
	return nil, false
}

// Save overwrites the stored manifest with `m`. Placeholders and paths with
// whitespace aren't written.
func (s Store) Save(m Manifest) error {
	var buf bytes.Buffer
	for _, a := range m {
		if a.IsPlaceholder() {
			continue
		}

		// The line format can't represent these paths. Leaving them out of
		// the baseline means they're resent on every pass.
		if strings.ContainsAny(a.Path, " \r\n") {
			log.WithField("path", a.Path).Warn("Path contains whitespace. " +
				"It can't be recorded in the manifest, so it will be synced every time.")
			continue
		}
		fmt.Fprintf(&buf, "%s %s\n", a.Path, a.Digest)
	}

	if err := fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.WithContext(err, "create directory")
	}

	if err := afero.WriteFile(fs, s.path, buf.Bytes(), 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}
