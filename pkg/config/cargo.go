package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/sidkik/artsync/pkg/errors"
)

// CargoManifest is the file that names the package being built.
const CargoManifest = "Cargo.toml"

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// PackageName reads the package name from the Cargo.toml in `dir`.
func PackageName(dir string) (string, error) {
	path := filepath.Join(dir, CargoManifest)
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.FileNotFound{Path: path}
		}
		return "", errors.WithContext(err, "read cargo manifest")
	}

	var manifest cargoManifest
	if err := toml.Unmarshal(contents, &manifest); err != nil {
		return "", errors.NewFriendlyError("Failed to parse %q: %s", path, err)
	}

	if manifest.Package.Name == "" {
		return "", errors.WithContext(errors.MissingFieldError{Field: "package.name"}, path)
	}
	return manifest.Package.Name, nil
}
