package config

import (
	"path/filepath"
)

const (
	// ProjectFile is the optional per-project configuration file, read from
	// the project root.
	ProjectFile = "artsync.yaml"

	// ProjectVersion is the only supported version of ProjectFile.
	ProjectVersion = "v1alpha1"
)

// Project is the contents of ProjectFile. Every field is optional, and
// environment variables take precedence over it.
type Project struct {
	Version string `json:"version"`

	// Package overrides the package name read from Cargo.toml.
	Package string `json:"package,omitempty"`

	// Cargo is the build program. Defaults to `cargo`.
	Cargo string `json:"cargo,omitempty"`

	// Command is the cargo subcommand. Overridden by CARGO_CMD.
	Command string `json:"command,omitempty"`

	// Features are passed to every build unless --no-default-features is
	// set.
	Features *[]string `json:"features,omitempty"`

	// Target is the cargo target triple. Overridden by CARGO_BUILD_TARGET.
	Target string `json:"target,omitempty"`

	// Assets is the asset tree, relative to the project root.
	Assets string `json:"assets,omitempty"`

	// HostPath is the sync root. Overridden by HOSTPATH.
	HostPath string `json:"hostPath,omitempty"`

	// Workers bounds the number of files hashed in parallel.
	Workers int `json:"workers,omitempty"`

	// SyncManifest controls whether the manifest itself is sent along with
	// the changed files.
	SyncManifest *bool `json:"syncManifest,omitempty"`

	// Watch lists the paths that trigger a pass in watch mode.
	Watch []string `json:"watch,omitempty"`

	Notify NotifyProject `json:"notify,omitempty"`
	Launch LaunchProject `json:"launch,omitempty"`
}

// NotifyProject configures the sync listener.
type NotifyProject struct {
	// Endpoint is the websocket URL. Overridden by SYNC_PING_ADDRESS.
	Endpoint string  `json:"endpoint,omitempty"`
	Prefix   *string `json:"prefix,omitempty"`
}

// LaunchProject configures the launch descriptor.
type LaunchProject struct {
	Shell        string   `json:"shell,omitempty"`
	LibraryPaths []string `json:"libraryPaths,omitempty"`
	LogFile      string   `json:"logFile,omitempty"`
}

func (p Project) getVersion() string {
	return p.Version
}

// ParseProject reads the project file in `dir`. The returned error is an
// errors.FileNotFound if the file doesn't exist.
func ParseProject(dir string) (Project, error) {
	var project Project
	if err := parseConfig(filepath.Join(dir, ProjectFile), &project, ProjectVersion); err != nil {
		return Project{}, err
	}
	return project, nil
}

func (cfg *Config) applyProject(p Project) {
	setIfSet(&cfg.Package, p.Package)
	setIfSet(&cfg.Cargo, p.Cargo)
	setIfSet(&cfg.CargoCommand, p.Command)
	setIfSet(&cfg.Target, p.Target)
	setIfSet(&cfg.AssetDir, p.Assets)
	setIfSet(&cfg.HostPath, p.HostPath)
	setIfSet(&cfg.NotifyEndpoint, p.Notify.Endpoint)
	setIfSet(&cfg.Shell, p.Launch.Shell)
	setIfSet(&cfg.LogFile, p.Launch.LogFile)

	if p.Features != nil {
		cfg.DefaultFeatures = *p.Features
	}
	if p.Workers > 0 {
		cfg.Workers = p.Workers
	}
	if p.SyncManifest != nil {
		cfg.SyncManifest = *p.SyncManifest
	}
	if p.Notify.Prefix != nil {
		cfg.NotifyPrefix = *p.Notify.Prefix
	}
	if len(p.Watch) != 0 {
		cfg.Watch = p.Watch
	}
	cfg.LibraryPaths = append(cfg.LibraryPaths, p.Launch.LibraryPaths...)
}

func setIfSet(field *string, val string) {
	if val != "" {
		*field = val
	}
}
