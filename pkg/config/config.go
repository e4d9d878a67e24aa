// Package config builds the configuration used by every artsync component.
// The configuration is assembled once at startup from defaults, the optional
// project file, the environment, and Cargo.toml, and is then passed around
// by value.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ghodss/yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/artsync/pkg/errors"
	"github.com/sidkik/artsync/pkg/launch"
	"github.com/sidkik/artsync/pkg/transport"
)

// parseConfigErrTemplate is a template for when the CLI fails to parse yaml
// configuration files. This can happen for a multitude of reasons, including
// extraneous fields and incorrect field types. However, the yaml library
// constructs errors in a way that loses context, and so we can only pass the
// error message on.
const parseConfigErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the config file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

type configInterface interface {
	getVersion() string
}

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The configuration file %q is incompatible "+
		"with this version of artsync.\n"+
		"Expected version %q, but got %q.", err.path, err.exp, err.actual)
}

func parseConfig(path string, config configInterface, expVersion string) error {
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound{Path: path}
		}
		return errors.WithContext(err, "read file")
	}

	err = yaml.Unmarshal(configBytes, config)
	if err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	if config.getVersion() != expVersion {
		return incompatibleVersionError{path, expVersion, config.getVersion()}
	}

	// Do a strict unmarshal to check for any extra fields. We do a non-strict
	// unmarshal first so that we can catch version errors before erroring on
	// extra fields.
	err = yaml.UnmarshalStrict(configBytes, config, yaml.DisallowUnknownFields)
	if err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}
	return nil
}

// DevFeature enables dynamic linking in the built game. It's dropped for
// remote and trace builds.
const DevFeature = "dev"

// Config is everything a sync pass needs to know. It's built once by Load and
// passed by value.
type Config struct {
	// ProjectDir is the absolute path of the project root.
	ProjectDir string

	// Package is the cargo package name. It names the executable and the
	// directory under HostPath that artifacts are synced to.
	Package string

	Cargo        string
	CargoCommand string

	// DefaultFeatures are added to every build as `-F<feature>`.
	DefaultFeatures []string

	// TraceArgs are added to trace builds.
	TraceArgs []string

	// Target is the cargo target triple, or empty for the host.
	Target string

	// HostPath is the root on the destination. Artifacts are synced to
	// HostPath/Package.
	HostPath string

	// AssetDir is relative to ProjectDir.
	AssetDir string

	Workers      int
	SyncManifest bool

	// Watch overrides the paths watched in watch mode.
	Watch []string

	NotifyEndpoint string
	NotifyPrefix   string

	Shell        string
	LibraryPaths []string
	LogFile      string

	// RunEnv is copied into the launched process's environment.
	RunEnv []launch.EnvVar

	Transport transport.Config
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Cargo:           "cargo",
		CargoCommand:    "build",
		DefaultFeatures: []string{"debug", DevFeature, "inspector"},
		TraceArgs:       []string{"-Fbevy/trace_tracy", "--release"},
		AssetDir:        "assets",
		Workers:         runtime.NumCPU(),
		SyncManifest:    true,
		NotifyPrefix:    "qproj sent",
		Shell:           launch.DefaultShell,
		LogFile:         launch.DefaultLogFile,
	}
}

// Load builds the configuration for the project at `projectDir`. Settings
// are applied in order: defaults, the project file, then the environment.
// The package name is read from Cargo.toml unless the project file sets it.
func Load(env Env, projectDir string) (Config, error) {
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return Config{}, errors.WithContext(err, "resolve project directory")
	}

	cfg := Default()
	cfg.ProjectDir = projectDir

	project, err := ParseProject(projectDir)
	switch err.(type) {
	case nil:
		cfg.applyProject(project)
	case errors.FileNotFound:
		log.WithField("path", filepath.Join(projectDir, ProjectFile)).
			Debug("No project file. Using defaults")
	default:
		return Config{}, err
	}

	cfg.applyEnv(env)

	if cfg.Package == "" {
		cfg.Package, err = PackageName(projectDir)
		if err != nil {
			if _, ok := err.(errors.FileNotFound); ok {
				return Config{}, errors.NewFriendlyError(
					"No %s found in %q. Run artsync from the project root.",
					CargoManifest, projectDir)
			}
			return Config{}, err
		}
	}

	if cfg.HostPath != "" {
		cfg.HostPath, err = homedirExpand(cfg.HostPath)
		if err != nil {
			return Config{}, errors.WithContext(err, "expand host path")
		}
	}

	knownHosts, err := homedirExpand("~/.ssh/known_hosts")
	if err != nil {
		log.WithError(err).Debug("Failed to find default known_hosts")
	} else {
		cfg.Transport.KnownHostsFile = knownHosts
	}
	return cfg, nil
}

func (cfg *Config) applyEnv(env Env) {
	setIfSet(&cfg.CargoCommand, env.Get(EnvCargoCommand))
	setIfSet(&cfg.HostPath, env.Get(EnvHostPath))
	setIfSet(&cfg.NotifyEndpoint, env.Get(EnvPingAddress))
	setIfSet(&cfg.Target, env.Get(EnvBuildTarget))

	cfg.Transport.SSHConnection = strings.TrimSpace(env.Get(EnvSSHConnection))
	cfg.Transport.Host = env.Get(EnvSyncHost)
	cfg.Transport.User = env.Get(EnvUser)
	cfg.Transport.Flags = env.Get(EnvTransferFlags)
	cfg.Transport.AgentSocket = env.Get(EnvAgentSocket)

	cfg.RunEnv = nil
	for _, name := range RunEnvVars {
		cfg.RunEnv = append(cfg.RunEnv, launch.EnvVar{Name: name, Value: env.Get(name)})
	}
}

// BuildArgs returns the arguments passed to the build program. `forward`
// holds the arguments given after `--` on the command line.
func (cfg Config) BuildArgs(forward []string, noDefaultFeatures, trace bool) []string {
	args := append([]string{cfg.CargoCommand}, forward...)
	if !noDefaultFeatures {
		for _, feature := range cfg.DefaultFeatures {
			args = append(args, "-F"+feature)
		}
	}
	if trace {
		args = append(args, cfg.TraceArgs...)
	}

	if cfg.Transport.IsRemote() || trace {
		var filtered []string
		for _, arg := range args {
			if arg != "-F"+DevFeature {
				filtered = append(filtered, arg)
			}
		}
		args = filtered
	}
	return args
}

// TargetDir returns the directory cargo writes artifacts for `profile` to.
func (cfg Config) TargetDir(profile string) string {
	if cfg.Target == "" {
		return filepath.Join(cfg.ProjectDir, "target", profile)
	}
	return filepath.Join(cfg.ProjectDir, "target", cfg.Target, profile)
}

// AssetRoot returns the absolute path of the asset tree.
func (cfg Config) AssetRoot() string {
	if filepath.IsAbs(cfg.AssetDir) {
		return cfg.AssetDir
	}
	return filepath.Join(cfg.ProjectDir, cfg.AssetDir)
}

// AssetPath is the asset tree's path relative to the sync root.
func (cfg Config) AssetPath() string {
	return filepath.ToSlash(filepath.Base(cfg.AssetRoot()))
}

// Destination is where artifacts are synced to.
func (cfg Config) Destination() string {
	return path.Join(filepath.ToSlash(cfg.HostPath), cfg.Package)
}

// WatchPaths are the paths that trigger a pass in watch mode. Relative paths
// are relative to ProjectDir.
func (cfg Config) WatchPaths() []string {
	if len(cfg.Watch) != 0 {
		return cfg.Watch
	}
	return []string{cfg.AssetDir, "src", CargoManifest}
}

// ExecutableName is the file name of the built executable.
func (cfg Config) ExecutableName() string {
	return cfg.Package + ".exe"
}

// DebugSymbolsName is the file name of the executable's debug symbols.
func (cfg Config) DebugSymbolsName() string {
	return cfg.Package + ".pdb"
}
