// Package pipeline runs a single sync pass: build, generate the launch
// descriptor, hash, diff against the previous pass, transfer, notify, and
// finally launch.
package pipeline

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/artsync/pkg/build"
	"github.com/sidkik/artsync/pkg/config"
	"github.com/sidkik/artsync/pkg/errors"
	"github.com/sidkik/artsync/pkg/launch"
	"github.com/sidkik/artsync/pkg/manifest"
	"github.com/sidkik/artsync/pkg/notify"
	"github.com/sidkik/artsync/pkg/transport"
)

// Mocked out for unit testing.
var (
	runBuild = func(ctx context.Context, cmd build.Command) error {
		return cmd.Run(ctx)
	}
	targetLibDir = build.TargetLibDir
)

// Options toggle the steps of a pass.
type Options struct {
	NoBuild bool
	NoSync  bool

	// NoHash transfers every file without consulting or rewriting the
	// stored manifest.
	NoHash bool
	NoRun  bool

	NoDefaultFeatures bool

	// Trace builds a release binary with tracing enabled and launches it
	// elevated.
	Trace bool

	// Forward is passed through to the build command.
	Forward []string
}

// Runner launches a synced descriptor.
type Runner interface {
	Run(ctx context.Context, path string) error
}

// Deps are the collaborators of a pass. Notifier and Runner are optional.
type Deps struct {
	Transport transport.Transport
	Notifier  notify.Notifier
	Runner    Runner
}

// Summary describes what a pass did.
type Summary struct {
	// Transferred are the artifacts that were submitted to the transport.
	Transferred []manifest.Artifact

	// Moved are the destination-relative paths the transport reported as
	// copied.
	Moved []string

	// Transport is the name of the transport used.
	Transport string

	// Notified is set if the sync listener was told about the transfer.
	Notified bool
}

// Run executes one pass. The returned error is an errors.BuildFailure,
// errors.HashFailure or errors.TransportFailure when the corresponding step
// fails. Notification failures are logged and never returned.
func Run(ctx context.Context, cfg config.Config, opts Options, deps Deps) (Summary, error) {
	var summary Summary
	if deps.Transport != nil {
		summary.Transport = deps.Transport.Name()
	}

	args := cfg.BuildArgs(opts.Forward, opts.NoDefaultFeatures, opts.Trace)
	targetDir := cfg.TargetDir(build.Profile(args))

	// Without a build, the descriptor from an earlier pass is still hashed
	// so that it stays in the baseline. It's a placeholder if it's missing.
	descriptorPath := filepath.Join(targetDir, launch.FileName)
	if opts.NoBuild {
		log.Info("Not building")
	} else {
		cmd := build.Command{Program: cfg.Cargo, Args: args, Dir: cfg.ProjectDir}
		if err := runBuild(ctx, cmd); err != nil {
			return summary, err
		}

		if err := launch.Generate(descriptorPath, descriptor(ctx, cfg, args, targetDir, opts.Trace)); err != nil {
			return summary, errors.WithContext(err, "generate launch descriptor")
		}
	}

	if opts.NoSync {
		log.Info("Not syncing")
	} else {
		if cfg.HostPath == "" {
			return summary, errors.NewFriendlyError("The sync destination isn't set.\n" +
				"Set HOSTPATH or `hostPath` in " + config.ProjectFile + ".")
		}

		var err error
		summary.Transferred, err = plan(ctx, cfg, opts, targetDir, descriptorPath)
		if err != nil {
			return summary, err
		}

		if len(summary.Transferred) == 0 {
			log.Info("Everything is up to date")
		} else {
			res := deps.Transport.Execute(ctx, transport.Plan{
				Artifacts:   summary.Transferred,
				Destination: cfg.Destination(),
			})
			summary.Moved = res.Moved
			if res.Err != nil {
				return summary, res.Err
			}
			log.WithField("count", len(res.Moved)).
				WithField("transport", summary.Transport).
				Info("Synced artifacts")

			if deps.Notifier != nil {
				summary.Notified = notify.BestEffort(ctx, deps.Notifier, res.Moved)
			}
		}
	}

	if opts.NoRun || cfg.Transport.IsRemote() || deps.Runner == nil {
		log.Info("Not running")
		return summary, nil
	}

	start := path.Join(cfg.Destination(), launch.FileName)
	if winPath, ok := launch.WindowsPath(start); ok {
		start = winPath
	}
	if err := deps.Runner.Run(ctx, start); err != nil {
		return summary, errors.WithContext(err, "run")
	}
	return summary, nil
}

// plan decides which artifacts to transfer. Unless hashing is disabled, the
// current manifest replaces the stored one before anything is transferred.
func plan(ctx context.Context, cfg config.Config, opts Options,
	targetDir, descriptorPath string) ([]manifest.Artifact, error) {

	current, err := ManifestBuilder(cfg, targetDir, descriptorPath).Build(ctx)
	if err != nil {
		return nil, err
	}

	if opts.NoHash {
		log.Info("Not hashing")
		var all []manifest.Artifact
		for _, a := range current {
			if !a.IsPlaceholder() {
				all = append(all, a)
			}
		}
		return all, nil
	}

	store := manifest.StoreFor(targetDir)
	previous, havePrevious := store.Previous()
	toTransfer := manifest.Diff(previous, havePrevious, current)
	log.WithField("changed", len(toTransfer)).Debug("Compared manifests")

	if err := store.Save(current); err != nil {
		return nil, errors.WithContext(err, "save manifest")
	}

	if cfg.SyncManifest && len(toTransfer) != 0 {
		toTransfer = append(toTransfer, manifest.Artifact{
			Path:   manifest.FileName,
			Source: store.Path(),
		})
	}
	return toTransfer, nil
}

// ManifestBuilder returns the builder for the artifacts in `targetDir`. A
// missing descriptor, or an empty descriptorPath, leaves a placeholder for the
// launch descriptor.
func ManifestBuilder(cfg config.Config, targetDir, descriptorPath string) manifest.Builder {
	return manifest.Builder{
		Tracked: []manifest.Tracked{
			{Source: descriptorPath, Path: launch.FileName},
			{Source: filepath.Join(targetDir, cfg.ExecutableName()), Path: cfg.ExecutableName()},
			{Source: filepath.Join(targetDir, cfg.DebugSymbolsName()), Path: cfg.DebugSymbolsName()},
		},
		AssetRoot: cfg.AssetRoot(),
		AssetPath: cfg.AssetPath(),
		Workers:   cfg.Workers,
	}
}

func descriptor(ctx context.Context, cfg config.Config, args []string,
	targetDir string, trace bool) launch.Descriptor {

	executable := path.Join(cfg.Destination(), cfg.ExecutableName())
	if winPath, ok := launch.WindowsPath(executable); ok {
		executable = winPath
	}

	d := launch.Descriptor{
		Executable: executable,
		Env:        cfg.RunEnv,
		Elevated:   trace,
		LogFile:    cfg.LogFile,
	}

	if dynamicallyLinked(args) {
		libs, err := dynamicLibraryPaths(ctx, cfg, targetDir)
		if err != nil {
			log.WithError(err).Warn("Could not generate path to dynamic libraries")
		} else {
			d.LibraryPaths = libs
		}
	}
	d.LibraryPaths = append(d.LibraryPaths, cfg.LibraryPaths...)
	return d
}

func dynamicallyLinked(args []string) bool {
	for _, arg := range args {
		if arg == "-F"+config.DevFeature {
			return true
		}
	}
	return false
}

func dynamicLibraryPaths(ctx context.Context, cfg config.Config, targetDir string) ([]string, error) {
	rustLibs, err := targetLibDir(ctx, cfg.Target)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, dir := range []string{rustLibs, filepath.Join(targetDir, "deps")} {
		winPath, ok := launch.WindowsPath(filepath.ToSlash(dir))
		if !ok {
			return nil, errors.NewFriendlyError(
				"%q isn't on a Windows drive mount", strings.TrimSpace(dir))
		}
		paths = append(paths, winPath)
	}
	return paths, nil
}
