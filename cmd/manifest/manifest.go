package manifest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sidkik/artsync/cmd/util"
	"github.com/sidkik/artsync/pkg/build"
	"github.com/sidkik/artsync/pkg/config"
	"github.com/sidkik/artsync/pkg/errors"
	"github.com/sidkik/artsync/pkg/launch"
	"github.com/sidkik/artsync/pkg/manifest"
	"github.com/sidkik/artsync/pkg/pipeline"
)

// New creates a new `manifest` command.
func New() *cobra.Command {
	var release, changed bool
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the stored manifest, or what the next sync would transfer",
		Long: "Print the manifest saved by the last sync, as `path digest` lines.\n" +
			"With --changed, hash the current artifacts and print the ones that\n" +
			"differ from the stored manifest. Nothing is saved or transferred.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			profile := build.DebugProfile
			if release {
				profile = build.ReleaseProfile
			}

			cfg, err := config.Load(config.Environ(), ".")
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "load config"))
			}

			if err := run(context.Background(), os.Stdout, cfg, profile, changed); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVarP(&release, "release", "r", false, "Use the release profile.")
	cmd.Flags().BoolVarP(&changed, "changed", "c", false,
		"Print the artifacts that changed since the last sync.")
	return cmd
}

func run(ctx context.Context, out io.Writer, cfg config.Config, profile string, changed bool) error {
	targetDir := cfg.TargetDir(profile)
	store := manifest.StoreFor(targetDir)

	if !changed {
		stored, err := store.Load()
		if err != nil {
			if err == manifest.ErrNoManifest {
				return errors.NewFriendlyError("No manifest at %q. Run `artsync sync` first.", store.Path())
			}
			return err
		}
		return printArtifacts(out, stored)
	}

	current, err := pipeline.ManifestBuilder(cfg, targetDir,
		filepath.Join(targetDir, launch.FileName)).Build(ctx)
	if err != nil {
		return err
	}

	previous, havePrevious := store.Previous()
	return printArtifacts(out, manifest.Diff(previous, havePrevious, current))
}

func printArtifacts(out io.Writer, artifacts []manifest.Artifact) error {
	for _, a := range artifacts {
		if a.IsPlaceholder() {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %s\n", a.Path, a.Digest); err != nil {
			return errors.WithContext(err, "write")
		}
	}
	return nil
}
