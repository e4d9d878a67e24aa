package sync

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/artsync/cmd/util"
	"github.com/sidkik/artsync/pkg/config"
	"github.com/sidkik/artsync/pkg/errors"
	"github.com/sidkik/artsync/pkg/launch"
	"github.com/sidkik/artsync/pkg/notify"
	"github.com/sidkik/artsync/pkg/pipeline"
	"github.com/sidkik/artsync/pkg/transport"
)

const envHelp = `Accepts the following environment variables:
  CARGO_CMD           The cargo subcommand to run. (default: build)
  HOSTPATH            Directory the artifacts are synced into, in Unix format.
  SYNC_HOST           user@host:port to sync to over SSH. Defaults to the
                      client of the current SSH session.
  SYNC_PING_ADDRESS   Websocket address that's sent the list of synced files.
  CARGO_BUILD_TARGET  Build target for cargo.
  SCP_FLAGS           Extra SSH flags (-i, -P, -o) used when syncing over SSH.
  RUST_LOG, DEBUG_LEVEL, RUST_BACKTRACE
                      Copied into the launched game's environment.`

type flags struct {
	opts      pipeline.Options
	verbosity int
	watch     bool
}

// New creates a new `sync` command.
func New() *cobra.Command {
	return newCommand(func(f flags) {
		setVerbosity(f.verbosity)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		if err := run(ctx, f); err != nil {
			util.HandleFatalError(err)
		}
	})
}

func newCommand(action func(flags)) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "sync [flags] [-- cargo args]",
		Short: "Build the project, sync changed artifacts, and launch it",
		Long: "Build the project, hash the build artifacts and assets, and copy the\n" +
			"files that changed since the last sync to HOSTPATH. If an SSH session is\n" +
			"detected, the files are sent back to the client over SFTP instead.\n" +
			"Arguments after `--` are forwarded to cargo.\n\n" + envHelp,
		Args: func(cmd *cobra.Command, args []string) error {
			if dash := cmd.ArgsLenAtDash(); dash > 0 || (dash < 0 && len(args) > 0) {
				return errors.NewFriendlyError(
					"Unexpected arguments %v. Pass cargo arguments after `--`.", args)
			}
			return nil
		},
		Run: func(_ *cobra.Command, args []string) {
			f.opts.Forward = args
			action(f)
		},
	}

	flagSet := cmd.Flags()
	flagSet.BoolVarP(&f.opts.NoBuild, "no-build", "b", false, "Do not build the project.")
	flagSet.BoolVarP(&f.opts.NoSync, "no-sync", "s", false, "Do not sync the project.")
	flagSet.BoolVarP(&f.opts.NoHash, "no-hash", "H", false,
		"Do not check for changes. Every artifact is synced.")
	flagSet.BoolVarP(&f.opts.NoRun, "no-run", "r", false, "Do not run the project.")
	flagSet.BoolVarP(&f.opts.Trace, "trace", "t", false,
		"Build a release binary with tracing enabled, and run it as an administrator.")
	flagSet.BoolVarP(&f.opts.NoDefaultFeatures, "no-default-features", "f", false,
		"Do not add the default features to the cargo command.")
	flagSet.CountVarP(&f.verbosity, "verbose", "v", "Log verbosely. Repeat for more detail.")
	flagSet.BoolVarP(&f.watch, "watch", "w", false,
		"Keep running, and sync again whenever the sources or assets change.")
	return cmd
}

func setVerbosity(verbosity int) {
	switch {
	case verbosity >= 2:
		log.SetLevel(log.TraceLevel)
	case verbosity == 1:
		log.SetLevel(log.DebugLevel)
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.Load(config.Environ(), ".")
	if err != nil {
		return errors.WithContext(err, "load config")
	}
	log.WithField("config", fmt.Sprintf("%+v", cfg)).Trace("Loaded config")

	deps, err := newDeps(cfg)
	if err != nil {
		return err
	}

	if cfg.Transport.IsRemote() {
		log.Info("SSH session detected. Syncing over SFTP")
	}

	if f.watch {
		return watchAndSync(ctx, cfg, f.opts, deps)
	}

	summary, err := pipeline.Run(ctx, cfg, f.opts, deps)
	if err != nil {
		return err
	}
	log.WithField("transferred", len(summary.Transferred)).
		WithField("notified", summary.Notified).
		Debug("Sync pass complete")
	return nil
}

func newDeps(cfg config.Config) (pipeline.Deps, error) {
	tr, err := transport.Select(cfg.Transport)
	if err != nil {
		return pipeline.Deps{}, errors.WithContext(err, "select transport")
	}

	deps := pipeline.Deps{
		Transport: tr,
		Runner:    launch.Runner{Shell: cfg.Shell},
	}
	if cfg.NotifyEndpoint != "" {
		deps.Notifier = notify.NewWebsocket(cfg.NotifyEndpoint, cfg.NotifyPrefix)
	}
	return deps, nil
}
