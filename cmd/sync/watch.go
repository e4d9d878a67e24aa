package sync

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/artsync/pkg/config"
	"github.com/sidkik/artsync/pkg/errors"
	"github.com/sidkik/artsync/pkg/fswatch"
	"github.com/sidkik/artsync/pkg/pipeline"
)

// settleTime is how long the watched files must go unchanged before a pass
// starts. Editors and cargo write files in bursts.
const settleTime = 500 * time.Millisecond

// Mocked out for unit testing.
var clock = clockwork.NewRealClock()

// watchAndSync runs a pass, and then another one whenever the watched paths
// change. Failed passes are logged, and the next change is still picked up.
// The built game is never launched in watch mode.
func watchAndSync(ctx context.Context, cfg config.Config, opts pipeline.Options,
	deps pipeline.Deps) error {

	watcher, err := fswatch.Watch(cfg.WatchPaths(), cfg.ProjectDir)
	if err != nil {
		return errors.WithContext(err, "watch")
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.WithError(err).Debug("Failed to close file watcher")
		}
	}()

	opts.NoRun = true
	pass := func(ctx context.Context) {
		summary, err := pipeline.Run(ctx, cfg, opts, deps)
		if err != nil {
			log.Error(errors.GetPrintableMessage(err))
			return
		}
		log.WithField("transferred", len(summary.Transferred)).Info("Waiting for changes")
	}

	pass(ctx)
	runOnChange(ctx, watcher.Events, pass)
	return nil
}

// runOnChange calls `pass` once `changes` has been quiet for settleTime. It
// returns when the context is cancelled.
func runOnChange(ctx context.Context, changes <-chan struct{}, pass func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
		}

		timer := clock.NewTimer(settleTime)
	settle:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-changes:
				timer.Reset(settleTime)
			case <-timer.Chan():
				break settle
			}
		}

		log.Debug("Change detected")
		pass(ctx)
	}
}
