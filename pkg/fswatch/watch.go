package fswatch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/artsync/pkg/errors"
)

var fs = afero.NewOsFs()

// Watcher sends an event whenever a file within the watched paths changes.
type Watcher struct {
	// Events receives a value after one or more changes. Bursts of changes
	// are combined into a single event.
	Events chan struct{}

	watcher *fsnotify.Watcher
}

// Watch watches `paths` for changes. Directories are watched recursively,
// including directories created after Watch returns. Paths that don't exist
// are skipped.
// Relative paths are resolved relative to `relativeTo`.
func Watch(paths []string, relativeTo string) (*Watcher, error) {
	pathsToWatch, err := getPathsToWatch(paths, relativeTo)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}
	if len(pathsToWatch) == 0 {
		return nil, errors.NewFriendlyError("None of the watched paths exist: %v", paths)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}

	go logErrors(watcher.Errors)
	events := followNewDirs(watcher, watcher.Events)
	return &Watcher{Events: combineUpdates(events), watcher: watcher}, nil
}

// Close stops watching. Events is not closed.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

type adder interface {
	Add(string) error
}

// followNewDirs starts watching directories as they're created, since
// fsnotify doesn't watch recursively.
func followNewDirs(w adder, updates <-chan fsnotify.Event) <-chan fsnotify.Event {
	out := make(chan fsnotify.Event)
	go func() {
		defer close(out)
		for event := range updates {
			if event.Has(fsnotify.Create) {
				if fi, err := fs.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.Add(event.Name); err != nil {
						log.WithError(err).WithField("path", event.Name).
							Warn("Failed to watch new directory")
					}
				}
			}
			log.WithField("event", event).Debug("File changed")
			out <- event
		}
	}()
	return out
}

func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

func logErrors(errs <-chan error) {
	for err := range errs {
		log.WithError(err).Warn("File watcher error")
	}
}

func getPathsToWatch(roots []string, relativeTo string) (paths []string, err error) {
	for _, root := range roots {
		path := root
		if !filepath.IsAbs(root) {
			path = filepath.Join(relativeTo, root)
		}

		fi, err := fs.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.WithField("path", path).Debug("Not watching missing path")
				continue
			}
			return nil, errors.WithContext(err, "stat")
		}

		paths = append(paths, path)
		if fi.Mode().IsDir() {
			// Because fsnotify doesn't watch directories recursively, we walk
			// the directory and add all subdirectories.
			subdirs, err := getSubdirs(path)
			if err != nil {
				return nil, errors.WithContext(err, "get subdirs")
			}
			paths = append(paths, subdirs...)
		} else {
			// If the path is a file, then watch its parent directory as well
			// as the file itself. This way, if the file is removed and
			// re-added we'll notice.
			paths = append(paths, filepath.Dir(path))
		}
	}

	return paths, nil
}

func getSubdirs(dir string) (paths []string, err error) {
	err = afero.Walk(fs, dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}

		if path != dir && fi.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
