package manifest

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/sidkik/artsync/pkg/errors"
	"github.com/sidkik/artsync/pkg/hash"
)

// Tracked is an artifact that's always part of the manifest, such as the
// executable or its debug symbols.
type Tracked struct {
	// Source is the local path of the file. An empty Source is treated the
	// same as a file that doesn't exist.
	Source string

	// Path is the destination-relative path of the file.
	Path string
}

// Builder computes the manifest of a build.
type Builder struct {
	// Tracked are hashed first, in order.
	Tracked []Tracked

	// AssetRoot is the local directory that's walked recursively. It's
	// optional.
	AssetRoot string

	// AssetPath is the destination-relative directory the asset tree is
	// synced into.
	AssetPath string

	// Workers bounds the number of files hashed concurrently. Defaults to
	// the number of CPUs.
	Workers int
}

type hashJob struct {
	source   string
	path     string
	optional bool
}

// Build hashes every tracked file and every file in the asset tree.
// The result is ordered tracked artifacts first, then assets in lexical
// order, so that repeated builds without changes persist identically.
func (b Builder) Build(ctx context.Context) (Manifest, error) {
	jobs := make([]hashJob, 0, len(b.Tracked))
	for _, t := range b.Tracked {
		jobs = append(jobs, hashJob{source: t.Source, path: t.Path, optional: true})
	}

	assetJobs, err := b.assetJobs()
	if err != nil {
		return nil, errors.WithContext(err, "walk assets")
	}
	jobs = append(jobs, assetJobs...)

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Each worker writes to its own index, so the slice needs no locking and
	// the order doesn't depend on scheduling.
	results := make(Manifest, len(jobs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			artifact, err := hashOne(job)
			if err != nil {
				return err
			}
			results[i] = artifact
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func hashOne(job hashJob) (Artifact, error) {
	if job.source == "" {
		log.WithField("path", job.path).Debug("Tracked artifact has no source. Skipping.")
		return Artifact{}, nil
	}

	digest, err := hash.File(fs, job.source)
	if err != nil {
		if job.optional && os.IsNotExist(errors.RootCause(err)) {
			log.WithField("path", job.source).Debug("Tracked artifact doesn't exist. Skipping.")
			return Artifact{}, nil
		}
		return Artifact{}, errors.HashFailure{Path: job.source, Err: err}
	}

	return Artifact{Path: job.path, Digest: digest, Source: job.source}, nil
}

func (b Builder) assetJobs() (jobs []hashJob, err error) {
	if b.AssetRoot == "" {
		return nil, nil
	}

	if _, err := fs.Stat(b.AssetRoot); err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", b.AssetRoot).Warn("Asset directory doesn't exist. " +
				"Only the tracked artifacts will be synced.")
			return nil, nil
		}
		return nil, errors.WithContext(err, "stat")
	}

	// afero.Walk doesn't follow symlinks, so a linked asset directory is
	// walked from its target.
	root, err := resolveSymlinks(b.AssetRoot)
	if err != nil {
		return nil, errors.WithContext(err, "resolve asset directory")
	}

	// afero.Walk visits entries in lexical order.
	err = afero.Walk(fs, root, func(localPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Links to files are hashed through to their target. Links to
		// directories aren't followed, so the walk can't loop.
		if fi.Mode()&os.ModeSymlink != 0 {
			fi, err = fs.Stat(localPath)
			if err != nil {
				log.WithError(err).WithField("path", localPath).Warn("Skipping broken asset symlink")
				return nil
			}
		}

		if !fi.Mode().IsRegular() {
			return nil
		}

		relativePath, err := filepath.Rel(root, localPath)
		if err != nil {
			return errors.WithContext(err, "normalize path")
		}
		if strings.HasPrefix(relativePath, "..") {
			// This shouldn't happen because `localPath` is always a child of
			// the asset root.
			return errors.New("asset outside of the asset directory: " + localPath)
		}

		jobs = append(jobs, hashJob{
			source: localPath,
			path:   path.Join(b.AssetPath, filepath.ToSlash(relativePath)),
		})
		return nil
	})
	return jobs, err
}

// maxSymlinkHops bounds symlink resolution so that a link cycle fails
// instead of spinning.
const maxSymlinkHops = 40

// resolveSymlinks follows `p` until it names something other than a symlink.
// Filesystems that don't support symlinks return `p` unchanged.
func resolveSymlinks(p string) (string, error) {
	lstater, ok := fs.(afero.Lstater)
	if !ok {
		return p, nil
	}
	reader, ok := fs.(afero.LinkReader)
	if !ok {
		return p, nil
	}

	for i := 0; i < maxSymlinkHops; i++ {
		fi, _, err := lstater.LstatIfPossible(p)
		if err != nil {
			return "", err
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			return p, nil
		}

		target, err := reader.ReadlinkIfPossible(p)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(p), target)
		}
		p = target
	}
	return "", errors.New("too many levels of symbolic links: " + p)
}
