package transport

import (
	"context"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/artsync/pkg/errors"
)

// Local copies artifacts onto a filesystem that's mounted locally.
type Local struct {
	Fs afero.Fs
}

// NewLocal returns a Local transport on the OS filesystem.
func NewLocal() *Local {
	return &Local{Fs: afero.NewOsFs()}
}

// Name implements Transport.
func (*Local) Name() string {
	return "local"
}

// Execute implements Transport. The full list of operations is computed
// before anything is copied. A failed copy is logged and the remaining files
// are still attempted. The Result's error wraps the first failure.
func (l *Local) Execute(ctx context.Context, plan Plan) Result {
	ops := localOperations(plan)

	var res Result
	var firstErr error
	failed := 0
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			failed += len(ops) - i
			if firstErr == nil {
				firstErr = err
			}
			break
		}

		if err := l.copy(op); err != nil {
			log.WithError(err).WithField("path", op.path).Error("Failed to copy artifact")
			failed++
			if firstErr == nil {
				firstErr = errors.WithContext(err, op.path)
			}
			continue
		}

		log.WithField("path", op.path).Debug("Copied artifact")
		res.Moved = append(res.Moved, op.path)
	}

	if firstErr != nil {
		res.Err = errors.TransportFailure{Transport: l.Name(), Failed: failed, Err: firstErr}
	}
	return res
}

func localOperations(plan Plan) []operation {
	ops := make([]operation, 0, len(plan.Artifacts))
	for _, a := range plan.Artifacts {
		dest := filepath.Join(plan.Destination, filepath.FromSlash(a.Path))
		ops = append(ops, operation{
			path:   a.Path,
			source: a.Source,
			dir:    filepath.Dir(dest),
			dest:   dest,
		})
	}
	return ops
}

func (l *Local) copy(op operation) error {
	if err := l.Fs.MkdirAll(op.dir, 0755); err != nil {
		return errors.WithContext(err, "create directory")
	}

	src, err := l.Fs.Open(op.source)
	if err != nil {
		return errors.WithContext(err, "open source")
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return errors.WithContext(err, "stat source")
	}

	dst, err := l.Fs.OpenFile(op.dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return errors.WithContext(err, "create destination")
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.WithContext(err, "copy")
	}
	return dst.Close()
}
