package transport

import (
	"context"
	"fmt"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/artsync/pkg/errors"
)

// Op is a batch command understood by the remote session.
type Op string

const (
	// OpMkdir creates a directory and its parents. It succeeds if the
	// directory already exists.
	OpMkdir Op = "mkdir"

	// OpPut uploads a local file to a remote path, replacing it.
	OpPut Op = "put"
)

// Command is a single line of a batch Script.
type Command struct {
	Op   Op
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{string(c.Op)}, c.Args...), " ")
}

// Script is an ordered SFTP batch.
type Script []Command

// String renders the script in the line-oriented batch format accepted by
// sftp(1).
func (s Script) String() string {
	var sb strings.Builder
	for _, c := range s {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Session submits a batch script to a remote host. A session either succeeds
// or fails as a whole: no per-file outcome is available.
type Session interface {
	// Target describes where the session connects, for logging.
	Target() string

	// Run executes the script. It blocks until every command has completed
	// or one has failed.
	Run(ctx context.Context, script Script) error
}

// Remote sends artifacts to a remote host in a single batch.
type Remote struct {
	Session Session
}

// NewRemote returns a Remote transport using `session`.
func NewRemote(session Session) *Remote {
	return &Remote{Session: session}
}

// Name implements Transport.
func (*Remote) Name() string {
	return "remote"
}

// Execute implements Transport.
func (r *Remote) Execute(ctx context.Context, plan Plan) Result {
	script := BuildScript(plan)
	log.WithFields(log.Fields{
		"target":   r.Session.Target(),
		"commands": len(script),
	}).Debugf("Submitting batch:\n%s", script)

	if err := r.Session.Run(ctx, script); err != nil {
		return Result{Err: errors.TransportFailure{
			Transport: r.Name(),
			Failed:    len(plan.Artifacts),
			Err:       errors.WithContext(err, fmt.Sprintf("sftp %s", r.Session.Target())),
		}}
	}

	var res Result
	for _, a := range plan.Artifacts {
		res.Moved = append(res.Moved, a.Path)
	}
	return res
}

// BuildScript translates the plan into the same sequence of operations used
// by the Local transport: create the parent directory, then copy the file.
func BuildScript(plan Plan) Script {
	root := strings.TrimSuffix(strings.ReplaceAll(plan.Destination, "\\", "/"), "/")
	if root == "" {
		root = "/"
	}

	var script Script
	for _, a := range plan.Artifacts {
		dest := path.Join(root, a.Path)
		script = append(script,
			Command{Op: OpMkdir, Args: []string{path.Dir(dest)}},
			Command{Op: OpPut, Args: []string{a.Source, dest}},
		)
	}
	return script
}
