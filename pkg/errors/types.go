package errors

import (
	"fmt"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// BuildFailure is returned when the upstream build command fails. It aborts
// the pass before anything is synced.
type BuildFailure struct {
	Command string
	Err     error
}

func (err BuildFailure) Error() string {
	return fmt.Sprintf("build %q failed: %s", err.Command, err.Err)
}

func (err BuildFailure) Unwrap() error { return err.Err }

// HashFailure is returned when a file that must be part of the manifest can't
// be read.
type HashFailure struct {
	Path string
	Err  error
}

func (err HashFailure) Error() string {
	return fmt.Sprintf("hash %q: %s", err.Path, err.Err)
}

func (err HashFailure) Unwrap() error { return err.Err }

// ManifestCorrupt is returned when the stored manifest can't be parsed.
// Callers treat it the same as a missing manifest.
type ManifestCorrupt struct {
	Path string
	Line int
	Err  error
}

func (err ManifestCorrupt) Error() string {
	if err.Line > 0 {
		return fmt.Sprintf("manifest %q corrupt at line %d: %s", err.Path, err.Line, err.Err)
	}
	return fmt.Sprintf("manifest %q corrupt: %s", err.Path, err.Err)
}

func (err ManifestCorrupt) Unwrap() error { return err.Err }

// TransportFailure is returned when a transfer doesn't complete. For local
// transfers Err is the first per-file error and Failed counts every file that
// wasn't copied. Remote sessions fail as a whole, so Failed is the size of
// the transfer.
type TransportFailure struct {
	Transport string
	Failed    int
	Err       error
}

func (err TransportFailure) Error() string {
	return fmt.Sprintf("%s transfer failed (%d files): %s", err.Transport, err.Failed, err.Err)
}

func (err TransportFailure) Unwrap() error { return err.Err }

// NotifyFailure is returned when the sync listener couldn't be reached. It
// never affects the exit status.
type NotifyFailure struct {
	Endpoint string
	Err      error
}

func (err NotifyFailure) Error() string {
	return fmt.Sprintf("notify %s: %s", err.Endpoint, err.Err)
}

func (err NotifyFailure) Unwrap() error { return err.Err }
