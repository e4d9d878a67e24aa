package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/artsync/pkg/errors"
)

// Mocked out for unit testing.
var exit = os.Exit

// HandleFatalError logs the error and exits. Friendly errors are printed as
// is. The full error is only shown when debug logging is enabled.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	log.Error(errors.GetPrintableMessage(err))
	exit(1)
}

// HandlePanic logs a panic along with its stack trace before exiting. It
// must be deferred.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).
			Error(fmt.Sprintf("Unexpected panic: %v", r))
		exit(1)
	}
}
