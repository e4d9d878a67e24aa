package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	manifestCmd "github.com/sidkik/artsync/cmd/manifest"
	syncCmd "github.com/sidkik/artsync/cmd/sync"
	"github.com/sidkik/artsync/cmd/util"
	"github.com/sidkik/artsync/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "ARTSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	if err := newRootCommand().Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "artsync",
		Short:        "Build a cargo project and sync only the artifacts that changed.",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		manifestCmd.New(),
		syncCmd.New(),
		version.New(),
	)
	return rootCmd
}
