package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. It is
// called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the uwbmprep CLI and returns an error if any command fails.
//
// The root command carries the build, landuse, forcing and config
// subcommands. Logging defaults to info level on stderr; --verbose (-v)
// switches to debug. The logger is attached to the command context and
// retrieved by commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "uwbmprep",
		Short:        "uwbmprep prepares Urban Water Balance Model input",
		Long:         `uwbmprep builds the input of the Urban Water Balance Model from OpenStreetMap extracts and raw meteo data: a classified land-use map, the aggregated land-use table, a neighbourhood configuration file and model-ready forcing.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("uwbmprep %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newLanduseCmd())
	root.AddCommand(newForcingCmd())
	root.AddCommand(newConfigCmd())

	return root.ExecuteContext(ctx)
}
