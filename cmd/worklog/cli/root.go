package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jack-x/worklog/cmd/worklog/cli/logging"
	"github.com/jack-x/worklog/cmd/worklog/cli/settings"
	"github.com/jack-x/worklog/cmd/worklog/cli/telemetry"
)

const gettingStarted = `

Getting Started:
  Create ~/.worklog/settings.json with your content store URL and API keys,
  then run 'worklog doctor' to verify the setup and 'worklog run' to publish
  your recent sessions.

`

// Version information (can be set at build time)
var (
	Version = "dev"
	Commit  = "unknown"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worklog",
		Short: "Worklog CLI",
		Long:  "Publish coding-session worklogs to your memory store" + gettingStarted,
		// Let main.go handle error printing to avoid duplication
		SilenceErrors: true,
		// Hide completion command from help but keep it functional
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.SetLogLevelGetter(func() string {
				s, err := settings.Load()
				if err != nil {
					return ""
				}
				return s.LogLevel
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			// Load telemetry preference from settings (ignore errors - nil defaults to disabled)
			var telemetryEnabled *bool
			if s, err := settings.Load(); err == nil {
				telemetryEnabled = s.Telemetry
			}

			telemetryClient := telemetry.NewClient(Version, telemetryEnabled)
			defer telemetryClient.Close()
			telemetryClient.TrackCommand(cmd, lastOutcome.published, lastOutcome.skipped)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newProjectsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// lastOutcome holds the batch counts recorded by run/process for the
// telemetry hook. Commands run one at a time, so a package var suffices.
var lastOutcome struct {
	published int
	skipped   int
}

func recordOutcome(published, skipped int) {
	lastOutcome.published = published
	lastOutcome.skipped = skipped
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("Worklog CLI %s (%s)\n", Version, Commit)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
