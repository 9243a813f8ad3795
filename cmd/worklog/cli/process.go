package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jack-x/worklog/cmd/worklog/cli/claudecode"
	"github.com/jack-x/worklog/cmd/worklog/cli/logging"
	"github.com/jack-x/worklog/cmd/worklog/cli/paths"
	"github.com/jack-x/worklog/cmd/worklog/cli/pipeline"
)

func newProcessCmd() *cobra.Command {
	var projectPath string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Publish a single session",
		Long: `Process one session end-to-end and publish it, regardless of high-water
marks. Defaults to the latest eligible session of the project enclosing
the current directory. Republishing is safe; the content store upserts
by path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadPipelineConfig()
			if err != nil {
				return err
			}

			if projectPath == "" {
				projectPath, err = paths.RepoRoot()
				if err != nil {
					return fmt.Errorf("no --project given and %w", err)
				}
			}

			entry, err := resolveEntry(cfg.Store, projectPath, sessionID)
			if err != nil {
				return err
			}

			batchID := time.Now().UTC().Format("20060102-150405")
			if err := logging.Init(batchID); err != nil {
				return err
			}
			defer logging.Close()

			result := pipeline.ProcessSession(cmd.Context(), cfg, *entry)

			if !result.Published {
				recordOutcome(0, 1)
				fmt.Printf("Session %s was not published: %s\n", result.SessionID, result.SkippedReason)
				return NewSilentError(errors.New(result.SkippedReason))
			}

			recordOutcome(1, 0)
			marker := ""
			if result.IsSignificant {
				marker = " (significant)"
			}
			fmt.Printf("Published %s%s: %s\n", result.SessionID, marker, result.Summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project path (defaults to the enclosing git repository)")
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID or unique prefix (defaults to the latest eligible session)")
	return cmd
}

// resolveEntry finds the index entry to process. An empty sessionID picks
// the project's latest eligible session.
func resolveEntry(store *claudecode.Store, projectPath, sessionID string) (*claudecode.IndexEntry, error) {
	if sessionID == "" {
		entry, err := store.LatestSession(projectPath)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, fmt.Errorf("no eligible sessions found for %s", projectPath)
		}
		return entry, nil
	}

	entry, err := store.SessionByID(projectPath, sessionID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("session %q not found in %s (or the prefix is ambiguous)", sessionID, projectPath)
	}
	return entry, nil
}
