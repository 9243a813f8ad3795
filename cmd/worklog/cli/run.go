package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jack-x/worklog/cmd/worklog/cli/claudecode"
	"github.com/jack-x/worklog/cmd/worklog/cli/enrich"
	"github.com/jack-x/worklog/cmd/worklog/cli/logging"
	"github.com/jack-x/worklog/cmd/worklog/cli/memory"
	"github.com/jack-x/worklog/cmd/worklog/cli/pipeline"
	"github.com/jack-x/worklog/cmd/worklog/cli/sanitize"
	"github.com/jack-x/worklog/cmd/worklog/cli/settings"
	"github.com/jack-x/worklog/cmd/worklog/cli/state"
)

func newRunCmd() *cobra.Command {
	var workers int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Publish all unprocessed sessions across projects",
		Long: `Scan every project in the session store, select eligible sessions newer
than each project's high-water mark, and process them with a bounded
worker pool. The high-water marks advance only when the batch completes
without cancellation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadPipelineConfig()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}

			batchID := time.Now().UTC().Format("20060102-150405")
			if err := logging.Init(batchID); err != nil {
				return err
			}
			defer logging.Close()

			ctx := cmd.Context()

			batchState, err := state.Load()
			if err != nil {
				return err
			}

			selected, err := pipeline.SelectEntries(ctx, cfg.Store, batchState.Marks())
			if err != nil {
				return fmt.Errorf("selecting sessions: %w", err)
			}
			if len(selected) == 0 {
				fmt.Println("Nothing to publish; all sessions are up to date.")
				return nil
			}

			if dryRun {
				fmt.Printf("Would process %d session(s):\n", len(selected))
				for _, entry := range selected {
					fmt.Printf("  %s  %s  %s\n", entry.Modified, entry.SessionID, entry.ProjectPath)
				}
				return nil
			}

			logging.Info(ctx, "batch started", "selected", len(selected), "workers", cfg.Workers)
			batch := pipeline.Run(ctx, cfg, selected)

			printBatchSummary(batch.Results)

			published, skipped := countResults(batch.Results)
			recordOutcome(published, skipped)
			logging.Info(ctx, "batch finished", "published", published, "skipped", skipped)

			// Marks only move on orderly completion; a cancelled batch
			// reprocesses its tail next time.
			if ctx.Err() == nil {
				for project, modified := range batch.MaxModified {
					batchState.Advance(project, modified)
				}
				if err := batchState.Save(); err != nil {
					return fmt.Errorf("saving high-water marks: %w", err)
				}
			}
			return ctx.Err()
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (overrides settings)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the sessions that would be processed, then exit")
	return cmd
}

// loadPipelineConfig builds the batch collaborators from validated settings.
func loadPipelineConfig() (pipeline.Config, error) {
	s, err := settings.Load()
	if err != nil {
		return pipeline.Config{}, err
	}
	if err := s.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration is incomplete:\n%v\n", err)
		return pipeline.Config{}, NewSilentError(err)
	}

	return pipeline.Config{
		Store: claudecode.NewStore(s.SessionPaths.ClaudeCode),
		Generator: enrich.NewGatewayGenerator(
			s.Enrichment.APIKey,
			s.Enrichment.BaseURL,
			s.Enrichment.Model,
		),
		Publisher: memory.NewClient(s.Memory.URL, s.Memory.APIKey),
		Sanitize: sanitize.Config{
			BlockedProjects: s.Sanitization.BlockedProjects,
			BlockedPaths:    s.Sanitization.BlockedPaths,
			BlockedDomains:  s.Sanitization.BlockedDomains,
			RedactedTerms:   s.Sanitization.RedactedTerms,
		},
		Workers: s.Concurrency.Workers,
	}, nil
}

func countResults(results []pipeline.ProcessResult) (published, skipped int) {
	for _, r := range results {
		if r.Published {
			published++
		} else {
			skipped++
		}
	}
	return published, skipped
}

// printBatchSummary writes per-session outcomes. On a terminal it prints an
// aligned table; when piped it prints one plain line per session.
func printBatchSummary(results []pipeline.ProcessResult) {
	published, skipped := countResults(results)
	fmt.Printf("Processed %d session(s): %d published, %d skipped\n", len(results), published, skipped)

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	for _, r := range results {
		status := "skipped"
		detail := r.SkippedReason
		if r.Published {
			status = "published"
			detail = r.Summary
			if r.IsSignificant {
				status = "published*"
			}
		}
		if isTTY {
			fmt.Printf("  %-10s  %-12.12s  %-20.20s  %s\n", status, r.SessionID, r.Project, detail)
		} else {
			fmt.Printf("%s\t%s\t%s\t%s\n", status, r.SessionID, r.Project, detail)
		}
	}
}
