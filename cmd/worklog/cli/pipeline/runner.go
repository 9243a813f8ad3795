package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jack-x/worklog/cmd/worklog/cli/claudecode"
	"github.com/jack-x/worklog/cmd/worklog/cli/logging"
)

// BatchResult is the outcome of one batch run.
type BatchResult struct {
	Results []ProcessResult

	// MaxModified holds, per project path, the greatest modified
	// timestamp among the sessions the batch attempted, published or not.
	// The caller advances its high-water marks from this map only after
	// an orderly completion.
	MaxModified map[string]time.Time
}

// SelectEntries scans every project in the store and returns the eligible
// entries whose modified timestamp is strictly past the project's high-water
// mark, sorted by modified ascending across projects. A project whose index
// cannot be read or parsed contributes no sessions; the scan continues with
// the other projects.
func SelectEntries(ctx context.Context, store *claudecode.Store, marks map[string]time.Time) ([]claudecode.IndexEntry, error) {
	projects, err := store.ListProjects()
	if err != nil {
		return nil, err
	}

	var selected []claudecode.IndexEntry
	for _, project := range projects {
		index, err := store.ReadSessionsIndex(project)
		if err != nil {
			logging.Warn(ctx, "skipping project with unreadable index",
				"project", project,
				"error", err)
			continue
		}
		if index == nil {
			continue
		}

		mark := marks[project]
		for _, entry := range index.Entries {
			if !claudecode.Eligible(entry) {
				continue
			}
			if !entry.ModifiedTime().After(mark) {
				continue
			}
			selected = append(selected, entry)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].ModifiedTime().Before(selected[j].ModifiedTime())
	})
	return selected, nil
}

// Run processes the selected entries over a pool of cfg.Workers workers.
// Each worker runs one session to completion before taking the next.
// Cancellation stops dispatch; in-flight sessions finish or abort at their
// next blocking stage. MaxModified is written after all workers drain.
func Run(ctx context.Context, cfg Config, entries []claudecode.IndexEntry) BatchResult {
	results := make([]ProcessResult, len(entries))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < cfg.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = ProcessSession(ctx, cfg, entries[i])
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range entries {
		select {
		case jobs <- i:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if dispatched < len(entries) {
		logging.Warn(ctx, "batch cancelled",
			"dispatched", dispatched,
			"selected", len(entries))
	}

	// Indices are dispatched in order, so exactly the first `dispatched`
	// entries have results.
	batch := BatchResult{MaxModified: make(map[string]time.Time)}
	for i := 0; i < dispatched; i++ {
		batch.Results = append(batch.Results, results[i])

		project := entries[i].ProjectPath
		if modified := entries[i].ModifiedTime(); modified.After(batch.MaxModified[project]) {
			batch.MaxModified[project] = modified
		}
	}
	return batch
}
