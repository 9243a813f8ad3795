// Package state persists per-project high-water marks between batch runs.
// The file is written only by the batch runner, after all workers drain.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jack-x/worklog/cmd/worklog/cli/paths"
)

// State is the on-disk batch state.
type State struct {
	// HighWaterMarks maps project path to the RFC 3339 timestamp of the
	// newest session already attempted for that project.
	HighWaterMarks map[string]string `json:"highWaterMarks"`
}

// Load reads the state file. A missing file yields empty state; a corrupt
// file is an error, since silently resetting it would republish everything.
func Load() (*State, error) {
	path, err := paths.StateFile()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is under the worklog home
	if err != nil {
		if os.IsNotExist(err) {
			return &State{HighWaterMarks: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if s.HighWaterMarks == nil {
		s.HighWaterMarks = map[string]string{}
	}
	return &s, nil
}

// Save writes the state file, creating the worklog home if needed.
func (s *State) Save() error {
	path, err := paths.StateFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// Marks returns the parsed high-water marks. Unparsable timestamps read as
// the zero time, which reselects the project's sessions rather than losing
// them.
func (s *State) Marks() map[string]time.Time {
	marks := make(map[string]time.Time, len(s.HighWaterMarks))
	for project, raw := range s.HighWaterMarks {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			ts, _ = time.Parse(time.RFC3339, raw)
		}
		marks[project] = ts
	}
	return marks
}

// Advance moves a project's mark forward to ts. Marks never move backward.
func (s *State) Advance(project string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	current := s.Marks()[project]
	if ts.After(current) {
		s.HighWaterMarks[project] = ts.UTC().Format(time.RFC3339Nano)
	}
}
