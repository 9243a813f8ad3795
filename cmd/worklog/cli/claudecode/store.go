// Package claudecode reads the on-disk session store written by the
// claude-code CLI: one directory per project under a base directory, each
// holding a sessions-index.json and per-session JSONL transcript files.
// The store is read-only to this package; the CLI appends to it.
package claudecode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jack-x/worklog/cmd/worklog/cli/paths"
	"github.com/jack-x/worklog/cmd/worklog/cli/transcript"
)

// AgentSessionPrefix marks sub-agent sessions, which never represent
// top-level engineering work.
const AgentSessionPrefix = "agent-"

// MinMessageCount is the smallest session worth considering. Below this a
// session is almost always an aborted or one-shot interaction.
const MinMessageCount = 5

// Store reads one claude-code session store.
type Store struct {
	// Base is the root of the session store (e.g. ~/.claude/projects).
	Base string
}

// NewStore returns a store rooted at base.
func NewStore(base string) *Store {
	return &Store{Base: base}
}

// ListProjects enumerates the project paths known to the store. A
// subdirectory is a project iff its sessions-index.json is readable, valid
// JSON, and carries an originalPath; anything else is skipped silently
// (partial writes by the CLI are expected).
func (s *Store) ListProjects() ([]string, error) {
	dirEntries, err := os.ReadDir(s.Base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list session store %s: %w", s.Base, err)
	}

	var projects []string
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		indexPath := filepath.Join(s.Base, de.Name(), paths.SessionsIndexFileName)
		data, err := os.ReadFile(indexPath) //nolint:gosec // path is under the configured base
		if err != nil {
			continue
		}
		if !gjson.ValidBytes(data) {
			continue
		}
		originalPath := gjson.GetBytes(data, "originalPath").Str
		if originalPath == "" {
			continue
		}
		projects = append(projects, originalPath)
	}
	return projects, nil
}

// ReadSessionsIndex reads the index for a project. Returns (nil, nil) when
// the index file does not exist; any other I/O or parse error propagates.
func (s *Store) ReadSessionsIndex(projectPath string) (*SessionsIndex, error) {
	indexPath := filepath.Join(paths.ProjectDir(s.Base, projectPath), paths.SessionsIndexFileName)
	data, err := os.ReadFile(indexPath) //nolint:gosec // path is under the configured base
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sessions index for %s: %w", projectPath, err)
	}

	var index SessionsIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse sessions index for %s: %w", projectPath, err)
	}
	return &index, nil
}

// LatestSession returns the eligible entry with the greatest modified
// timestamp, or nil if the project has no eligible sessions.
func (s *Store) LatestSession(projectPath string) (*IndexEntry, error) {
	index, err := s.ReadSessionsIndex(projectPath)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, nil
	}

	var latest *IndexEntry
	for i := range index.Entries {
		entry := &index.Entries[i]
		if !Eligible(*entry) {
			continue
		}
		if latest == nil || entry.ModifiedTime().After(latest.ModifiedTime()) {
			latest = entry
		}
	}
	return latest, nil
}

// SessionByID resolves a session by exact ID, falling back to a unique
// strict-prefix match. An ambiguous prefix (two or more candidates)
// resolves to nil.
func (s *Store) SessionByID(projectPath, id string) (*IndexEntry, error) {
	index, err := s.ReadSessionsIndex(projectPath)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, nil
	}

	for i := range index.Entries {
		if index.Entries[i].SessionID == id {
			return &index.Entries[i], nil
		}
	}

	var match *IndexEntry
	for i := range index.Entries {
		entry := &index.Entries[i]
		if entry.SessionID != id && strings.HasPrefix(entry.SessionID, id) {
			if match != nil {
				return nil, nil // ambiguous
			}
			match = entry
		}
	}
	return match, nil
}

// ReadSessionRecords reads and parses the JSONL transcript behind an index
// entry. A malformed line is fatal for the file. The read runs off the
// calling goroutine so the context deadline is honored even when the
// filesystem stalls (network mounts).
func (s *Store) ReadSessionRecords(ctx context.Context, entry *IndexEntry) ([]transcript.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", entry.SessionID, err)
	}

	type readResult struct {
		data []byte
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		data, err := os.ReadFile(entry.FullPath) //nolint:gosec // path comes from the store's own index
		done <- readResult{data: data, err: err}
	}()

	var data []byte
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to read session %s: %w", entry.SessionID, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to read session %s: %w", entry.SessionID, res.err)
		}
		data = res.data
	}

	records, err := transcript.ParseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", entry.SessionID, err)
	}
	return records, nil
}

// Eligible reports whether an index entry represents a session worth
// processing: not a sidechain, not a sub-agent session, and long enough to
// contain real work.
func Eligible(entry IndexEntry) bool {
	if entry.IsSidechain {
		return false
	}
	if entry.MessageCount < MinMessageCount {
		return false
	}
	if strings.HasPrefix(entry.SessionID, AgentSessionPrefix) {
		return false
	}
	return true
}
