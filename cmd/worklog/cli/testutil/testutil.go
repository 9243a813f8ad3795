// Package testutil provides helpers for building throwaway session stores
// and git repositories in tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jack-x/worklog/cmd/worklog/cli/paths"
)

// Session describes one fixture session to write into a store.
type Session struct {
	ID           string
	Lines        []string
	MessageCount int
	Created      string
	Modified     string
	Summary      string
	GitBranch    string
	IsSidechain  bool
}

// UserLine renders one user record as a JSONL line.
func UserLine(ts, content string) string {
	return recordLine("user", ts, content)
}

// AssistantLine renders one assistant record as a JSONL line.
func AssistantLine(ts, content string) string {
	return recordLine("assistant", ts, content)
}

func recordLine(recordType, ts, content string) string {
	line, err := json.Marshal(map[string]any{
		"type":      recordType,
		"timestamp": ts,
		"message":   map[string]any{"content": content},
	})
	if err != nil {
		panic(err)
	}
	return string(line)
}

// WriteStore writes a project directory with a sessions index and one
// transcript file per session under base, mimicking the claude-code layout.
func WriteStore(t *testing.T, base, projectPath string, sessions ...Session) {
	t.Helper()

	dir := paths.ProjectDir(base, projectPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	entries := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		fullPath := filepath.Join(dir, s.ID+".jsonl")
		var data []byte
		for _, line := range s.Lines {
			data = append(data, line...)
			data = append(data, '\n')
		}
		if err := os.WriteFile(fullPath, data, 0o644); err != nil {
			t.Fatal(err)
		}

		entries = append(entries, map[string]any{
			"sessionId":    s.ID,
			"fullPath":     fullPath,
			"messageCount": s.MessageCount,
			"created":      s.Created,
			"modified":     s.Modified,
			"summary":      s.Summary,
			"gitBranch":    s.GitBranch,
			"projectPath":  projectPath,
			"isSidechain":  s.IsSidechain,
		})
	}

	index := map[string]any{
		"version":      1,
		"entries":      entries,
		"originalPath": projectPath,
	}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, paths.SessionsIndexFileName), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// InitGitRepo initializes a git repository at dir with a single commit so
// worktree discovery has something real to find.
func InitGitRepo(t *testing.T, dir string) {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("fixture\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
}

// ConversationLines renders n alternating user/assistant lines with
// distinct timestamps, enough to clear eligibility thresholds.
func ConversationLines(n int) []string {
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ts := fmt.Sprintf("2025-01-22T10:%02d:00Z", i)
		if i%2 == 0 {
			lines = append(lines, UserLine(ts, fmt.Sprintf("user message %d", i)))
		} else {
			lines = append(lines, AssistantLine(ts, fmt.Sprintf("assistant reply %d", i)))
		}
	}
	return lines
}
