// Package paths centralizes filesystem locations for the worklog pipeline:
// the worklog home directory, the claude-code session store, and the
// encoding between project paths and session store directory names.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Worklog home layout, rooted at ~/.worklog unless WORKLOG_HOME overrides it.
const (
	// HomeEnvVar overrides the worklog home directory (used by tests).
	HomeEnvVar = "WORKLOG_HOME"

	SettingsFileName      = "settings.json"
	SettingsLocalFileName = "settings.local.json"
	StateFileName         = "state.json"
	LogsDirName           = "logs"
)

// SessionsIndexFileName is the per-project index file written by the
// claude-code session store. Read-only to the pipeline.
const SessionsIndexFileName = "sessions-index.json"

// Home returns the worklog home directory, creating nothing.
func Home() (string, error) {
	if override := os.Getenv(HomeEnvVar); override != "" {
		return override, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".worklog"), nil
}

// SettingsFile returns the path of the primary settings file.
func SettingsFile() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, SettingsFileName), nil
}

// SettingsLocalFile returns the path of the local settings override file.
func SettingsLocalFile() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, SettingsLocalFileName), nil
}

// StateFile returns the path of the high-water-mark state file.
func StateFile() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, StateFileName), nil
}

// LogsDir returns the directory where batch logs are written.
func LogsDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LogsDirName), nil
}

// DefaultSessionBase returns the default claude-code session store location.
func DefaultSessionBase() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude", "projects"), nil
}

// EncodeProjectPath converts a project path to the session store's directory
// name by replacing every '/' and '.' with '-'. The mapping is lossy but
// stable; the index file's originalPath is the source of truth for listing.
// Example: /home/u.name/workspace -> -home-u-name-workspace
func EncodeProjectPath(projectPath string) string {
	replacer := strings.NewReplacer("/", "-", ".", "-")
	return replacer.Replace(projectPath)
}

// ProjectDir returns the session store directory for a project path.
func ProjectDir(base, projectPath string) string {
	return filepath.Join(base, EncodeProjectPath(projectPath))
}

// RepoRoot returns the root of the git repository enclosing the current
// working directory. Used by `worklog process` to default the project path.
func RepoRoot() (string, error) {
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to resolve worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}
