package claudecode

import "time"

// SessionsIndex is the per-project index file written by the claude-code
// CLI. The pipeline never writes it.
type SessionsIndex struct {
	Version int `json:"version"`

	Entries []IndexEntry `json:"entries"`

	// OriginalPath identifies the canonical project the entries belong
	// to. The directory name is a lossy encoding; this field is the
	// source of truth.
	OriginalPath string `json:"originalPath"`
}

// IndexEntry is one row of a sessions index.
type IndexEntry struct {
	SessionID    string `json:"sessionId"`
	FullPath     string `json:"fullPath"`
	FileMtime    int64  `json:"fileMtime"`
	FirstPrompt  string `json:"firstPrompt"`
	Summary      string `json:"summary"`
	MessageCount int    `json:"messageCount"`
	Created      string `json:"created"`
	Modified     string `json:"modified"`
	GitBranch    string `json:"gitBranch"`
	ProjectPath  string `json:"projectPath"`
	IsSidechain  bool   `json:"isSidechain"`
}

// ModifiedTime parses the entry's modified timestamp.
// Returns the zero time if absent or unparsable.
func (e IndexEntry) ModifiedTime() time.Time {
	return parseISOTime(e.Modified)
}

// CreatedTime parses the entry's created timestamp.
func (e IndexEntry) CreatedTime() time.Time {
	return parseISOTime(e.Created)
}

func parseISOTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
