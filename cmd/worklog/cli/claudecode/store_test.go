package claudecode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jack-x/worklog/cmd/worklog/cli/paths"
)

func writeIndex(t *testing.T, base, projectPath, content string) {
	t.Helper()
	dir := paths.ProjectDir(base, projectPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, paths.SessionsIndexFileName), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
}

func TestListProjects(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base)

	writeIndex(t, base, "/home/u/portfolio", `{"version":1,"entries":[],"originalPath":"/home/u/portfolio"}`)
	writeIndex(t, base, "/home/u/sensie", `{"version":1,"entries":[],"originalPath":"/home/u/sensie"}`)

	// Directory without an index file
	if err := os.MkdirAll(filepath.Join(base, "-home-u-empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Index without originalPath
	writeIndex(t, base, "/home/u/anon", `{"version":1,"entries":[]}`)
	// Unparsable index (partial write)
	writeIndex(t, base, "/home/u/torn", `{"version":1,"entries":[`)
	// Stray file at the top level
	if err := os.WriteFile(filepath.Join(base, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	projects, err := store.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d: %v", len(projects), projects)
	}

	seen := map[string]bool{}
	for _, p := range projects {
		seen[p] = true
	}
	if !seen["/home/u/portfolio"] || !seen["/home/u/sensie"] {
		t.Errorf("unexpected project set: %v", projects)
	}
}

func TestListProjects_MissingBase(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))
	projects, err := store.ListProjects()
	if err != nil {
		t.Fatalf("expected nil error for missing base, got %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("expected no projects, got %v", projects)
	}
}

func TestReadSessionsIndex_MissingIsNil(t *testing.T) {
	store := NewStore(t.TempDir())
	index, err := store.ReadSessionsIndex("/home/u/portfolio")
	if err != nil {
		t.Fatalf("expected nil error for missing index, got %v", err)
	}
	if index != nil {
		t.Errorf("expected nil index, got %+v", index)
	}
}

func TestReadSessionsIndex_MalformedIsError(t *testing.T) {
	base := t.TempDir()
	writeIndex(t, base, "/home/u/portfolio", `{broken`)

	_, err := NewStore(base).ReadSessionsIndex("/home/u/portfolio")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

const latestTestIndex = `{
	"version": 1,
	"originalPath": "/home/u/portfolio",
	"entries": [
		{"sessionId": "agent-sub-1", "messageCount": 20, "modified": "2025-01-22T12:00:00Z"},
		{"sessionId": "real", "messageCount": 6, "modified": "2025-01-22T11:00:00Z"},
		{"sessionId": "older", "messageCount": 10, "modified": "2025-01-21T09:00:00Z"},
		{"sessionId": "side", "messageCount": 30, "modified": "2025-01-22T13:00:00Z", "isSidechain": true},
		{"sessionId": "short", "messageCount": 4, "modified": "2025-01-22T14:00:00Z"}
	]
}`

func TestLatestSession_SkipsIneligible(t *testing.T) {
	base := t.TempDir()
	writeIndex(t, base, "/home/u/portfolio", latestTestIndex)

	entry, err := NewStore(base).LatestSession("/home/u/portfolio")
	if err != nil {
		t.Fatalf("LatestSession() error = %v", err)
	}
	if entry == nil {
		t.Fatal("expected an entry")
	}
	// agent-sub-1 is newest but agent-prefixed; side is a sidechain;
	// short is below the message threshold.
	if entry.SessionID != "real" {
		t.Errorf("LatestSession() = %q, want %q", entry.SessionID, "real")
	}
}

func TestLatestSession_NoneEligible(t *testing.T) {
	base := t.TempDir()
	writeIndex(t, base, "/home/u/portfolio", `{
		"version": 1,
		"originalPath": "/home/u/portfolio",
		"entries": [{"sessionId": "short", "messageCount": 2, "modified": "2025-01-22T14:00:00Z"}]
	}`)

	entry, err := NewStore(base).LatestSession("/home/u/portfolio")
	if err != nil {
		t.Fatalf("LatestSession() error = %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil, got %+v", entry)
	}
}

const prefixTestIndex = `{
	"version": 1,
	"originalPath": "/home/u/portfolio",
	"entries": [
		{"sessionId": "abc-123", "messageCount": 10},
		{"sessionId": "abc-456", "messageCount": 10},
		{"sessionId": "def-789", "messageCount": 10}
	]
}`

func TestSessionByID(t *testing.T) {
	base := t.TempDir()
	writeIndex(t, base, "/home/u/portfolio", prefixTestIndex)
	store := NewStore(base)

	t.Run("exact match", func(t *testing.T) {
		entry, err := store.SessionByID("/home/u/portfolio", "abc-123")
		if err != nil {
			t.Fatalf("error: %v", err)
		}
		if entry == nil || entry.SessionID != "abc-123" {
			t.Errorf("got %+v", entry)
		}
	})

	t.Run("unique prefix", func(t *testing.T) {
		entry, err := store.SessionByID("/home/u/portfolio", "def")
		if err != nil {
			t.Fatalf("error: %v", err)
		}
		if entry == nil || entry.SessionID != "def-789" {
			t.Errorf("got %+v", entry)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		entry, err := store.SessionByID("/home/u/portfolio", "abc")
		if err != nil {
			t.Fatalf("error: %v", err)
		}
		if entry != nil {
			t.Errorf("expected nil for ambiguous prefix, got %+v", entry)
		}
	})

	t.Run("no match", func(t *testing.T) {
		entry, err := store.SessionByID("/home/u/portfolio", "zzz")
		if err != nil {
			t.Fatalf("error: %v", err)
		}
		if entry != nil {
			t.Errorf("expected nil, got %+v", entry)
		}
	})
}

func TestReadSessionRecords(t *testing.T) {
	dir := t.TempDir()
	sessionFile := filepath.Join(dir, "s1.jsonl")
	content := `{"type":"user","uuid":"u1","message":{"content":"hello"}}
{"type":"assistant","uuid":"a1","message":{"content":"hi"}}
`
	if err := os.WriteFile(sessionFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	records, err := NewStore(dir).ReadSessionRecords(context.Background(), &IndexEntry{SessionID: "s1", FullPath: sessionFile})
	if err != nil {
		t.Fatalf("ReadSessionRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestReadSessionRecords_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := NewStore(dir).ReadSessionRecords(context.Background(), &IndexEntry{SessionID: "gone", FullPath: filepath.Join(dir, "gone.jsonl")})
	if err == nil {
		t.Fatal("expected error for missing session file")
	}
}

func TestReadSessionRecords_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	sessionFile := filepath.Join(dir, "s1.jsonl")
	if err := os.WriteFile(sessionFile, []byte(`{"type":"user","message":{"content":"hello"}}`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore(dir).ReadSessionRecords(ctx, &IndexEntry{SessionID: "s1", FullPath: sessionFile})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name  string
		entry IndexEntry
		want  bool
	}{
		{"normal session", IndexEntry{SessionID: "s", MessageCount: 10}, true},
		{"exactly at threshold", IndexEntry{SessionID: "s", MessageCount: 5}, true},
		{"one below threshold", IndexEntry{SessionID: "s", MessageCount: 4}, false},
		{"sidechain", IndexEntry{SessionID: "s", MessageCount: 10, IsSidechain: true}, false},
		{"agent session", IndexEntry{SessionID: "agent-sub-1", MessageCount: 20}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.entry); got != tt.want {
				t.Errorf("Eligible(%+v) = %v, want %v", tt.entry, got, tt.want)
			}
		})
	}
}
