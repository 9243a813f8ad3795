package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jack-x/worklog/cmd/worklog/cli/paths"
)

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(paths.HomeEnvVar, t.TempDir())

	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.HighWaterMarks) != 0 {
		t.Errorf("expected empty state, got %v", s.HighWaterMarks)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv(paths.HomeEnvVar, home)
	if err := os.WriteFile(filepath.Join(home, paths.StateFileName), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv(paths.HomeEnvVar, filepath.Join(t.TempDir(), "nested", "home"))

	s := &State{HighWaterMarks: map[string]string{}}
	mark := time.Date(2025, 1, 22, 11, 0, 0, 0, time.UTC)
	s.Advance("/home/u/portfolio", mark)
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Marks()["/home/u/portfolio"]; !got.Equal(mark) {
		t.Errorf("mark = %v, want %v", got, mark)
	}
}

func TestAdvance_Monotonic(t *testing.T) {
	s := &State{HighWaterMarks: map[string]string{}}
	newer := time.Date(2025, 1, 22, 12, 0, 0, 0, time.UTC)
	older := time.Date(2025, 1, 22, 11, 0, 0, 0, time.UTC)

	s.Advance("/p", newer)
	s.Advance("/p", older)

	if got := s.Marks()["/p"]; !got.Equal(newer) {
		t.Errorf("mark moved backward: %v", got)
	}

	s.Advance("/p", time.Time{})
	if got := s.Marks()["/p"]; !got.Equal(newer) {
		t.Errorf("zero time must not change the mark: %v", got)
	}
}

func TestMarks_UnparsableTimestamp(t *testing.T) {
	s := &State{HighWaterMarks: map[string]string{"/p": "not-a-time"}}
	if got := s.Marks()["/p"]; !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
