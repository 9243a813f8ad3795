package paths

import (
	"path/filepath"
	"testing"
)

func TestEncodeProjectPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain path", "/home/u/portfolio", "-home-u-portfolio"},
		{"dots become dashes", "/home/u.name/workspace", "-home-u-name-workspace"},
		{"trailing segment with dot", "/srv/app.v2", "-srv-app-v2"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeProjectPath(tt.in); got != tt.want {
				t.Errorf("EncodeProjectPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeProjectPath_Stable(t *testing.T) {
	// Distinct inputs may collide; the same input never varies.
	a := EncodeProjectPath("/home/u.name/workspace")
	b := EncodeProjectPath("/home/u/name/workspace")
	if a != b {
		t.Fatalf("expected lossy collision, got %q and %q", a, b)
	}
	if EncodeProjectPath("/home/u.name/workspace") != a {
		t.Error("encoding is not deterministic")
	}
}

func TestProjectDir(t *testing.T) {
	got := ProjectDir("/base", "/home/u/portfolio")
	want := filepath.Join("/base", "-home-u-portfolio")
	if got != want {
		t.Errorf("ProjectDir() = %q, want %q", got, want)
	}
}

func TestHome_EnvOverride(t *testing.T) {
	t.Setenv(HomeEnvVar, "/tmp/worklog-test-home")
	got, err := Home()
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	if got != "/tmp/worklog-test-home" {
		t.Errorf("Home() = %q, want override", got)
	}
}

func TestStateFile_UnderHome(t *testing.T) {
	t.Setenv(HomeEnvVar, "/tmp/worklog-test-home")
	got, err := StateFile()
	if err != nil {
		t.Fatalf("StateFile() error = %v", err)
	}
	want := filepath.Join("/tmp/worklog-test-home", StateFileName)
	if got != want {
		t.Errorf("StateFile() = %q, want %q", got, want)
	}
}
