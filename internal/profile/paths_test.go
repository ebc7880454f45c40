package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".noor", "profiles", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestStorePath(t *testing.T) {
	got := StorePath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "store.db")) {
		t.Errorf("StorePath(test) = %q, want suffix profiles/test/store.db", got)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "LOCK")) {
		t.Errorf("LockPath(test) = %q, want suffix profiles/test/LOCK", got)
	}
}

func TestLogPath(t *testing.T) {
	got := LogPath("test")
	if !strings.HasSuffix(got, filepath.Join("logs", "noord.log")) {
		t.Errorf("LogPath(test) = %q, want suffix logs/noord.log", got)
	}
}
