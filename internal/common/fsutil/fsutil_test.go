package fsutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	// Configure both env vars for cross-platform behavior of os.UserHomeDir.
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	cases := map[string]string{
		"":                    "",
		"/etc/livefeed.yaml":  "/etc/livefeed.yaml",
		"~":                   home,
		"~/cfg/livefeed.toml": filepath.Join(home, "cfg", "livefeed.toml"),
		"~bob/livefeed.yaml":  "~bob/livefeed.yaml",
	}
	for in, want := range cases {
		got, err := ExpandHome(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}
