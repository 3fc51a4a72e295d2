package platform

import (
	"testing"

	rcerrors "github.com/docsmith/renderci/internal/errors"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		goos, goarch string
		want         Target
		wantErr      bool
	}{
		{"linux", "amd64", Target{OS: "linux", Arch: "amd64"}, false},
		{"linux", "arm64", Target{OS: "linux", Arch: "arm64"}, false},
		{"darwin", "arm64", Target{OS: "darwin", Arch: "arm64"}, false},
		{"windows", "amd64", Target{OS: "windows", Arch: "amd64"}, false},
		{"win32", "x64", Target{OS: "windows", Arch: "amd64"}, false},
		{"macos", "x86_64", Target{OS: "darwin", Arch: "amd64"}, false},
		{"freebsd", "amd64", Target{}, true},
		{"linux", "386", Target{}, true},
		{"plan9", "mips", Target{}, true},
		{"", "", Target{}, true},
	}

	for _, tc := range cases {
		got, err := Resolve(tc.goos, tc.goarch)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Resolve(%q, %q): expected error, got %+v", tc.goos, tc.goarch, got)
				continue
			}
			if !rcerrors.IsCategory(err, rcerrors.CategoryPlatform) {
				t.Errorf("Resolve(%q, %q): error category = %v, want platform", tc.goos, tc.goarch, rcerrors.GetCategory(err))
			}
			continue
		}
		if err != nil {
			t.Errorf("Resolve(%q, %q): unexpected error: %v", tc.goos, tc.goarch, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Resolve(%q, %q) = %+v, want %+v", tc.goos, tc.goarch, got, tc.want)
		}
	}
}

func TestTargetHelpers(t *testing.T) {
	linux := Target{OS: "linux", Arch: "amd64"}
	if linux.ExeSuffix() != "" {
		t.Errorf("linux ExeSuffix = %q, want empty", linux.ExeSuffix())
	}
	if linux.String() != "linux-amd64" {
		t.Errorf("String = %q", linux.String())
	}
	if linux.ArchiveSegment() != "linux_amd64" {
		t.Errorf("ArchiveSegment = %q", linux.ArchiveSegment())
	}

	win := Target{OS: "windows", Arch: "arm64"}
	if win.ExeSuffix() != ".exe" {
		t.Errorf("windows ExeSuffix = %q, want .exe", win.ExeSuffix())
	}
}

func TestCurrentSupported(t *testing.T) {
	// CI and developer machines are all inside the support matrix.
	if _, err := Current(); err != nil {
		t.Fatalf("Current(): %v", err)
	}
}
