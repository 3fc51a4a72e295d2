// Package platform maps the running (or requested) OS/architecture pair onto
// the naming scheme used by published tool archives. The mapping is total:
// every input either resolves to a supported target or fails with an
// unsupported-platform error, never a silent default.
package platform

import (
	"runtime"

	rcerrors "github.com/docsmith/renderci/internal/errors"
)

// Target identifies the OS/architecture pair a tool release is built for.
type Target struct {
	OS   string // linux, darwin, windows
	Arch string // amd64, arm64
}

// osNames maps accepted OS identifiers (Go names plus common aliases) onto
// release OS names.
var osNames = map[string]string{
	"linux":   "linux",
	"darwin":  "darwin",
	"macos":   "darwin",
	"windows": "windows",
	"win32":   "windows",
}

// archNames maps accepted architecture identifiers onto release arch names.
var archNames = map[string]string{
	"amd64":  "amd64",
	"x64":    "amd64",
	"x86_64": "amd64",
	"arm64":  "arm64",
}

// Resolve maps an OS/arch pair onto a release target.
func Resolve(goos, goarch string) (Target, error) {
	osName, ok := osNames[goos]
	if !ok {
		return Target{}, rcerrors.UnsupportedPlatform(goos, goarch)
	}
	archName, ok := archNames[goarch]
	if !ok {
		return Target{}, rcerrors.UnsupportedPlatform(goos, goarch)
	}
	return Target{OS: osName, Arch: archName}, nil
}

// Current resolves the target of the running process.
func Current() (Target, error) {
	return Resolve(runtime.GOOS, runtime.GOARCH)
}

// ExeSuffix returns the executable file suffix for the target.
func (t Target) ExeSuffix() string {
	if t.OS == "windows" {
		return ".exe"
	}
	return ""
}

// String returns "<os>-<arch>", used as a cache directory segment.
func (t Target) String() string {
	return t.OS + "-" + t.Arch
}

// ArchiveSegment returns "<os>_<arch>" as embedded in release archive names.
func (t Target) ArchiveSegment() string {
	return t.OS + "_" + t.Arch
}
