// Package installer resolves the external rendering tool to a local
// executable: version resolution (including the "latest" sentinel), a
// version-addressed cache, and download/extraction of release archives.
package installer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docsmith/renderci/internal/config"
	rcerrors "github.com/docsmith/renderci/internal/errors"
	"github.com/docsmith/renderci/internal/logfields"
	"github.com/docsmith/renderci/internal/metrics"
	"github.com/docsmith/renderci/internal/platform"
	"github.com/docsmith/renderci/internal/retry"
)

// FallbackVersion is used when the "latest" metadata query fails. It must
// track a release that is known to exist for every supported target.
const FallbackVersion = "v0.9.4"

// Installer fetches and caches tool binaries for one target platform.
type Installer struct {
	org    string
	tool   string
	target platform.Target

	cacheDir        string
	releasesBaseURL string
	apiBaseURL      string

	client   *http.Client
	policy   retry.Policy
	recorder metrics.Recorder
}

// New creates an installer from a validated config.
func New(cfg *config.Config, target platform.Target) (*Installer, error) {
	cacheDir := cfg.Install.CacheDir
	if cacheDir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return nil, rcerrors.Wrap(err, rcerrors.CategoryFileSystem, rcerrors.SeverityFatal, "cannot determine cache directory")
		}
		cacheDir = filepath.Join(userCache, "renderci")
	}
	host := cfg.Install.ReleasesHost
	return &Installer{
		org:             cfg.Install.Org,
		tool:            cfg.Install.Tool,
		target:          target,
		cacheDir:        cacheDir,
		releasesBaseURL: "https://" + host,
		apiBaseURL:      "https://api." + host,
		client:          &http.Client{Timeout: 60 * time.Second},
		policy:          retry.FromInstallConfig(cfg),
		recorder:        metrics.NoopRecorder{},
	}, nil
}

// SetRecorder injects a metrics recorder (optional).
func (i *Installer) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	i.recorder = r
}

// WithBaseURLs overrides the release download and metadata API endpoints.
func (i *Installer) WithBaseURLs(releases, api string) *Installer {
	if releases != "" {
		i.releasesBaseURL = releases
	}
	if api != "" {
		i.apiBaseURL = api
	}
	return i
}

// EnsureTool returns the local executable path for the requested version,
// resolving "latest", consulting the cache and downloading on a miss.
func (i *Installer) EnsureTool(ctx context.Context, version string) (string, error) {
	start := time.Now()

	resolved, err := i.ResolveVersion(ctx, version)
	if err != nil {
		return "", err
	}

	binPath := i.BinaryPath(resolved)
	if fileExists(binPath) {
		i.recorder.ObserveInstallDuration(time.Since(start), true)
		slog.Info("tool found in cache",
			logfields.Tool(i.tool),
			logfields.ToolVersion(resolved),
			logfields.Path(binPath))
		return binPath, nil
	}

	if err := i.download(ctx, resolved, binPath); err != nil {
		return "", err
	}
	i.recorder.ObserveInstallDuration(time.Since(start), false)

	slog.Info("tool installed",
		logfields.Tool(i.tool),
		logfields.ToolVersion(resolved),
		logfields.Path(binPath))
	return binPath, nil
}

// ResolveVersion maps the "latest" sentinel (or empty string) onto a concrete
// release version via the metadata API. A failing query degrades to
// FallbackVersion with a warning; it is never fatal. Explicit versions pass
// through with the v prefix normalized.
func (i *Installer) ResolveVersion(ctx context.Context, version string) (string, error) {
	version = strings.TrimSpace(version)
	if version != "" && version != "latest" {
		return ensureVPrefix(version), nil
	}

	resolved, err := i.queryLatest(ctx)
	if err != nil {
		slog.Warn("latest version lookup failed, using fallback",
			logfields.Tool(i.tool),
			logfields.ToolVersion(FallbackVersion),
			logfields.Error(err))
		return FallbackVersion, nil
	}
	slog.Debug("resolved latest version", logfields.Tool(i.tool), logfields.ToolVersion(resolved))
	return resolved, nil
}

func (i *Installer) queryLatest(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", i.apiBaseURL, i.org, i.tool)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "renderci")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpStatusError{status: resp.StatusCode, url: url}
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	if release.TagName == "" {
		return "", fmt.Errorf("release metadata missing tag_name")
	}
	return ensureVPrefix(release.TagName), nil
}

// BinaryPath returns the cache location for a resolved version:
// <cache>/<tool>/<version>/<os>-<arch>/<tool><exe>.
func (i *Installer) BinaryPath(version string) string {
	return filepath.Join(i.cacheDir, i.tool, version, i.target.String(), i.tool+i.target.ExeSuffix())
}

// ArchiveName returns the release asset name for a resolved version:
// <tool>_<versionNoVPrefix>_<os>_<arch>.tar.gz.
func (i *Installer) ArchiveName(version string) string {
	return fmt.Sprintf("%s_%s_%s.tar.gz", i.tool, strings.TrimPrefix(version, "v"), i.target.ArchiveSegment())
}

func (i *Installer) downloadURL(version string) string {
	return fmt.Sprintf("%s/%s/%s/releases/download/%s/%s",
		i.releasesBaseURL, i.org, i.tool, version, i.ArchiveName(version))
}

// download fetches the release archive and populates the cache. Transient
// failures are retried per the configured policy; missing releases and
// authorization failures are permanent.
func (i *Installer) download(ctx context.Context, version, binPath string) error {
	url := i.downloadURL(version)
	slog.Info("downloading tool",
		logfields.Tool(i.tool),
		logfields.ToolVersion(version),
		logfields.URL(url))

	attempts := 0
	err := retry.Do(ctx, i.policy, "tool download", isPermanentDownloadError, func() error {
		if attempts > 0 {
			i.recorder.IncInstallRetry()
		}
		attempts++
		return i.fetchAndExtract(ctx, url, binPath)
	})
	if err != nil {
		return rcerrors.DownloadFailed(url, err)
	}
	return nil
}

func (i *Installer) fetchAndExtract(ctx context.Context, url, binPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "renderci")

	resp, err := i.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{status: resp.StatusCode, url: url}
	}

	executable := i.target.OS != "windows"
	return extractBinary(resp.Body, i.tool+i.target.ExeSuffix(), binPath, executable)
}

// httpStatusError carries the status code so the retry classifier can
// distinguish missing releases from transient server failures.
type httpStatusError struct {
	status int
	url    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.status, e.url)
}

func isPermanentDownloadError(err error) bool {
	var se *httpStatusError
	if errors.As(err, &se) {
		switch se.status {
		case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden, http.StatusGone:
			return true
		}
	}
	return false
}

func ensureVPrefix(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
