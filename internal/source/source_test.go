package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/require"

	"github.com/docsmith/renderci/internal/config"
	rcerrors "github.com/docsmith/renderci/internal/errors"
)

// initRepo builds a local repository with one commit, committed on the
// default branch (master for PlainInit).
func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err = wt.Add(rel)
		require.NoError(t, err)
	}

	_, err = wt.Commit("initial docs", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestCheckoutClonesRepository(t *testing.T) {
	repoDir := initRepo(t, map[string]string{
		"docs/guide.md": "# Guide\n",
		"README.md":     "# Readme\n",
	})

	target := filepath.Join(t.TempDir(), "checkout")
	got, err := Checkout(context.Background(), &config.SourceConfig{URL: repoDir, Branch: "master"}, target)
	require.NoError(t, err)
	require.Equal(t, target, got)
	require.FileExists(t, filepath.Join(target, "docs", "guide.md"))
	require.FileExists(t, filepath.Join(target, "README.md"))
}

func TestCheckoutDefaultBranch(t *testing.T) {
	repoDir := initRepo(t, map[string]string{"a.md": "# A\n"})

	target := filepath.Join(t.TempDir(), "checkout")
	_, err := Checkout(context.Background(), &config.SourceConfig{URL: repoDir}, target)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(target, "a.md"))
}

func TestCheckoutReplacesPreviousContents(t *testing.T) {
	repoDir := initRepo(t, map[string]string{"a.md": "# A\n"})

	target := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, os.MkdirAll(target, 0o755))
	stray := filepath.Join(target, "stale.txt")
	require.NoError(t, os.WriteFile(stray, []byte("old"), 0o644))

	_, err := Checkout(context.Background(), &config.SourceConfig{URL: repoDir, Branch: "master"}, target)
	require.NoError(t, err)
	require.NoFileExists(t, stray)
	require.FileExists(t, filepath.Join(target, "a.md"))
}

func TestCheckoutUpdatesExistingCheckoutInPlace(t *testing.T) {
	repoDir := initRepo(t, map[string]string{"a.md": "# A\n"})
	cfg := &config.SourceConfig{URL: repoDir, Branch: "master"}

	target := filepath.Join(t.TempDir(), "checkout")
	_, err := Checkout(context.Background(), cfg, target)
	require.NoError(t, err)

	before, err := os.Stat(target)
	require.NoError(t, err)

	// Advance the upstream and drop an untracked file into the checkout.
	upstream, err := git.PlainOpen(repoDir)
	require.NoError(t, err)
	wt, err := upstream.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "b.md"), []byte("# B\n"), 0o644))
	_, err = wt.Add("b.md")
	require.NoError(t, err)
	_, err = wt.Commit("add b", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	stray := filepath.Join(target, "stray.md")
	require.NoError(t, os.WriteFile(stray, []byte("# stray\n"), 0o644))

	_, err = Checkout(context.Background(), cfg, target)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(target, "b.md"))
	require.NoFileExists(t, stray)

	// The directory itself must survive the update (watch mode keeps
	// fsnotify watches on it).
	after, err := os.Stat(target)
	require.NoError(t, err)
	require.True(t, os.SameFile(before, after), "checkout directory was recreated")
}

func TestCheckoutMissingBranch(t *testing.T) {
	repoDir := initRepo(t, map[string]string{"a.md": "# A\n"})

	target := filepath.Join(t.TempDir(), "checkout")
	_, err := Checkout(context.Background(), &config.SourceConfig{URL: repoDir, Branch: "does-not-exist"}, target)
	require.Error(t, err)
	require.True(t, rcerrors.IsCategory(err, rcerrors.CategorySource))
}

func TestCheckoutRequiresURL(t *testing.T) {
	_, err := Checkout(context.Background(), &config.SourceConfig{}, t.TempDir())
	require.Error(t, err)
	require.True(t, rcerrors.IsCategory(err, rcerrors.CategoryConfig))
}

func TestCreateAuth(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.AuthConfig
		wantNil   bool
		wantErr   bool
		checkAuth func(t *testing.T, got any)
	}{
		{name: "nil config", cfg: nil, wantNil: true},
		{name: "none type", cfg: &config.AuthConfig{Type: "none"}, wantNil: true},
		{name: "empty type", cfg: &config.AuthConfig{}, wantNil: true},
		{
			name: "token",
			cfg:  &config.AuthConfig{Type: "token", Token: "secret"},
			checkAuth: func(t *testing.T, got any) {
				basic, ok := got.(*githttp.BasicAuth)
				if !ok {
					t.Fatalf("auth type = %T, want *githttp.BasicAuth", got)
				}
				if basic.Username != "token" || basic.Password != "secret" {
					t.Errorf("unexpected basic auth %+v", basic)
				}
			},
		},
		{name: "token missing", cfg: &config.AuthConfig{Type: "token"}, wantErr: true},
		{
			name: "basic",
			cfg:  &config.AuthConfig{Type: "basic", Username: "u", Password: "p"},
			checkAuth: func(t *testing.T, got any) {
				basic, ok := got.(*githttp.BasicAuth)
				if !ok {
					t.Fatalf("auth type = %T, want *githttp.BasicAuth", got)
				}
				if basic.Username != "u" || basic.Password != "p" {
					t.Errorf("unexpected basic auth %+v", basic)
				}
			},
		},
		{name: "basic missing username", cfg: &config.AuthConfig{Type: "basic"}, wantErr: true},
		{name: "ssh missing key", cfg: &config.AuthConfig{Type: "ssh", KeyPath: "/nonexistent/id_rsa"}, wantErr: true},
		{name: "unknown type", cfg: &config.AuthConfig{Type: "kerberos"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateAuth(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateAuth: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil auth, got %T", got)
				}
				return
			}
			if tt.checkAuth != nil {
				tt.checkAuth(t, got)
			}
		})
	}
}
