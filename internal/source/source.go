// Package source checks out a remote Git repository so a run can render
// documentation that does not live in the local workspace.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/docsmith/renderci/internal/config"
	rcerrors "github.com/docsmith/renderci/internal/errors"
	"github.com/docsmith/renderci/internal/logfields"
)

// CreateAuth maps the configured auth block onto a go-git transport method.
// A nil config or type "none" means anonymous access.
func CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	if authCfg == nil {
		return nil, nil
	}
	switch authCfg.Type {
	case "", "none":
		return nil, nil
	case "token":
		if authCfg.Token == "" {
			return nil, fmt.Errorf("token authentication requires a token")
		}
		// Hosting services accept any username with a token password.
		return &githttp.BasicAuth{Username: "token", Password: authCfg.Token}, nil
	case "basic":
		if authCfg.Username == "" {
			return nil, fmt.Errorf("basic authentication requires a username")
		}
		return &githttp.BasicAuth{Username: authCfg.Username, Password: authCfg.Password}, nil
	case "ssh":
		keyPath := authCfg.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}
		keys, err := gitssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("load SSH key from %s: %w", keyPath, err)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", authCfg.Type)
	}
}

// Checkout makes dir hold the configured repository at the remote branch
// head and returns dir. An existing checkout is updated in place (fetch +
// hard reset + clean) so watch mode keeps valid paths; anything else is
// replaced with a fresh clone.
func Checkout(ctx context.Context, cfg *config.SourceConfig, dir string) (string, error) {
	if cfg == nil || cfg.URL == "" {
		return "", rcerrors.ConfigRequired("source.url")
	}

	if cfg.Branch != "" && hasRepo(dir) {
		err := update(ctx, cfg, dir)
		if err == nil {
			return dir, nil
		}
		slog.Warn("checkout update failed, recloning",
			logfields.URL(cfg.URL), logfields.Error(err))
	}
	return freshClone(ctx, cfg, dir)
}

func freshClone(ctx context.Context, cfg *config.SourceConfig, dir string) (string, error) {
	if err := os.RemoveAll(dir); err != nil {
		return "", rcerrors.WorkspaceError("replace checkout", err)
	}

	opts := &git.CloneOptions{URL: cfg.URL}
	if cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(cfg.Branch)
		opts.SingleBranch = true
	}
	// Shallow clones only help against a remote transport; local paths clone
	// fast anyway and some local servers reject shallow negotiation.
	if isRemoteURL(cfg.URL) {
		opts.Depth = 1
	}

	auth, err := CreateAuth(cfg.Auth)
	if err != nil {
		return "", rcerrors.SourceCloneError(cfg.URL, err)
	}
	opts.Auth = auth

	slog.Debug("cloning source repository",
		logfields.URL(cfg.URL),
		slog.String("branch", cfg.Branch),
		logfields.Path(dir))

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return "", rcerrors.SourceCloneError(cfg.URL, err)
	}

	if ref, herr := repo.Head(); herr == nil {
		slog.Info("source repository cloned",
			logfields.URL(cfg.URL),
			slog.String("commit", shortHash(ref.Hash().String())),
			logfields.Path(dir))
	} else {
		slog.Info("source repository cloned", logfields.URL(cfg.URL), logfields.Path(dir))
	}
	return dir, nil
}

// update fetches the remote branch and forces the worktree to its head.
// Checkouts never carry local work, so a hard reset plus clean is always
// safe and matches what a fresh clone would produce.
func update(ctx context.Context, cfg *config.SourceConfig, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("open checkout: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	auth, err := CreateAuth(cfg.Auth)
	if err != nil {
		return err
	}
	fetchOpts := &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []gitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Tags:       git.NoTags,
		Auth:       auth,
	}
	if isRemoteURL(cfg.URL) {
		fetchOpts.Depth = 1
	}
	if err := repo.FetchContext(ctx, fetchOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch: %w", err)
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", cfg.Branch), true)
	if err != nil {
		return fmt.Errorf("resolve origin/%s: %w", cfg.Branch, err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return fmt.Errorf("reset to origin/%s: %w", cfg.Branch, err)
	}
	if err := wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return fmt.Errorf("clean checkout: %w", err)
	}

	slog.Info("source repository updated",
		logfields.URL(cfg.URL),
		slog.String("commit", shortHash(remoteRef.Hash().String())),
		logfields.Path(dir))
	return nil
}

func hasRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

func isRemoteURL(url string) bool {
	return strings.Contains(url, "://") || strings.HasPrefix(url, "git@")
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
