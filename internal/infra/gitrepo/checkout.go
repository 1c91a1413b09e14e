// Package gitrepo materializes pinned repository checkouts for
// analysis. Each checkout lives in its own temporary directory and is
// removed by Cleanup.
package gitrepo

import (
	"context"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Config contains checkout configuration.
type Config struct {
	// Token authenticates HTTPS clones when set.
	Token string
}

// Checkout is a materialized working tree pinned to a commit.
type Checkout struct {
	URL    string
	Commit string
	Dir    string
}

// Client clones repositories and checks out pinned commits.
type Client struct {
	auth transport.AuthMethod
}

// NewClient creates a checkout client.
func NewClient(cfg Config) *Client {
	c := &Client{}
	if cfg.Token != "" {
		c.auth = &http.BasicAuth{
			Username: "x-access-token", // GitHub/GitLab convention
			Password: cfg.Token,
		}
	}
	return c
}

// Materialize clones url into a fresh temporary directory and checks
// out the given commit. The caller owns the returned checkout and must
// call Cleanup when done with it.
func (c *Client) Materialize(ctx context.Context, url, commit string) (*Checkout, error) {
	dir, err := os.MkdirTemp("", "sastbench-repo-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  url,
		Auth: c.auth,
		// No SingleBranch/Depth: the pinned commit may not be the
		// tip of any branch.
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to clone %s: %w", url, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  plumbing.NewHash(commit),
		Force: true,
	}); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to checkout %s at %s: %w", url, commit, err)
	}

	return &Checkout{URL: url, Commit: commit, Dir: dir}, nil
}

// Cleanup removes the checkout's working tree.
func (co *Checkout) Cleanup() error {
	if co.Dir == "" {
		return nil
	}
	err := os.RemoveAll(co.Dir)
	co.Dir = ""
	return err
}
