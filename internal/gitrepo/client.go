package gitrepo

import (
	"context"
	"fmt"

	git "github.com/go-git/go-git/v5"

	"github.com/quantmind-br/depdiff/internal/domain"
	"github.com/quantmind-br/depdiff/internal/utils"
)

// Client implements domain.RepoClient using go-git.
type Client struct {
	logger *utils.Logger
}

// NewClient creates a new Client
func NewClient(logger *utils.Logger) *Client {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Client{logger: logger.WithComponent("gitrepo")}
}

// Clone clones url into dir. The worktree is not checked out: tag listing
// and tree diffs only need the object database, which keeps clones fast.
func (c *Client) Clone(ctx context.Context, url, dir string) (domain.Repository, error) {
	c.logger.Debug().Str("url", url).Str("dir", dir).Msg("Cloning repository")

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        url,
		NoCheckout: true,
		Tags:       git.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", url, err)
	}

	return &repository{repo: repo}, nil
}

// Open reopens a repository cloned earlier in the run.
func (c *Client) Open(dir string) (domain.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	return &repository{repo: repo}, nil
}
