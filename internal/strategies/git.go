package strategies

import (
	"context"
	"time"

	"github.com/quantmind-br/depdiff/internal/domain"
	"github.com/quantmind-br/depdiff/internal/utils"
	"github.com/quantmind-br/depdiff/internal/workspace"
)

// GitStrategy retrieves a diff by cloning the package's source repository
// and diffing the tags the two versions resolve to. Every failure mode is a
// disqualification that hands the change to the artifact fallback; the
// strategy never retries within itself.
type GitStrategy struct {
	repos   domain.RepoClient
	clones  *workspace.CloneCache
	timeout time.Duration
	logger  *utils.Logger
}

// GitStrategyOptions contains options for creating a GitStrategy
type GitStrategyOptions struct {
	Repos   domain.RepoClient
	Clones  *workspace.CloneCache
	Timeout time.Duration
	Logger  *utils.Logger
}

// NewGitStrategy creates a new GitStrategy
func NewGitStrategy(opts GitStrategyOptions) *GitStrategy {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &GitStrategy{
		repos:   opts.Repos,
		clones:  opts.Clones,
		timeout: opts.Timeout,
		logger:  logger.WithStrategy("git"),
	}
}

// Name returns the strategy name
func (s *GitStrategy) Name() string {
	return "git"
}

// Attempt tries to produce a diff for the change from repoURL. An empty diff
// between two resolved tags is a successful outcome, not a reason to fall
// back. Repositories cloned earlier in the run for the same package are
// reused through the clone cache.
func (s *GitStrategy) Attempt(ctx context.Context, change domain.DependencyChange, repoURL string) (*domain.DiffResult, *Disqualification) {
	if repoURL == "" {
		return nil, Disqualify("no repository url", domain.ErrRepositoryUnavailable)
	}
	if !change.IsUpdate() {
		return nil, Disqualify("not a version update", nil)
	}

	logger := s.logger.WithPackage(change.Name)

	var repo domain.Repository
	dir, err := s.clones.WithClone(change.Name, func(dir string) error {
		cloneCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		cloned, cloneErr := s.repos.Clone(cloneCtx, repoURL, dir)
		if cloneErr != nil {
			return cloneErr
		}
		repo = cloned
		return nil
	})
	if err != nil {
		logger.Debug().Err(err).Str("url", repoURL).Msg("Clone failed")
		return nil, Disqualify("clone failed", err)
	}

	if repo == nil {
		// Another change for this package cloned earlier in the run.
		repo, err = s.repos.Open(dir)
		if err != nil {
			return nil, Disqualify("cached clone unusable", err)
		}
	}

	tags, err := repo.Tags()
	if err != nil {
		return nil, Disqualify("listing tags failed", err)
	}

	oldTag, ok := ResolveTag(change.OldVersion, tags)
	if !ok {
		logger.Debug().Str("version", change.OldVersion).Msg("No matching tag")
		return nil, Disqualify("tag not found for "+change.OldVersion, domain.ErrTagNotFound)
	}
	newTag, ok := ResolveTag(change.NewVersion, tags)
	if !ok {
		logger.Debug().Str("version", change.NewVersion).Msg("No matching tag")
		return nil, Disqualify("tag not found for "+change.NewVersion, domain.ErrTagNotFound)
	}

	diffCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := repo.Diff(diffCtx, oldTag.TagName, newTag.TagName)
	if err != nil {
		return nil, Disqualify("diff failed", err)
	}

	status := domain.StatusSuccess
	if text == "" {
		status = domain.StatusEmpty
	}

	logger.Debug().
		Str("old_tag", oldTag.TagName).
		Str("new_tag", newTag.TagName).
		Str("status", string(status)).
		Msg("Git diff produced")

	return &domain.DiffResult{
		PackageName: change.Name,
		Status:      status,
		Source:      domain.SourceGit,
		UnifiedDiff: text,
	}, nil
}
