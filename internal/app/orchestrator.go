// Package app drives the hybrid retrieval run: one state machine per change
// (TryGit, then TryArtifact), bounded worker fan-out, and ownership of the
// temporary workspace.
package app

import (
	"context"
	"fmt"

	"github.com/quantmind-br/depdiff/internal/config"
	"github.com/quantmind-br/depdiff/internal/domain"
	"github.com/quantmind-br/depdiff/internal/gitrepo"
	"github.com/quantmind-br/depdiff/internal/registry"
	"github.com/quantmind-br/depdiff/internal/strategies"
	"github.com/quantmind-br/depdiff/internal/utils"
	"github.com/quantmind-br/depdiff/internal/workspace"
)

// Orchestrator coordinates diff retrieval for a list of dependency changes.
type Orchestrator struct {
	cfg          *config.Config
	registry     domain.MetadataClient
	repos        domain.RepoClient
	logger       *utils.Logger
	showProgress bool
}

// Options contains options for creating an Orchestrator. Registry and Repos
// default to the real PyPI client and go-git client; tests inject doubles.
type Options struct {
	Config       *config.Config
	Registry     domain.MetadataClient
	Repos        domain.RepoClient
	Logger       *utils.Logger
	ShowProgress bool
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.NewClient(registry.ClientOptions{
			BaseURL:    cfg.Registry.BaseURL,
			UserAgent:  cfg.Registry.UserAgent,
			Timeout:    cfg.Concurrency.Timeout,
			MaxRetries: cfg.Registry.MaxRetries,
			Logger:     logger,
		})
	}

	repos := opts.Repos
	if repos == nil {
		repos = gitrepo.NewClient(logger)
	}

	return &Orchestrator{
		cfg:          cfg,
		registry:     reg,
		repos:        repos,
		logger:       logger.WithComponent("orchestrator"),
		showProgress: opts.ShowProgress,
	}, nil
}

// Run retrieves one DiffResult per change, in input order. Individual
// failures never abort sibling changes; the only run-fatal condition is
// failing to set up the workspace. The workspace and everything in it is
// removed on every exit path, including cancellation.
func (o *Orchestrator) Run(ctx context.Context, changes []domain.DependencyChange) ([]domain.DiffResult, error) {
	ws, err := workspace.New(o.cfg.Workspace.Root)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	o.logger.Info().
		Int("changes", len(changes)).
		Int("workers", o.cfg.Concurrency.Workers).
		Str("workspace", ws.Root()).
		Msg("Starting retrieval run")

	gitStrategy := strategies.NewGitStrategy(strategies.GitStrategyOptions{
		Repos:   o.repos,
		Clones:  ws.Clones(),
		Timeout: o.cfg.Concurrency.Timeout,
		Logger:  o.logger,
	})
	artifactStrategy := strategies.NewArtifactStrategy(strategies.ArtifactStrategyOptions{
		Registry: o.registry,
		Timeout:  o.cfg.Concurrency.Timeout,
		Logger:   o.logger,
	})

	var bar interface{ Add(int) error }
	if o.showProgress {
		bar = utils.NewProgressBar(len(changes), utils.DescRetrieving)
	}

	results := make([]domain.DiffResult, len(changes))
	indices := make([]int, len(changes))
	for i := range indices {
		indices[i] = i
	}

	utils.ParallelForEach(ctx, indices, o.cfg.Concurrency.Workers, func(ctx context.Context, i int) error {
		results[i] = o.processChange(ctx, ws, gitStrategy, artifactStrategy, changes[i])
		if bar != nil {
			_ = bar.Add(1)
		}
		return nil
	})

	// Changes never dispatched because of cancellation still get a result,
	// preserving the one-result-per-change, input-order invariant.
	for i := range results {
		if results[i].PackageName == "" {
			results[i] = failedResult(changes[i], ctx.Err())
		}
	}

	if ctx.Err() != nil {
		o.logger.Warn().Msg("Retrieval run cancelled")
		return results, ctx.Err()
	}

	o.logger.Info().Int("changes", len(changes)).Msg("Retrieval run completed")
	return results, nil
}

// processChange runs the per-change state machine:
// Init -> TryGit -> (Success | TryArtifact) -> (Success | Failed).
func (o *Orchestrator) processChange(
	ctx context.Context,
	ws *workspace.Workspace,
	gitStrategy *strategies.GitStrategy,
	artifactStrategy *strategies.ArtifactStrategy,
	change domain.DependencyChange,
) domain.DiffResult {
	logger := o.logger.WithPackage(change.Name)

	if err := change.Validate(); err != nil {
		return failedResult(change, err)
	}

	repoURL := o.discoverRepository(ctx, change)

	if repoURL == "" {
		logger.Debug().Msg("No repository url, skipping git strategy")
	} else {
		result, disq := gitStrategy.Attempt(ctx, change, repoURL)
		if disq == nil {
			return *result
		}
		logger.Info().Str("reason", disq.String()).Msg("Git strategy disqualified, falling back to artifacts")
	}

	workDir, err := ws.ChangeDir(change.Name)
	if err != nil {
		return failedResult(change, err)
	}

	result, err := artifactStrategy.Attempt(ctx, change, workDir)
	if err != nil {
		logger.Warn().Err(err).Msg("Artifact strategy failed")
		return failedResult(change, err)
	}

	return *result
}

// discoverRepository resolves the package's source repository URL from
// registry metadata. Discovery failures only mean the git strategy is
// skipped; they are never an error for the change itself.
func (o *Orchestrator) discoverRepository(ctx context.Context, change domain.DependencyChange) string {
	version := change.NewVersion
	if version == "" {
		version = change.OldVersion
	}

	opCtx, cancel := context.WithTimeout(ctx, o.cfg.Concurrency.Timeout)
	defer cancel()

	meta, err := o.registry.Lookup(opCtx, change.Name, version)
	if err != nil {
		o.logger.WithPackage(change.Name).Debug().Err(err).Msg("Repository discovery failed")
		return ""
	}

	return meta.RepositoryURL
}

func failedResult(change domain.DependencyChange, err error) domain.DiffResult {
	if err == nil {
		err = fmt.Errorf("retrieval aborted")
	}
	return domain.DiffResult{
		PackageName: change.Name,
		Status:      domain.StatusFailed,
		Err:         err,
	}
}
