package strategies

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quantmind-br/depdiff/internal/compare"
	"github.com/quantmind-br/depdiff/internal/domain"
	"github.com/quantmind-br/depdiff/internal/utils"
)

// ArtifactStrategy retrieves a diff by downloading the released archives of
// both versions, extracting them into normalized trees and comparing the
// trees. It is the always-available fallback: a failure here is terminal for
// the change.
type ArtifactStrategy struct {
	registry   domain.MetadataClient
	comparator *compare.Comparator
	timeout    time.Duration
	logger     *utils.Logger
}

// ArtifactStrategyOptions contains options for creating an ArtifactStrategy
type ArtifactStrategyOptions struct {
	Registry   domain.MetadataClient
	Comparator *compare.Comparator
	Timeout    time.Duration
	Logger     *utils.Logger
}

// NewArtifactStrategy creates a new ArtifactStrategy
func NewArtifactStrategy(opts ArtifactStrategyOptions) *ArtifactStrategy {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	comparator := opts.Comparator
	if comparator == nil {
		comparator = compare.NewComparator()
	}
	return &ArtifactStrategy{
		registry:   opts.Registry,
		comparator: comparator,
		timeout:    opts.Timeout,
		logger:     logger.WithStrategy("artifact"),
	}
}

// Name returns the strategy name
func (s *ArtifactStrategy) Name() string {
	return "artifact"
}

// Attempt downloads, extracts and compares both versions inside workDir, a
// change-scoped directory inside the run workspace. An absent version (pure
// addition or removal) is compared against an empty tree.
func (s *ArtifactStrategy) Attempt(ctx context.Context, change domain.DependencyChange, workDir string) (*domain.DiffResult, error) {
	oldTree, err := s.fetchTree(ctx, change.Name, change.OldVersion, filepath.Join(workDir, "old"))
	if err != nil {
		return nil, err
	}

	newTree, err := s.fetchTree(ctx, change.Name, change.NewVersion, filepath.Join(workDir, "new"))
	if err != nil {
		return nil, err
	}

	text, err := s.comparator.Compare(oldTree, newTree)
	if err != nil {
		return nil, err
	}

	status := domain.StatusSuccess
	if text == "" {
		status = domain.StatusEmpty
	}

	s.logger.WithPackage(change.Name).Debug().
		Str("status", string(status)).
		Msg("Artifact diff produced")

	return &domain.DiffResult{
		PackageName: change.Name,
		Status:      status,
		Source:      domain.SourceArtifact,
		UnifiedDiff: text,
	}, nil
}

// fetchTree downloads and extracts one version into dest and returns the
// normalized tree root. An empty version yields an empty tree.
func (s *ArtifactStrategy) fetchTree(ctx context.Context, name, version, dest string) (string, error) {
	if version == "" {
		return "", nil
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	meta, err := s.registry.Lookup(opCtx, name, version)
	if err != nil {
		return "", fmt.Errorf("%w: metadata lookup for %s==%s: %w", domain.ErrArtifactUnavailable, name, version, err)
	}

	artifact := meta.PreferredArtifact()
	if artifact == nil {
		return "", fmt.Errorf("%w: no distribution published for %s==%s", domain.ErrArtifactUnavailable, name, version)
	}

	archivePath := filepath.Join(dest, artifact.Filename)
	if err := s.registry.Download(opCtx, artifact.URL, archivePath); err != nil {
		return "", fmt.Errorf("%w: downloading %s: %w", domain.ErrArtifactUnavailable, artifact.Filename, err)
	}

	extractor, err := ExtractorFor(artifact.Filename)
	if err != nil {
		return "", err
	}

	treeDir := filepath.Join(dest, "tree")
	if err := os.MkdirAll(treeDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", treeDir, err)
	}
	if err := extractor.Extract(archivePath, treeDir); err != nil {
		return "", err
	}

	return NormalizeRoot(treeDir)
}
