package domain

import "fmt"

// DependencyChange represents a single package version bump extracted from a
// requirements diff. An empty version string means that side is absent: a
// pure addition has no OldVersion, a pure removal has no NewVersion.
// Instances are created once by the parser and treated as read-only.
type DependencyChange struct {
	Name       string
	OldVersion string
	NewVersion string
}

// IsAddition reports whether the package was newly added.
func (c DependencyChange) IsAddition() bool {
	return c.OldVersion == "" && c.NewVersion != ""
}

// IsRemoval reports whether the package was removed.
func (c DependencyChange) IsRemoval() bool {
	return c.OldVersion != "" && c.NewVersion == ""
}

// IsUpdate reports whether both versions are present.
func (c DependencyChange) IsUpdate() bool {
	return c.OldVersion != "" && c.NewVersion != ""
}

// Validate checks the invariant that at least one version is set.
func (c DependencyChange) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("dependency change has no package name")
	}
	if c.OldVersion == "" && c.NewVersion == "" {
		return fmt.Errorf("dependency change for %s has neither old nor new version", c.Name)
	}
	return nil
}

// ResolvedTag pairs a version string with the repository tag it resolved to.
type ResolvedTag struct {
	Version string
	TagName string
}

// DiffStatus describes the outcome of retrieving a diff for one change.
type DiffStatus string

const (
	// StatusSuccess means a non-empty diff was produced.
	StatusSuccess DiffStatus = "success"
	// StatusEmpty means retrieval succeeded and the source change is empty.
	StatusEmpty DiffStatus = "empty"
	// StatusFailed means every strategy was exhausted for this change.
	StatusFailed DiffStatus = "failed"
)

// DiffSource identifies which strategy produced a diff.
type DiffSource string

const (
	// SourceGit means the diff came from cloning the source repository.
	SourceGit DiffSource = "git"
	// SourceArtifact means the diff came from comparing released archives.
	SourceArtifact DiffSource = "artifact"
)

// DiffResult is the terminal outcome for one DependencyChange. Exactly one
// result exists per input change and results mirror input order. A result is
// created once by the strategy that produced it and never mutated.
type DiffResult struct {
	PackageName string
	Status      DiffStatus
	Source      DiffSource
	UnifiedDiff string
	Err         error
}

// Artifact describes one downloadable distribution of a package version.
type Artifact struct {
	URL         string
	Filename    string
	PackageType string
}

// IsSourceDist reports whether the artifact is a source distribution.
func (a Artifact) IsSourceDist() bool {
	return a.PackageType == "sdist"
}

// PackageMetadata is the registry view of one package version: the selected
// source repository URL (may be empty) and the available distributions.
type PackageMetadata struct {
	Name          string
	Version       string
	RepositoryURL string
	Artifacts     []Artifact
}

// PreferredArtifact returns the distribution to download, preferring a
// source distribution over a built one since built distributions may omit
// files that never ship. Returns nil when no distribution exists.
func (m *PackageMetadata) PreferredArtifact() *Artifact {
	for i := range m.Artifacts {
		if m.Artifacts[i].IsSourceDist() {
			return &m.Artifacts[i]
		}
	}
	if len(m.Artifacts) > 0 {
		return &m.Artifacts[0]
	}
	return nil
}
