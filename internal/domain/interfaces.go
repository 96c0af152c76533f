package domain

import "context"

// MetadataClient looks up registry metadata and downloads release artifacts.
type MetadataClient interface {
	// Lookup fetches metadata for one package version.
	Lookup(ctx context.Context, name, version string) (*PackageMetadata, error)
	// Download streams the artifact at url into the file at dest.
	Download(ctx context.Context, url, dest string) error
}

// Repository exposes the two read operations the git strategy needs on a
// cloned repository.
type Repository interface {
	// Tags lists the short names of all tags in the repository.
	Tags() ([]string, error)
	// Diff renders the change between two refs as a unified diff. An empty
	// string is a valid result (no net source change between the refs).
	Diff(ctx context.Context, oldRef, newRef string) (string, error)
}

// RepoClient is the source-control capability: clone-by-URL plus reopening a
// repository cloned earlier in the run.
type RepoClient interface {
	Clone(ctx context.Context, url, dir string) (Repository, error)
	Open(dir string) (Repository, error)
}
