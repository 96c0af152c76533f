package gitrepo

import (
	"context"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// repository wraps a go-git repository behind domain.Repository.
type repository struct {
	repo *git.Repository
}

// Tags lists the short names of all tags.
func (r *repository) Tags() ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	return tags, nil
}

// Diff renders the change between two tags as a unified diff. An empty
// result means the two trees are identical.
func (r *repository) Diff(ctx context.Context, oldRef, newRef string) (string, error) {
	oldTree, err := r.treeForTag(oldRef)
	if err != nil {
		return "", err
	}
	newTree, err := r.treeForTag(newRef)
	if err != nil {
		return "", err
	}

	changes, err := object.DiffTreeWithOptions(ctx, oldTree, newTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return "", fmt.Errorf("diffing %s..%s: %w", oldRef, newRef, err)
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", fmt.Errorf("rendering patch %s..%s: %w", oldRef, newRef, err)
	}

	return patch.String(), nil
}

// treeForTag resolves a tag name to the tree of the commit it points at.
// ResolveRevision peels annotated tags to their target commit.
func (r *repository) treeForTag(tag string) (*object.Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision("refs/tags/" + tag))
	if err != nil {
		return nil, fmt.Errorf("resolving tag %s: %w", tag, err)
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("reading commit for tag %s: %w", tag, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree for tag %s: %w", tag, err)
	}

	return tree, nil
}
