package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initFixtureRepo builds a local repository with two tagged releases:
// v1.0.0 (lightweight tag) and v1.1.0 (annotated tag) that changes setup.py
// and adds util.py.
func initFixtureRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	sig := &object.Signature{
		Name:  "tester",
		Email: "tester@example.com",
		When:  time.Date(2021, 7, 1, 12, 0, 0, 0, time.UTC),
	}

	commit := func(files map[string]string, msg string) plumbing.Hash {
		for name, content := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
			_, err := wt.Add(name)
			require.NoError(t, err)
		}
		hash, err := wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
		return hash
	}

	first := commit(map[string]string{"setup.py": "version = '1.0.0'\n"}, "release 1.0.0")
	_, err = repo.CreateTag("v1.0.0", first, nil)
	require.NoError(t, err)

	second := commit(map[string]string{
		"setup.py": "version = '1.1.0'\n",
		"util.py":  "def helper(): pass\n",
	}, "release 1.1.0")
	_, err = repo.CreateTag("v1.1.0", second, &git.CreateTagOptions{
		Tagger:  sig,
		Message: "release 1.1.0",
	})
	require.NoError(t, err)

	return dir
}

func TestCloneListsTags(t *testing.T) {
	t.Parallel()

	fixture := initFixtureRepo(t)
	client := NewClient(nil)

	repo, err := client.Clone(context.Background(), fixture, t.TempDir())
	require.NoError(t, err)

	tags, err := repo.Tags()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1.0.0", "v1.1.0"}, tags)
}

func TestDiffBetweenTags(t *testing.T) {
	t.Parallel()

	fixture := initFixtureRepo(t)
	client := NewClient(nil)

	repo, err := client.Open(fixture)
	require.NoError(t, err)

	// v1.1.0 is annotated; resolving it must peel through to the commit.
	text, err := repo.Diff(context.Background(), "v1.0.0", "v1.1.0")
	require.NoError(t, err)

	assert.Contains(t, text, "-version = '1.0.0'")
	assert.Contains(t, text, "+version = '1.1.0'")
	assert.Contains(t, text, "util.py")
	assert.Contains(t, text, "+def helper(): pass")
}

func TestDiffSameTagIsEmpty(t *testing.T) {
	t.Parallel()

	fixture := initFixtureRepo(t)
	client := NewClient(nil)

	repo, err := client.Open(fixture)
	require.NoError(t, err)

	text, err := repo.Diff(context.Background(), "v1.0.0", "v1.0.0")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestDiffUnknownTag(t *testing.T) {
	t.Parallel()

	fixture := initFixtureRepo(t)
	client := NewClient(nil)

	repo, err := client.Open(fixture)
	require.NoError(t, err)

	_, err = repo.Diff(context.Background(), "v1.0.0", "v9.9.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v9.9.9")
}

func TestOpenNonRepository(t *testing.T) {
	t.Parallel()

	_, err := NewClient(nil).Open(t.TempDir())
	require.Error(t, err)
}

func TestCloneInvalidSource(t *testing.T) {
	t.Parallel()

	_, err := NewClient(nil).Clone(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.Error(t, err)
}
