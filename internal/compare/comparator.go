// Package compare diffs two directory trees into unified-diff text. It has
// no knowledge of packages or versions: both retrieval strategies hand it
// plain filesystem roots.
package compare

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/quantmind-br/depdiff/internal/domain"
)

// binarySniffLen is how many leading bytes are inspected for NUL bytes when
// classifying a file as binary.
const binarySniffLen = 8192

// contextLines is the unified-diff context size.
const contextLines = 3

// devNull is the unified-diff name for an absent side.
const devNull = "/dev/null"

// Comparator recursively compares two directory trees.
type Comparator struct{}

// NewComparator creates a new Comparator
func NewComparator() *Comparator {
	return &Comparator{}
}

// Compare walks both trees and renders one unified diff over the union of
// relative paths, in lexicographic order. Either directory may be empty or
// absent, in which case every file of the other side is wholly added or
// removed. Identical trees yield an empty string.
func (c *Comparator) Compare(oldDir, newDir string) (string, error) {
	oldFiles, err := collectFiles(oldDir)
	if err != nil {
		return "", fmt.Errorf("%w: scanning old tree: %v", domain.ErrComparisonFailed, err)
	}
	newFiles, err := collectFiles(newDir)
	if err != nil {
		return "", fmt.Errorf("%w: scanning new tree: %v", domain.ErrComparisonFailed, err)
	}

	paths := make([]string, 0, len(oldFiles)+len(newFiles))
	for p := range oldFiles {
		paths = append(paths, p)
	}
	for p := range newFiles {
		if _, ok := oldFiles[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var out strings.Builder
	for _, p := range paths {
		_, inOld := oldFiles[p]
		_, inNew := newFiles[p]

		var section string
		switch {
		case inOld && inNew:
			section, err = c.diffCommon(oldDir, newDir, p)
		case inOld:
			section, err = c.diffRemoved(oldDir, p)
		default:
			section, err = c.diffAdded(newDir, p)
		}
		if err != nil {
			return "", err
		}
		out.WriteString(section)
	}

	return out.String(), nil
}

// diffCommon diffs a path present in both trees. Identical content emits
// nothing; differing binary content emits only the marker line.
func (c *Comparator) diffCommon(oldDir, newDir, rel string) (string, error) {
	oldContent, err := readTreeFile(oldDir, rel)
	if err != nil {
		return "", err
	}
	newContent, err := readTreeFile(newDir, rel)
	if err != nil {
		return "", err
	}

	if bytes.Equal(oldContent, newContent) {
		return "", nil
	}

	if isBinary(oldContent) || isBinary(newContent) {
		return binaryMarker("a/"+rel, "b/"+rel), nil
	}

	return unified(oldContent, newContent, "a/"+rel, "b/"+rel)
}

// diffRemoved emits a path only present in the old tree as wholly removed.
func (c *Comparator) diffRemoved(oldDir, rel string) (string, error) {
	content, err := readTreeFile(oldDir, rel)
	if err != nil {
		return "", err
	}
	if isBinary(content) {
		return binaryMarker("a/"+rel, devNull), nil
	}
	return unified(content, nil, "a/"+rel, devNull)
}

// diffAdded emits a path only present in the new tree as wholly added.
func (c *Comparator) diffAdded(newDir, rel string) (string, error) {
	content, err := readTreeFile(newDir, rel)
	if err != nil {
		return "", err
	}
	if isBinary(content) {
		return binaryMarker(devNull, "b/"+rel), nil
	}
	return unified(nil, content, devNull, "b/"+rel)
}

func unified(oldContent, newContent []byte, fromFile, toFile string) (string, error) {
	var a, b []string
	if len(oldContent) > 0 {
		a = difflib.SplitLines(string(oldContent))
	}
	if len(newContent) > 0 {
		b = difflib.SplitLines(string(newContent))
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  contextLines,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrComparisonFailed, toFile, err)
	}
	return text, nil
}

// binaryMarker is the fixed line emitted for differing binary content. Raw
// bytes never appear in the output.
func binaryMarker(from, to string) string {
	return fmt.Sprintf("Binary files %s and %s differ\n", from, to)
}

// isBinary classifies content by looking for NUL bytes in the leading chunk.
func isBinary(content []byte) bool {
	sniff := content
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	return bytes.IndexByte(sniff, 0) >= 0
}

func readTreeFile(dir, rel string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrComparisonFailed, rel, err)
	}
	return content, nil
}

// collectFiles returns the set of slash-separated relative file paths under
// dir. An empty or missing dir yields an empty set so one-sided comparisons
// work against an empty tree.
func collectFiles(dir string) (map[string]struct{}, error) {
	files := make(map[string]struct{})
	if dir == "" {
		return files, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return files, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
