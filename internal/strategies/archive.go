package strategies

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/quantmind-br/depdiff/internal/domain"
)

// Extractor unpacks one archive format into a directory tree.
type Extractor interface {
	Extract(archivePath, destDir string) error
}

// ExtractorFor picks the extractor for a distribution filename. Source
// distributions ship as tar+gzip, built distributions (wheels, eggs) are
// zip containers.
func ExtractorFor(filename string) (Extractor, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return tarGzExtractor{}, nil
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".whl"), strings.HasSuffix(lower, ".egg"):
		return zipExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported archive format: %s", domain.ErrExtractionFailed, filename)
	}
}

// NormalizeRoot strips a single common top-level wrapper directory if and
// only if every extracted entry shares one, so files at equivalent logical
// paths in two trees stay comparable by relative path.
func NormalizeRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading extracted tree %s: %w", dir, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

type tarGzExtractor struct{}

func (tarGzExtractor) Extract(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: opening archive: %v", domain.ErrExtractionFailed, err)
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: gzip reader: %v", domain.ErrExtractionFailed, err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: tar read: %v", domain.ErrExtractionFailed, err)
		}

		target, ok := safeTarget(destDir, header.Name)
		if !ok {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: mkdir: %v", domain.ErrExtractionFailed, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}

	return nil
}

type zipExtractor struct{}

func (zipExtractor) Extract(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: zip reader: %v", domain.ErrExtractionFailed, err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, ok := safeTarget(destDir, f.Name)
		if !ok {
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: mkdir: %v", domain.ErrExtractionFailed, err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%w: zip entry %s: %v", domain.ErrExtractionFailed, f.Name, err)
		}
		err = writeFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// safeTarget joins an archive entry name onto destDir, rejecting entries
// that would escape it.
func safeTarget(destDir, name string) (string, bool) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", false
	}
	return target, true
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir: %v", domain.ErrExtractionFailed, err)
	}

	if mode&0o400 == 0 {
		mode |= 0o600
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrExtractionFailed, target, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrExtractionFailed, target, err)
	}

	return out.Close()
}
