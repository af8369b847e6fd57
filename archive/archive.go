// Package archive retains a bounded history of downloaded client schema
// files, compressed with zstd, so an operator can diff a server's schema
// across deployments without needing every raw copy on disk (§6
// supplement: "persistence policy is out of scope" for the core, but a
// client is free to keep one).
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/m-lab/paramtree/zstd"
)

// newWriter and newReader are indirected, in the teacher's osPipe style,
// so tests can substitute a compressor that doesn't depend on the zstd
// binary being installed.
var (
	newWriter = zstd.NewWriter
	newReader = zstd.NewReader
)

// nameTimeFormat matches saver's connection-file convention: it sorts
// lexically in the same order it sorts chronologically, so Prune can find
// the oldest entries with a plain string comparison.
const nameTimeFormat = "20060102T150405.000"

// Store retains at most Retain compressed copies of each named schema,
// pruning the oldest whenever a new one pushes it over the limit.
type Store struct {
	Dir    string
	Retain int
}

// NewStore returns a Store rooted at dir, retaining the retain most
// recent copies per name. retain <= 0 means unbounded.
func NewStore(dir string, retain int) *Store {
	return &Store{Dir: dir, Retain: retain}
}

// Save compresses data and writes it under Dir as "<name>-<time>.xml.zst",
// then prunes older copies of name beyond Retain. It returns the path
// written.
func (s *Store) Save(name string, data []byte, now time.Time) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("archive: mkdir %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%s-%s.xml.zst", name, now.UTC().Format(nameTimeFormat)))

	w, err := newWriter(path)
	if err != nil {
		return "", fmt.Errorf("archive: open writer for %s: %w", path, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("archive: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("archive: close %s: %w", path, err)
	}

	if err := s.prune(name); err != nil {
		return path, err
	}
	return path, nil
}

// Load decompresses and returns the contents of a path previously
// returned by Save.
func (s *Store) Load(path string) ([]byte, error) {
	r, err := newReader(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open reader for %s: %w", path, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// List returns the archived paths for name, oldest first.
func (s *Store) List(name string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, name+"-*.xml.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Latest returns the most recently saved copy of name, or "" if none
// exist.
func (s *Store) Latest(name string) (string, error) {
	matches, err := s.List(name)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[len(matches)-1], nil
}

func (s *Store) prune(name string) error {
	if s.Retain <= 0 {
		return nil
	}
	matches, err := s.List(name)
	if err != nil {
		return err
	}
	for len(matches) > s.Retain {
		if err := os.Remove(matches[0]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("archive: prune %s: %w", matches[0], err)
		}
		matches = matches[1:]
	}
	return nil
}
