package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store writes documents under a base directory with overwrite semantics.
// Writes are atomic (tmp file + rename) so a crashed run never leaves a
// half-written artifact at the well-known name. The same deterministic name
// always lands at the same path, which is what makes manual re-runs safe.
type Store struct {
	dir           string
	exportDir     string
	publicBaseURL string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// WithPublic configures the best-effort public location: Publish copies the
// stored file into exportDir (the directory an external sync or pages
// deploy picks up) and returns baseURL/filename.
func (s *Store) WithPublic(exportDir, baseURL string) *Store {
	s.exportDir = exportDir
	s.publicBaseURL = baseURL
	return s
}

func (s *Store) Save(_ context.Context, filename string, content []byte) (string, error) {
	path := filepath.Join(s.dir, filename)
	if err := atomicWrite(path, content); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) Publish(_ context.Context, filename string) (string, error) {
	if s.exportDir == "" {
		return "", fmt.Errorf("public export not configured")
	}
	src := filepath.Join(s.dir, filename)
	content, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read artifact for publish: %w", err)
	}
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	if err := atomicWrite(filepath.Join(s.exportDir, filename), content); err != nil {
		return "", err
	}
	return s.publicBaseURL + "/" + filename, nil
}

func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, ".tmp."+filepath.Base(path))
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
