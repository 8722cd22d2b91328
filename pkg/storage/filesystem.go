package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore reads and writes execution artefacts inside a working directory.
type LocalStore struct {
	dir string
}

// NewLocalStore ensures the working directory exists and returns a handle.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("working directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create working directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// GetInput reads `input.json` from the working directory.
func (s *LocalStore) GetInput(_ context.Context) ([]byte, error) {
	body, err := os.ReadFile(filepath.Join(s.dir, "input.json"))
	if err != nil {
		return nil, fmt.Errorf("read input document: %w", err)
	}
	return body, nil
}

// PutOutput writes `output.json` into the working directory.
func (s *LocalStore) PutOutput(_ context.Context, body []byte) error {
	path := filepath.Join(s.dir, "output.json")
	if err := os.WriteFile(path, append(body, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output document: %w", err)
	}
	return nil
}

// PutText writes `<name>.txt` into the working directory.
func (s *LocalStore) PutText(_ context.Context, name, content string) error {
	path := filepath.Join(s.dir, name+".txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write artefact %s: %w", name, err)
	}
	return nil
}
