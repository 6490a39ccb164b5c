package streamid

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrNotFound means no reusable stream id has been persisted yet.
var ErrNotFound = errors.New("reusable stream id not found")

// Store persists the single reusable ingestion stream id across runs.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, id string) error
}

// FileStore keeps the id as one trimmed line in a local file.
type FileStore struct {
	Path string
}

func (s *FileStore) Load(ctx context.Context) (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.Path, err)
	}
	id := strings.TrimSpace(string(b))
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *FileStore) Save(ctx context.Context, id string) error {
	if err := os.WriteFile(s.Path, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}
