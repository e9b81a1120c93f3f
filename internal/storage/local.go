package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hweber/particletrack/internal/domain"
)

// LocalStore implements BlobStore on the local filesystem. Used by the batch
// CLI and in development, where an object-store endpoint is overkill.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the target directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Store writes data under a suffixed variant of nameHint.
func (s *LocalStore) Store(ctx context.Context, nameHint string, data []byte) (*StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := suffixName(filepath.Base(nameHint))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: write file: %v", domain.ErrBlobUnavailable, err)
	}

	return &StoredObject{URL: s.URL(name), Path: name}, nil
}

// URL returns a file URL for a stored path.
func (s *LocalStore) URL(path string) string {
	abs, err := filepath.Abs(filepath.Join(s.dir, path))
	if err != nil {
		abs = filepath.Join(s.dir, path)
	}
	return "file://" + abs
}

// Delete removes a stored file.
func (s *LocalStore) Delete(ctx context.Context, path string) error {
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(path))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove file: %v", domain.ErrBlobUnavailable, err)
	}
	return nil
}

// suffixName inserts a short random token before the extension so repeated
// uploads of the same client filename never collide.
func suffixName(nameHint string) string {
	if nameHint == "" {
		nameHint = "upload"
	}
	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]

	base := nameHint
	extension := ""
	if idx := strings.LastIndex(nameHint, "."); idx > 0 {
		base = nameHint[:idx]
		extension = nameHint[idx:]
	}
	return fmt.Sprintf("%s-%s%s", base, token, extension)
}
