package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// FileStore writes objects as files under a directory.
type FileStore struct {
	dir    string
	logger logging.Logger
}

// NewFileStore creates dir when missing.
func NewFileStore(dir string, log logging.Logger) (*FileStore, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to create export directory")
	}
	return &FileStore{dir: dir, logger: log.Named("storage.file")}, nil
}

// Dir returns the target directory.
func (s *FileStore) Dir() string { return s.dir }

// Save writes obj atomically through a temp file and rename.
func (s *FileStore) Save(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "export cancelled")
	}
	path := filepath.Join(s.dir, SanitizeKey(obj.Key))

	tmp, err := os.CreateTemp(s.dir, ".export-*")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to create export file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(obj.Data); err != nil {
		tmp.Close()
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to write export file")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to write export file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to place export file")
	}

	s.logger.Info("export written", logging.String("path", path), logging.Int("bytes", len(obj.Data)))
	return path, nil
}
