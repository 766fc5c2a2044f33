package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore keeps one JSON file per domain under a base directory. It is the
// client-side equivalent of browser local storage for a CLI process.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the base directory if needed and returns a store
// rooted there. Directory creation failure is logged, not returned: the
// store then behaves as permanently empty.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		logger.Warn("failed to create storage directory, persistence disabled",
			zap.String("dir", dir),
			zap.Error(err),
		)
	}
	return &FileStore{dir: dir, logger: logger}
}

func (s *FileStore) path(domain Domain) string {
	return filepath.Join(s.dir, string(domain)+".json")
}

func (s *FileStore) Save(domain Domain, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to serialize value for storage",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
		return
	}

	// Write-then-rename so a crash mid-write never leaves a truncated slot.
	tmp := s.path(domain) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.logger.Warn("failed to write storage file",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
		return
	}
	if err := os.Rename(tmp, s.path(domain)); err != nil {
		s.logger.Warn("failed to finalize storage file",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
	}
}

func (s *FileStore) Load(domain Domain, out any) bool {
	data, err := os.ReadFile(s.path(domain))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read storage file",
				zap.String("domain", string(domain)),
				zap.Error(err),
			)
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("corrupt data in storage, treating as empty",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (s *FileStore) Clear(domain Domain) {
	if err := os.Remove(s.path(domain)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to clear storage file",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
	}
}
