package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/core"
)

// FileStore persists the address IP history as a JSON object on disk. The
// file is created empty on first load so a fresh deployment starts from a
// valid state.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Load reads the history, creating an empty file when none exists.
func (s *FileStore) Load(ctx context.Context) (core.IPHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if writeErr := os.WriteFile(s.path, []byte("{}\n"), 0o644); writeErr != nil {
			return nil, fmt.Errorf("create state file: %w", writeErr)
		}
		s.logger.Info("Created empty address IP history", zap.String("path", s.path))
		return core.IPHistory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	history := core.IPHistory{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &history); err != nil {
			return nil, fmt.Errorf("parse state file: %w", err)
		}
	}
	return history, nil
}

// Save writes the history back to disk atomically.
func (s *FileStore) Save(ctx context.Context, history core.IPHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
