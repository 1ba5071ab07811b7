package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

// FileStore persists the session (credential + identity) as a JSON file
// readable only by the owner. It is the single thing that survives a
// process restart; resource caches never touch disk.
type FileStore struct {
	path string
}

func New(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credential store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create credential dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load returns the persisted session, or an unauthenticated zero session
// when no file exists. A corrupt or half-written file is treated the same
// way: the partial credential is discarded rather than surfaced.
func (s *FileStore) Load() (domain.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Session{}, nil
		}
		return domain.Session{}, fmt.Errorf("read credential file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, nil
	}
	if !session.Authenticated() {
		return domain.Session{}, nil
	}
	return session, nil
}

func (s *FileStore) Save(session domain.Session) error {
	if !session.Authenticated() {
		return fmt.Errorf("refusing to persist a partial session")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// Write-then-rename so a crash mid-save never leaves a torn file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}
