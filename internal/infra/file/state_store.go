package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"netexam/internal/domain"
)

// StateStore persists the state record as a JSON file so other processes on
// the same host can read it. Writes go to a temp file that is renamed over
// the target, so readers never observe a partial record.
type StateStore struct {
	path string
}

func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

func (s *StateStore) SaveState(_ context.Context, rec domain.StateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// LoadState treats a missing or corrupt file as no prior state.
func (s *StateStore) LoadState(_ context.Context) (domain.StateRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.StateRecord{}, domain.ErrStateNotFound
	}
	if err != nil {
		return domain.StateRecord{}, fmt.Errorf("read state: %w", err)
	}
	var rec domain.StateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.StateRecord{}, fmt.Errorf("%w: %v", domain.ErrStateNotFound, err)
	}
	return rec, nil
}
