package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/ports"
)

// JSONStateRepository keeps the last state of every entity in a single JSON
// file, keyed by unique id.
type JSONStateRepository struct {
	filepath string
	mu       sync.RWMutex
}

var _ ports.StateRepository = (*JSONStateRepository)(nil)

func NewJSONStateRepository(filepath string) *JSONStateRepository {
	return &JSONStateRepository{filepath: filepath}
}

// Get returns nil when nothing was saved for uniqueID.
func (r *JSONStateRepository) Get(ctx context.Context, uniqueID string) (*model.StateSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states, err := r.load()
	if err != nil {
		return nil, err
	}
	s, ok := states[uniqueID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *JSONStateRepository) Save(ctx context.Context, uniqueID string, snapshot model.StateSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	states, err := r.load()
	if err != nil {
		// Start over rather than never persisting again
		states = make(map[string]model.StateSnapshot)
	}
	states[uniqueID] = snapshot

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return err
	}

	tmp := r.filepath + ".tmp"
	if dir := filepath.Dir(r.filepath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.filepath)
}

func (r *JSONStateRepository) load() (map[string]model.StateSnapshot, error) {
	states := make(map[string]model.StateSnapshot)
	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return states, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return states, nil
	}
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", r.filepath, err)
	}
	return states, nil
}
