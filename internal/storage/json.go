package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tso/internal/domain"
)

// Save writes the journal to the JSON file, replacing the previous run.
func (s *JSONStorage) Save(j *domain.Journal) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	// Write to a sibling and rename so a crash never leaves half a journal
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Load reads the last journal from the JSON file.
func (s *JSONStorage) Load() (*domain.Journal, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	var j domain.Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse journal: %w", err)
	}
	return &j, nil
}
