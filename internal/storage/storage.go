package storage

import (
	"tso/internal/config"
	"tso/internal/domain"
)

// Storage persists and loads the result journal (e.g. for the failures viewer).
type Storage interface {
	Save(j *domain.Journal) error
	Load() (*domain.Journal, error)
}

// JSONStorage stores the journal in a JSON file under the configured path.
type JSONStorage struct {
	path string
}

// NewJSONStorage returns a Storage that reads/writes the config's journal path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{path: cfg.GetJournalPath()}
}

// NewJSONStorageAt returns a Storage for an explicit file
func NewJSONStorageAt(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the journal file
func (s *JSONStorage) Path() string {
	return s.path
}
