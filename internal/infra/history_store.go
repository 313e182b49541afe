package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

const historyFileName = "score_history.json"

// FileHistoryStore implements domain.HistoryStore using a JSON file.
type FileHistoryStore struct {
	path string
}

// NewFileHistoryStore creates a store in dataDir.
func NewFileHistoryStore(dataDir string) domain.HistoryStore {
	return &FileHistoryStore{path: filepath.Join(dataDir, historyFileName)}
}

// NewFileHistoryStoreWithPath creates a store at a specific path (for testing).
func NewFileHistoryStoreWithPath(path string) *FileHistoryStore {
	return &FileHistoryStore{path: path}
}

// Path returns the history file path.
func (s *FileHistoryStore) Path() string {
	return s.path
}

// Load returns the stored document, or an empty one if the file does not exist.
func (s *FileHistoryStore) Load() (*domain.ScoreHistoryDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &domain.ScoreHistoryDocument{Version: catalog.HistoryVersion}, nil
		}
		return nil, fsError("read", s.path, err)
	}

	var doc domain.ScoreHistoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, domain.NewOpError("parse history", s.path, domain.ErrMalformedOutput, "", err)
	}
	if doc.Version == "" {
		doc.Version = catalog.HistoryVersion
	}
	return &doc, nil
}

// Save writes the document atomically (write + rename).
func (s *FileHistoryStore) Save(doc *domain.ScoreHistoryDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return err
	}
	return nil
}

// Ensure FileHistoryStore implements domain.HistoryStore.
var _ domain.HistoryStore = (*FileHistoryStore)(nil)
