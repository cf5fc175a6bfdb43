// Package filestore persists finished training sessions as one JSON file
// per session.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"allersim/internal/logging"
	"allersim/internal/session"
)

// Store writes session records under a base directory.
type Store struct {
	baseDir string
	logger  logging.Logger
}

// New creates the base directory if needed. "~/" prefixes expand to the
// user's home directory.
func New(baseDir string) (*Store, error) {
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("filestore: resolve home: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", baseDir, err)
	}
	return &Store{
		baseDir: baseDir,
		logger:  logging.NewComponentLogger("SessionFileStore"),
	}, nil
}

// Save writes the record exclusively, assigning an ID when it has none.
func (s *Store) Save(record *session.Record) error {
	if record == nil {
		return fmt.Errorf("filestore: nil record")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: marshal session: %w", err)
	}

	path := filepath.Join(s.baseDir, record.ID+".json")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("filestore: create session file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("filestore: write session: %w", err)
	}

	s.logger.Info("session %s saved (score %d)", record.ID, record.Assessment.TotalScore)
	return nil
}

// Load reads one session by ID.
func (s *Store) Load(id string) (*session.Record, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("filestore: session not found: %s", id)
	}
	var record session.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("filestore: decode session %s: %w", id, err)
	}
	return &record, nil
}

// List returns all stored session IDs, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("filestore: list sessions: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
