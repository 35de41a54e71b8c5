package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const dbIndexFileName = "db_info.index"

// Storage is the top-level catalog of Databases rooted at a data
// directory. It is reconstructed from disk at process start and mutated
// only by CreateDatabase.
type Storage struct {
	mu  sync.RWMutex
	dir string
	dbs map[string]*Database
}

// Open reconstructs a Storage from an existing data directory, creating
// it (empty) if it does not yet exist.
func Open(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	indexPath := filepath.Join(dir, dbIndexFileName)
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		if err := os.WriteFile(indexPath, nil, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", dbIndexFileName, err)
		}
	}
	names, err := readIndex(indexPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dbIndexFileName, err)
	}
	dbs := make(map[string]*Database, len(names))
	for _, name := range names {
		dbDir := filepath.Join(dir, name)
		info, statErr := os.Stat(dbDir)
		if statErr != nil || !info.IsDir() {
			found := "nothing"
			if statErr == nil {
				found = "a file"
			}
			return nil, &InconsistentDataDirectoryError{Path: dbDir, Required: "directory", Found: found}
		}
		db, err := OpenDatabase(dbDir)
		if err != nil {
			return nil, err
		}
		dbs[name] = db
	}
	return &Storage{dir: dir, dbs: dbs}, nil
}

// GetDatabase returns the named database, or nil if it does not exist.
func (s *Storage) GetDatabase(name string) *Database {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dbs[name]
}

// CreateDatabase creates a new, empty database named name with the given
// configuration. It fails with AlreadyExistsError if the name is taken.
func (s *Storage) CreateDatabase(name string, conf Config) (*Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.dbs[name]; exists {
		return nil, &AlreadyExistsError{Type: "database", Name: name}
	}
	db, err := InitializeDatabase(filepath.Join(s.dir, name), conf)
	if err != nil {
		return nil, err
	}
	s.dbs[name] = db
	if err := s.rewriteIndexLocked(); err != nil {
		return nil, err
	}
	return db, nil
}

func (s *Storage) rewriteIndexLocked() error {
	names := make([]string, 0, len(s.dbs))
	for name := range s.dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	content := strings.Join(names, "\n")
	if err := os.WriteFile(filepath.Join(s.dir, dbIndexFileName), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dbIndexFileName, err)
	}
	return nil
}
