package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	DefaultStorageFileName = ".banny-bridge-history.json"
)

// Record is one submitted deposit, as shown by the history command.
type Record struct {
	TxHash       string    `json:"tx_hash"`
	FromChain    string    `json:"from_chain"`
	ToChain      string    `json:"to_chain"`
	TokenSymbol  string    `json:"token_symbol"`
	InputAmount  string    `json:"input_amount"`
	OutputAmount string    `json:"output_amount"`
	Recipient    string    `json:"recipient"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// fileFormat is the JSON structure for storage
type fileFormat struct {
	Records []Record `json:"records"`
}

// Storage persists deposit records to a JSON file
type Storage struct {
	filePath string
	mu       sync.RWMutex
	records  []Record
}

// NewStorage creates a new storage instance
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		// Default to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{filePath: filePath}

	// Load existing records if the file exists
	if err := storage.load(); err != nil {
		// Missing file is fine - it is created on first save
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
	}

	return storage, nil
}

// load reads records from the storage file
func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	s.records = f.Records
	return nil
}

// save writes records to the storage file
func (s *Storage) save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(fileFormat{Records: s.records}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Append adds a record and persists immediately
func (s *Storage) Append(r Record) error {
	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()

	return s.save()
}

// List returns all records, most recent first
func (s *Storage) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

// ListByChain returns records filtered by source chain name
func (s *Storage) ListByChain(chain string) []Record {
	out := make([]Record, 0)
	for _, r := range s.List() {
		if r.FromChain == chain {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the total number of records
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// GetFilePath returns the storage file path
func (s *Storage) GetFilePath() string {
	return s.filePath
}
