// Package settings provides a small file-backed store for mutable
// runtime settings: the sheet-sync configuration and the active
// evaluation period. The store is loaded once at construction and
// persisted on every write; it is injected where needed rather than
// held as process-global state.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// SheetSync configures the external spreadsheet-sync collaborator.
type SheetSync struct {
	URL         string    `json:"url"`
	AutoSync    bool      `json:"auto_sync"`
	LastUpdated time.Time `json:"last_updated"`
}

// Settings is the persisted document.
type Settings struct {
	SheetSync *SheetSync `json:"sheet_sync,omitempty"`
	// EvaluationMonth and EvaluationYear pin the currently active
	// evaluation period. Zero values mean "use the calendar month".
	EvaluationMonth int `json:"evaluation_month,omitempty"`
	EvaluationYear  int `json:"evaluation_year,omitempty"`
}

// Store holds settings in memory and mirrors every change to a JSON
// file.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings Settings
}

// NewStore loads the settings file if it exists; a missing file means
// empty settings.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := json.Unmarshal(data, &s.settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return s, nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSheetSync replaces the sheet-sync configuration and persists.
func (s *Store) SetSheetSync(cfg SheetSync) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg.LastUpdated = time.Now().UTC()
	s.settings.SheetSync = &cfg
	return s.persist()
}

// SetEvaluationPeriod pins the active evaluation period and persists.
func (s *Store) SetEvaluationPeriod(month, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.EvaluationMonth = month
	s.settings.EvaluationYear = year
	return s.persist()
}

// ActivePeriod returns the pinned evaluation period, falling back to
// the current calendar month.
func (s *Store) ActivePeriod(now time.Time) (month, year int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings.EvaluationMonth >= 1 && s.settings.EvaluationMonth <= 12 && s.settings.EvaluationYear > 0 {
		return s.settings.EvaluationMonth, s.settings.EvaluationYear
	}
	return int(now.Month()), now.Year()
}

func (s *Store) persist() error {
	data, err := json.MarshalIndent(&s.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
