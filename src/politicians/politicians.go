// Package politicians manages the roster of tracked officials, loaded
// from a JSON configuration file keyed by politician key.
package politicians

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/username/tradewatch/src/models"
)

// Manager loads and serves the politician roster.
type Manager struct {
	path   string
	roster map[string]models.Politician
}

// NewManager reads the roster file at path. A missing file is not an
// error: a default roster is written so a fresh deployment starts with
// something to track.
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path, roster: make(map[string]models.Politician)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		m.roster = defaultRoster()
		if saveErr := m.Save(); saveErr != nil {
			return nil, fmt.Errorf("politicians: writing default roster: %w", saveErr)
		}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("politicians: reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &m.roster); err != nil {
		return nil, fmt.Errorf("politicians: parsing %s: %w", path, err)
	}
	for key, p := range m.roster {
		if p.Key == "" {
			p.Key = key
			m.roster[key] = p
		}
	}
	return m, nil
}

// Save writes the roster back to its file.
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.roster, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Get returns the politician for a key, if present.
func (m *Manager) Get(key string) (models.Politician, bool) {
	p, ok := m.roster[key]
	return p, ok
}

// Add inserts or replaces a roster entry and persists the file.
func (m *Manager) Add(p models.Politician) error {
	if p.Key == "" {
		return fmt.Errorf("politicians: entry is missing a key")
	}
	m.roster[p.Key] = p
	return m.Save()
}

// Active returns the tracked politicians with active status, in stable
// key order so runs process them deterministically.
func (m *Manager) Active() []models.Politician {
	var out []models.Politician
	for _, p := range m.roster {
		if p.Active() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func defaultRoster() map[string]models.Politician {
	return map[string]models.Politician{
		"pelosi": {
			Key:        "pelosi",
			FullName:   "Nancy Pelosi",
			SearchName: "Pelosi, Nancy",
			Party:      "Democratic",
			State:      "CA",
			Chamber:    "House",
			Status:     "active",
		},
	}
}
