// Package collection implements the monster ledger: identifier assignment,
// ownership, supply enforcement, and creation notifications.
package collection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes one monster collection loaded from YAML.
type Manifest struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// MaxSupply caps the number of mintable monsters. Zero means unlimited.
	MaxSupply uint64 `yaml:"max_supply"`
	// SeedLabel is mixed into entropy-derived seeds for this collection.
	SeedLabel string `yaml:"seed_label"`
}

// Validate checks that the manifest satisfies basic invariants.
//
// Precondition: m must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty; returns an error
// on the first violation otherwise.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("collection manifest: id must not be empty")
	}
	if m.Name == "" {
		return fmt.Errorf("collection manifest %q: name must not be empty", m.ID)
	}
	return nil
}

// Unlimited reports whether the collection has no supply cap.
func (m *Manifest) Unlimited() bool {
	return m.MaxSupply == 0
}

// LoadManifestFromBytes parses a single manifest from raw YAML bytes.
//
// Postcondition: Returns a validated *Manifest, or an error.
func LoadManifestFromBytes(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest YAML: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads and validates one manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	m, err := LoadManifestFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return m, nil
}

// LoadManifests reads all *.yaml files in dir and returns the parsed
// manifests.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all manifests or an error on the first parse or
// validate failure; on error, the partial result is discarded. Duplicate ids
// across files are an error.
func LoadManifests(dir string) ([]*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading collections dir %q: %w", dir, err)
	}

	seen := make(map[string]string)
	var manifests []*Manifest
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		m, err := LoadManifest(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("collection id %q in %q already defined in %q", m.ID, path, prev)
		}
		seen[m.ID] = path
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// FindManifest returns the manifest with the given id from manifests.
func FindManifest(manifests []*Manifest, id string) (*Manifest, error) {
	for _, m := range manifests {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("collection %q not found among %d loaded manifests", id, len(manifests))
}
