package collection_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cory-johannsen/menagerie/internal/game/collection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifestYAML = `
id: starter
name: Starter Collection
description: The first wave of monsters.
max_supply: 1000
seed_label: starter-v1
`

// TestLoadManifestFromBytes covers parsing and validation of a single
// manifest document.
func TestLoadManifestFromBytes(t *testing.T) {
	m, err := collection.LoadManifestFromBytes([]byte(validManifestYAML))
	require.NoError(t, err)

	assert.Equal(t, "starter", m.ID)
	assert.Equal(t, "Starter Collection", m.Name)
	assert.Equal(t, uint64(1000), m.MaxSupply)
	assert.Equal(t, "starter-v1", m.SeedLabel)
	assert.False(t, m.Unlimited())
}

// TestLoadManifestFromBytes_Invalid covers the rejection cases.
func TestLoadManifestFromBytes_Invalid(t *testing.T) {
	_, err := collection.LoadManifestFromBytes([]byte("name: No ID"))
	assert.Error(t, err, "missing id")

	_, err = collection.LoadManifestFromBytes([]byte("id: anon"))
	assert.Error(t, err, "missing name")

	_, err = collection.LoadManifestFromBytes([]byte("{not yaml"))
	assert.Error(t, err, "malformed yaml")
}

// TestManifest_Unlimited verifies the zero cap convention.
func TestManifest_Unlimited(t *testing.T) {
	m := collection.Manifest{ID: "open", Name: "Open", MaxSupply: 0}
	assert.True(t, m.Unlimited())
}

// TestLoadManifests reads a directory of YAML files, skipping non-YAML
// entries, and rejects duplicate collection ids.
func TestLoadManifests(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "starter.yaml"), []byte(validManifestYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.yaml"), []byte("id: second\nname: Second\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	manifests, err := collection.LoadManifests(dir)
	require.NoError(t, err)
	require.Len(t, manifests, 2)

	m, err := collection.FindManifest(manifests, "starter")
	require.NoError(t, err)
	assert.Equal(t, "Starter Collection", m.Name)

	_, err = collection.FindManifest(manifests, "missing")
	assert.Error(t, err)
}

// TestLoadManifests_DuplicateID verifies two files declaring the same id
// fail the whole load.
func TestLoadManifests_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("id: dup\nname: A\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("id: dup\nname: B\n"), 0o644))

	_, err := collection.LoadManifests(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dup")
}

// TestLoadManifests_MissingDir verifies a readable-directory precondition
// failure surfaces as an error.
func TestLoadManifests_MissingDir(t *testing.T) {
	_, err := collection.LoadManifests(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
