package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
  {"id": "sodium", "title": "Sodium", "downloads": 1200,
   "versions": [{"name": "Sodium 0.5", "number": "0.5.8", "file_url": "https://cdn/sodium.jar"}]},
  {"id": "lithium", "title": "Lithium"},
  {"id": "sodium-extra", "title": "Sodium Extra"}
]`

func writeCatalog(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0644))
	return path
}

func TestRunPrintsResults(t *testing.T) {
	path := writeCatalog(t)
	var out, errOut bytes.Buffer

	code := run([]string{"--source", "local", "--catalog", path, "--details", "1", "sodium"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	s := out.String()
	assert.Contains(t, s, "Sodium Extra")
	assert.NotContains(t, s, "Lithium")
	assert.Contains(t, s, "2 of 2 results in 1 page(s)")
	assert.Contains(t, s, "  Sodium 0.5")
}

func TestRunNoResults(t *testing.T) {
	path := writeCatalog(t)
	var out, errOut bytes.Buffer

	code := run([]string{"--source", "local", "--catalog", path, "zzz"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "no results")
}

func TestRunBadConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var out, errOut bytes.Buffer

	code := run([]string{"--source", "local"}, &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "catalog_file")
}
