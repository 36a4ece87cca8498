package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_DefaultsOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	settings, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, &Settings{}, settings)

	info, err := os.Stat(filepath.Join(dir, "selq"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSettings_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	want := &Settings{
		TelemetryEnabled: true,
		FirstRunComplete: true,
		SentryDSN:        "https://key@example.invalid/1",
		DefaultDocument:  "/srv/gis/city.yaml",
	}
	require.NoError(t, SaveSettings(want))

	got, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettings_Corrupt(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "selq"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "selq", "settings.json"), []byte("{"), 0o644))

	_, err := LoadSettings()
	require.Error(t, err)
}

func TestResolveDocumentPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SELQ_DOCUMENT", "")
	defer func() { documentPath = "" }()

	documentPath = ""
	assert.Equal(t, "selq.yaml", resolveDocumentPath())

	require.NoError(t, SaveSettings(&Settings{DefaultDocument: "from-settings.yaml"}))
	assert.Equal(t, "from-settings.yaml", resolveDocumentPath())

	t.Setenv("SELQ_DOCUMENT", "from-env.yaml")
	assert.Equal(t, "from-env.yaml", resolveDocumentPath())

	documentPath = "from-flag.yaml"
	assert.Equal(t, "from-flag.yaml", resolveDocumentPath())
}
