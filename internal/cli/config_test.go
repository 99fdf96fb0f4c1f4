package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefaultConfigYAMLLoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luadoc.yml")
	require.NoError(t, writeDefaultConfig(path))

	opts := defaultExtractOptions()
	opts.ConfigPath = path
	require.NoError(t, loadConfigFile(&opts))
	assert.Equal(t, defaultExtractOptions().Format, opts.Format)
	assert.Equal(t, defaultExtractOptions().Jobs, opts.Jobs)
}

func TestWriteDefaultConfigTOMLLoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luadoc.toml")
	require.NoError(t, writeDefaultConfig(path))

	opts := defaultExtractOptions()
	opts.ConfigPath = path
	require.NoError(t, loadConfigFile(&opts))
	assert.Equal(t, []string{"lua"}, opts.Extensions)
}

func TestWriteDefaultConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luadoc.yml")
	require.NoError(t, os.WriteFile(path, []byte("extract: {}\n"), 0o644))
	assert.Error(t, writeDefaultConfig(path))
}

func TestWriteDefaultConfigUnsupportedExtension(t *testing.T) {
	assert.Error(t, writeDefaultConfig(filepath.Join(t.TempDir(), "luadoc.json")))
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "extract")
	assert.Contains(t, names, "config")
}
