package cfgfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pump-mode":"randbin","chunk-size":4096}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "randbin", cfg["pump_mode"])
	require.EqualValues(t, 4096, cfg["chunk_size"])
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pump-mode: markov\nrate: 1024\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "markov", cfg["pump_mode"])
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte("pump-mode = \"bin0\"\nsize = 1024\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "bin0", cfg["pump_mode"])
}

func TestLoadUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestMergeCLIOverridesFile(t *testing.T) {
	base := map[string]any{"pump_mode": "word", "rate": 1024}
	override := map[string]any{"pump_mode": "randbin"}
	merged := Merge(base, override)
	require.Equal(t, "randbin", merged["pump_mode"])
	require.EqualValues(t, 1024, merged["rate"])
}
