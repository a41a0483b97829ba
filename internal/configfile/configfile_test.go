package configfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minimap-pm/minimap/internal/configfile"
)

func TestLoadValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".minimap")
	require.NoError(t, os.WriteFile(path, []byte("remote = \"https://example.com/repo.git\"\ntype = \"git\"\n"), 0o644))

	cfg, err := configfile.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/repo.git", cfg.Remote)
	require.Equal(t, configfile.BackendGit, cfg.Type)
}

func TestLoadMissingRemote(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".minimap")
	require.NoError(t, os.WriteFile(path, []byte("type = \"git\"\n"), 0o644))

	_, err := configfile.Load(path)
	require.Error(t, err)
}

func TestLoadUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".minimap")
	require.NoError(t, os.WriteFile(path, []byte("remote = \"x\"\ntype = \"svn\"\n"), 0o644))

	_, err := configfile.Load(path)
	require.Error(t, err)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".minimap")
	cfg := &configfile.Config{Remote: "git@example.com:repo.git", Type: configfile.BackendGit}
	require.NoError(t, configfile.Save(path, cfg))

	loaded, err := configfile.Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Remote, loaded.Remote)
	require.Equal(t, cfg.Type, loaded.Type)
}

func TestDiscoverWalksUpward(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".minimap")
	require.NoError(t, os.WriteFile(path, []byte("remote = \"x\"\ntype = \"git\"\n"), 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := configfile.Discover(nested)
	require.NoError(t, err)
	resolvedRoot, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	resolvedFound, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	require.Equal(t, resolvedRoot, resolvedFound)
}

func TestDiscoverNotFound(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	_, err := configfile.Discover(nested)
	require.Error(t, err)
}
