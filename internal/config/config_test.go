package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
word_index:
  db_name: words
  hash_size: 49999
  shard_count: 256
link_index:
  db_name: links
  hash_size: 699999
  shard_count: 2001
domain_link_index:
  db_name: domain_links
  hash_size: 699999
  shard_count: 2001
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultLinkTextMaxBytes, c.LinkTextMaxBytes)
	require.Equal(t, []string{"."}, c.Mounts)
	require.Equal(t, 256, c.WordIndex.ShardCount)
	require.Equal(t, 2001, c.LinkIndex.ShardCount)
}

func TestMountSpreadsByShardIDModLenMounts(t *testing.T) {
	c := &Config{Mounts: []string{"/mnt/a", "/mnt/b", "/mnt/c"}}
	require.Equal(t, "/mnt/a", c.Mount(0))
	require.Equal(t, "/mnt/b", c.Mount(1))
	require.Equal(t, "/mnt/a", c.Mount(3))
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
