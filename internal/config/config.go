// Package config loads the process-wide, read-only settings every worker
// closes over: hash-table sizes, shard counts, and mount layout. Loaded
// once at startup, never mutated afterward.
//
// Grounded on the teacher's pattern of a single config value shared by
// long-lived workers (yellowstone-faithful's config.Config), reworked to
// this system's own fields and decoded with gopkg.in/yaml.v3, already a
// direct teacher dependency alongside yaml.v2.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alexandriatwo/alexandria/internal/errs"
)

// IndexConfig describes one sharded index's on-disk shape.
type IndexConfig struct {
	DBName     string `yaml:"db_name"`
	HashSize   uint64 `yaml:"hash_size"`
	ShardCount int    `yaml:"shard_count"`
}

// Config is the top-level, immutable configuration for one indexer process.
type Config struct {
	// Mounts lists the filesystem roots shards are spread across by
	// shard_id mod len(Mounts), per spec §6's filesystem layout.
	Mounts []string `yaml:"mounts"`

	WordIndex       IndexConfig `yaml:"word_index"`
	LinkIndex       IndexConfig `yaml:"link_index"`
	DomainLinkIndex IndexConfig `yaml:"domain_link_index"`

	// ByteBudget bounds a builder's in-memory cache before it must flush,
	// per spec §4.4 ("e.g. 250 MB per shard"). Zero means use the
	// builder package's own default.
	ByteBudget int `yaml:"byte_budget"`

	// LinkTextMaxBytes truncates ingested link text, per
	// index_manager.cpp's col_values[4].substr(0, 1000).
	LinkTextMaxBytes int `yaml:"link_text_max_bytes"`
}

// DefaultMountSpread is original_source's hardcoded mountpoint() modulus
// (shard_id mod 8). Mount does not use it: the spread width is always
// len(Mounts), and Load defaults Mounts to the single entry ".".
const DefaultMountSpread = 8

// DefaultLinkTextMaxBytes is index_manager.cpp's link-text truncation
// length.
const DefaultLinkTextMaxBytes = 1000

// Load reads and decodes a YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Io(path, 0, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errs.Corrupt(path, 0, err.Error())
	}
	if c.LinkTextMaxBytes <= 0 {
		c.LinkTextMaxBytes = DefaultLinkTextMaxBytes
	}
	if len(c.Mounts) == 0 {
		c.Mounts = []string{"."}
	}
	return &c, nil
}

// Mount returns the mount directory for shardID, spread by shard_id mod
// len(Mounts), matching original_source's index<data_record>::mountpoint().
func (c *Config) Mount(shardID int) string {
	return c.Mounts[shardID%len(c.Mounts)]
}
