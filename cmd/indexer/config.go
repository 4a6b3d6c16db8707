package main

import (
	"github.com/urfave/cli/v2"

	"github.com/alexandriatwo/alexandria/internal/config"
	"github.com/alexandriatwo/alexandria/internal/ingest"
	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/shard"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String(FlagConfig.Name))
}

// openShards opens every merged shard of db for reading, in shard order.
func openShards(o *ingest.Orchestrator, db ingest.DB, codec record.Codec, hashSize uint64) ([]*shard.Reader, error) {
	shardCount := o.ShardCount(db)
	readers := make([]*shard.Reader, 0, shardCount)
	for shardID := 0; shardID < shardCount; shardID++ {
		src, err := shard.OpenFile(o.DataPath(db, shardID))
		if err != nil {
			closeAll(readers)
			return nil, err
		}
		uc, err := shard.ReadMeta(o.MetaPath(db, shardID))
		if err != nil {
			src.Close()
			closeAll(readers)
			return nil, err
		}
		r, err := shard.Open(src, o.DataPath(db, shardID), hashSize, uc, codec)
		if err != nil {
			src.Close()
			closeAll(readers)
			return nil, err
		}
		readers = append(readers, r)
	}
	return readers, nil
}

func closeAll(readers []*shard.Reader) {
	for _, r := range readers {
		r.Close()
	}
}

