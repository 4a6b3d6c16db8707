package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/alexandriatwo/alexandria/internal/ingest"
	"github.com/alexandriatwo/alexandria/internal/record"
)

func newCmd_Stats() *cli.Command {
	return &cli.Command{
		Name:        "stats",
		Usage:       "Print per-shard statistics for one index.",
		Description: "Supplements original_source's index<data_record>::print_stats: total keys, total posting bitmap bytes, total cardinality, and record/unique counts for every shard of the chosen index.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "index", Usage: "which index to report on: word, link, or domain_link", Required: true},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			o, err := ingest.New(cfg)
			if err != nil {
				return err
			}

			var db ingest.DB
			var codec record.Codec
			var hashSize uint64
			switch c.String("index") {
			case "word":
				db, codec, hashSize = ingest.DBWord, record.WordCodec, cfg.WordIndex.HashSize
			case "link":
				db, codec, hashSize = ingest.DBLink, record.LinkCodec, cfg.LinkIndex.HashSize
			case "domain_link":
				db, codec, hashSize = ingest.DBDomainLink, record.DomainLinkCodec, cfg.DomainLinkIndex.HashSize
			default:
				return fmt.Errorf("unknown index %q: want word, link, or domain_link", c.String("index"))
			}

			readers, err := openShards(o, db, codec, hashSize)
			if err != nil {
				return err
			}
			defer closeAll(readers)

			for shardID, r := range readers {
				s, err := r.Stats()
				if err != nil {
					return err
				}
				fmt.Printf("shard %d: keys=%d records=%d unique=%d bitmap_bytes=%d cardinality=%d\n",
					shardID, s.TotalKeys, s.RecordCount, s.UniqueCount, s.TotalBitmapSize, s.TotalCardinality)
			}
			return nil
		},
	}
}
