package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/alexandriatwo/alexandria/internal/ingest"
	"github.com/alexandriatwo/alexandria/internal/query"
	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/sharded"
)

// queryCacheTTL bounds how long a word-index Find result is served from
// cache before falling back to the shard readers again.
const queryCacheTTL = 30 * time.Second

func newCmd_Query() *cli.Command {
	return &cli.Command{
		Name:        "query",
		Usage:       "Run one query against the merged indices and print ranked results as JSON.",
		Description: "Tokenizes the query, probes the word, link, and domain-link indices, and prints the combined, ranked result.",
		ArgsUsage:   "<query text>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("query: missing query text argument")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			o, err := ingest.New(cfg)
			if err != nil {
				return err
			}

			wordReaders, err := openShards(o, ingest.DBWord, record.WordCodec, cfg.WordIndex.HashSize)
			if err != nil {
				return err
			}
			defer closeAll(wordReaders)

			linkReaders, err := openShards(o, ingest.DBLink, record.LinkCodec, cfg.LinkIndex.HashSize)
			if err != nil {
				return err
			}
			defer closeAll(linkReaders)

			domainReaders, err := openShards(o, ingest.DBDomainLink, record.DomainLinkCodec, cfg.DomainLinkIndex.HashSize)
			if err != nil {
				return err
			}
			defer closeAll(domainReaders)

			m := &query.Manager{
				WordIndex:       sharded.New(wordReaders).WithLabel("word").WithCache(queryCacheTTL),
				LinkIndex:       sharded.New(linkReaders).WithLabel("link"),
				DomainLinkIndex: sharded.New(domainReaders).WithLabel("domain_link"),
			}

			result, err := m.Find(c.Args().First())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
