package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/alexandriatwo/alexandria/internal/ingest"
)

func newCmd_Ingest() *cli.Command {
	return &cli.Command{
		Name:        "ingest",
		Usage:       "Ingest word and link files into the append logs.",
		Description: "Tokenizes word and link files and appends their postings to each shard's append log. Does not merge.",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "word-file", Usage: "path to a word file (url, col1..col4, tab-separated)"},
			&cli.StringSliceFlag{Name: "link-file", Usage: "path to a link file (source_url, source_raw, target_url, target_raw, link_text)"},
			&cli.IntFlag{Name: "byte-budget", Usage: "per-shard in-memory cache budget before a flush, in bytes (0 = use the config's byte_budget, or the builder default if that is 0 too)"},
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
			budget := c.Int("byte-budget")
			if budget <= 0 {
				budget = cfg.ByteBudget
			}
			w := o.NewWorker(budget)

			for _, path := range c.StringSlice("word-file") {
				klog.Infof("ingest: word file %s", path)
				if err := w.IngestWordFile(path, ingest.DefaultURLResolver, nil); err != nil {
					return err
				}
			}
			for _, path := range c.StringSlice("link-file") {
				klog.Infof("ingest: link file %s", path)
				if err := w.IngestLinkFile(path, ingest.DefaultURLResolver, ingest.DefaultHarmonicScorer, ingest.DefaultLinkHasher, cfg.LinkTextMaxBytes, nil, nil); err != nil {
					return err
				}
			}

			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println("ingest complete")
			return nil
		},
	}
}
