package main

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/alexandriatwo/alexandria/internal/ingest"
)

func newCmd_Merge() *cli.Command {
	return &cli.Command{
		Name:        "merge",
		Usage:       "Merge every shard's append log into its canonical shard file.",
		Description: "Reads each shard's append log, assigns dense document ids, builds posting bitmaps, and writes the canonical shard file and metadata sidecar. Readers must be quiescent while this runs.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "concurrency", Usage: "number of shards merged in parallel", Value: runtime.NumCPU()},
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
			if err := o.MergeAll(c.Context, c.Int("concurrency")); err != nil {
				return err
			}
			fmt.Println("merge complete")
			return nil
		},
	}
}
