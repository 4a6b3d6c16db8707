package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/alexandriatwo/alexandria/internal/ingest"
)

func newCmd_Truncate() *cli.Command {
	return &cli.Command{
		Name:        "truncate",
		Usage:       "Delete every shard's canonical files and append log, then recreate its mount directory.",
		Description: "Destructive. Restores a pristine, empty index matching a freshly-initialized config.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			o, err := ingest.New(cfg)
			if err != nil {
				return err
			}
			if err := o.Truncate(); err != nil {
				return err
			}
			fmt.Println("truncate complete")
			return nil
		},
	}
}
