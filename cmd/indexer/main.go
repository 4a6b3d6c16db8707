package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

var gitCommitSHA = ""

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}

		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "indexer",
		Version:     gitCommitSHA,
		Description: "Build, merge and query the sharded word/link/domain-link index.",
		Before: func(c *cli.Context) error {
			return nil
		},
		Flags: []cli.Flag{
			FlagConfig,
		},
		Action: nil,
		Commands: []*cli.Command{
			newCmd_Ingest(),
			newCmd_Merge(),
			newCmd_Query(),
			newCmd_Truncate(),
			newCmd_Stats(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Error(err)
		os.Exit(1)
	}
}

// FlagConfig names the YAML config file every subcommand loads its
// Orchestrator/Manager from, per spec §6's "no flags controlling the
// storage format itself" rule: this is the only input the CLI surface
// takes beyond subcommand-specific file paths.
var FlagConfig = &cli.StringFlag{
	Name:     "config",
	Aliases:  []string{"c"},
	Usage:    "path to the index config YAML file",
	Required: true,
}
