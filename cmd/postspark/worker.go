package main

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/postspark/postspark/worker"
)

func workerCommands() []*cli.Command {
	temporalFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "temporal-address",
			Aliases: []string{"ta"},
			Usage:   "Temporal server address",
			EnvVars: []string{"TEMPORAL_ADDRESS"},
			Value:   "localhost:7233",
		},
		&cli.StringFlag{
			Name:    "temporal-namespace",
			Aliases: []string{"tn"},
			Usage:   "Temporal namespace",
			EnvVars: []string{"TEMPORAL_NAMESPACE"},
			Value:   "default",
		},
	}
	return []*cli.Command{
		{
			Name:   "worker",
			Usage:  "Run the worker",
			Flags:  temporalFlags,
			Action: run_worker,
		},
		{
			Name:   "check-temporal",
			Usage:  "Verify the Temporal server is reachable",
			Flags:  temporalFlags,
			Action: check_temporal,
		},
	}
}

func run_worker(c *cli.Context) error {
	return worker.RunWorker(
		c.Context,
		getDefaultLogger(slog.LevelInfo),
		c.String("temporal-address"),
		c.String("temporal-namespace"),
	)
}

func check_temporal(c *cli.Context) error {
	return worker.CheckConnection(
		c.Context,
		getDefaultLogger(slog.LevelInfo),
		c.String("temporal-address"),
		c.String("temporal-namespace"),
	)
}
