package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/perlin-network/matcher/conf"
	"github.com/perlin-network/matcher/log"
	"github.com/perlin-network/matcher/sys"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()

	app.Name = "matcher"
	app.Author = "Perlin Network"
	app.Email = "support@perlin.net"
	app.Version = sys.Version
	app.Usage = "pair mentees with mentors by randomized local search"

	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "breadth, b",
			Value: conf.GetBreadth(),
			Usage: "neighbours sampled per level of a search tree",
		},
		cli.IntFlag{
			Name:  "depth, d",
			Value: conf.GetMaxDepth(),
			Usage: "initial depth of every search tree",
		},
		cli.IntFlag{
			Name:  "depth.limit",
			Value: conf.GetDepthLimit(),
			Usage: "deepest a search tree may grow to, 0 for no limit",
		},
		cli.IntFlag{
			Name:  "loops, n",
			Value: conf.GetLoopTimes(),
			Usage: "refinement rounds to run before giving up",
		},
		cli.IntFlag{
			Name:  "workers, w",
			Value: conf.GetWorkers(),
			Usage: "goroutines searching subtrees in parallel",
		},
		cli.Float64Flag{
			Name:  "ready.rank",
			Value: conf.GetReadyMeanRank(),
			Usage: "stop once a feasible pairing has a mean rank below this",
		},
		cli.DurationFlag{
			Name:  "interval",
			Value: conf.GetStepInterval(),
			Usage: "pause between steps of the watch command",
		},
		cli.DurationFlag{
			Name:  "metrics.interval",
			Value: conf.GetMetricsInterval(),
			Usage: "how often search metrics are logged",
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "random seed, 0 seeds from the clock",
		},
		cli.StringFlag{
			Name:  "loglevel, l",
			Value: "info",
			Usage: "minimum level at which logs will be printed to stderr",
		},
	}

	app.Before = func(c *cli.Context) error {
		log.SetLevel(c.String("loglevel"))
		log.SetWriter(log.LoggerMatcher, log.NewConsoleWriter(os.Stderr, log.AutoColor(os.Stderr)))

		conf.Update(
			conf.WithBreadth(c.Int("breadth")),
			conf.WithMaxDepth(c.Int("depth")),
			conf.WithDepthLimit(c.Int("depth.limit")),
			conf.WithLoopTimes(c.Int("loops")),
			conf.WithWorkers(c.Int("workers")),
			conf.WithReadyMeanRank(c.Float64("ready.rank")),
			conf.WithStepInterval(c.Duration("interval")),
			conf.WithMetricsInterval(c.Duration("metrics.interval")),
		)

		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:      "solve",
			Usage:     "search for a pairing and print it",
			ArgsUsage: "[mentees.csv|mentees.json]",
			Action:    solve,
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "json",
					Usage: "print the pairing as JSON",
				},
			},
		},
		{
			Name:      "watch",
			Usage:     "search step by step, printing every step until ready or interrupted",
			ArgsUsage: "[mentees.csv|mentees.json]",
			Action:    watch,
		},
		{
			Name:      "validate",
			Usage:     "check the mentee list without searching",
			ArgsUsage: "[mentees.csv|mentees.json]",
			Action:    validate,
		},
	}

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("Version: %s\n", c.App.Version)
		fmt.Printf("Go Version: %s\n", sys.GoVersion)
		fmt.Printf("Git Commit: %s\n", sys.GitCommit)
		fmt.Printf("OS/Arch: %s\n", sys.OSArch)
		fmt.Printf("Built: %s\n", c.App.Compiled.Format(time.ANSIC))
	}

	if err := app.Run(os.Args); err != nil {
		logger := log.CLI()
		log.ErrorF(&logger, err, "Failed to run %s.", strings.Join(os.Args[1:], " "))
		os.Exit(1)
	}
}
