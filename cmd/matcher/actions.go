package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/perlin-network/matcher"
	"github.com/perlin-network/matcher/conf"
	"github.com/perlin-network/matcher/input"
	"github.com/perlin-network/matcher/log"
	"github.com/perlin-network/matcher/mentor"
	"github.com/urfave/cli"
	"golang.org/x/time/rate"
)

// load reads the file named by the first argument, or CSV from stdin.
func load(c *cli.Context) ([]mentor.Request, error) {
	if path := c.Args().First(); path != "" {
		return input.ParseFile(path)
	}

	return input.ParseCSV(os.Stdin)
}

func newPrefs(c *cli.Context) *mentor.Prefs {
	if seed := c.GlobalInt64("seed"); seed != 0 {
		return mentor.New(mentor.WithSeed(seed))
	}

	return mentor.New()
}

func printPairing(state mentor.State) {
	fmt.Println(mentor.Summarize(state))

	for _, pair := range mentor.Pairs(state) {
		fmt.Printf("%-24s %d\n", pair.Name, pair.Resource)
	}

	for _, load := range mentor.Load(state) {
		fmt.Printf("Mentor %d is wanted by %d mentees.\n", load.Resource, load.Holders)
	}
}

func solve(c *cli.Context) error {
	requests, err := load(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := matcher.NewMetrics(ctx)
	logger := log.CLI()

	report := func(state mentor.State) {
		m.ObserveState(state.Score, state.Taken.Depth())
		logger.Debug().Int("score", state.Score).Int("deficit", state.Deficit).Msg("Reported a pairing.")
	}

	state, err := matcher.Optimize[mentor.State, []mentor.Request](
		newPrefs(c), report, mentor.Ready,
		conf.GetBreadth(), conf.GetMaxDepth(), conf.GetLoopTimes(),
		requests, matcher.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		fmt.Println(string(input.MarshalPairs(state)))
		return nil
	}

	printPairing(state)

	return nil
}

func watch(c *cli.Context) error {
	requests, err := load(c)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := matcher.NewMetrics(ctx)
	prefs := newPrefs(c)

	o, err := matcher.NewOptimizer[mentor.State, []mentor.Request](prefs, nil, nil, conf.GetBreadth(), matcher.WithMetrics(m))
	if err != nil {
		return err
	}
	defer o.Close()

	initial, err := prefs.InitialStateFromInput(requests)
	if err != nil {
		return err
	}

	logger := log.CLI()

	// Steps may run back to back, so progress lines are throttled.
	progress := rate.NewLimiter(rate.Every(250*time.Millisecond), 1)

	onUpdate := func(state mentor.State) {
		m.ObserveState(state.Score, state.Taken.Depth())

		if !progress.Allow() {
			return
		}

		logger.Info().
			Int("score", state.Score).
			Float64("mean_rank", mentor.MeanRank(state)).
			Msg("Stepped.")
	}

	it := matcher.NewIterator(o.Stepper(conf.GetMaxDepth()), initial, onUpdate, matcher.WithIteratorMetrics(m))

	limit := uint64(conf.GetLoopTimes())
	it.DoneWhen(func(state mentor.State) bool {
		return mentor.Ready(state) || it.Steps() >= limit
	})

	it.Start()

	if err := it.Wait(ctx); err != nil {
		logger.Info().Msg("Interrupted, stopping the search.")
	}
	it.Stop()

	printPairing(it.State())

	return nil
}

func validate(c *cli.Context) error {
	requests, err := load(c)
	if err != nil {
		return err
	}

	for _, request := range requests {
		fmt.Printf("%-24s %v\n", request.Name, request.Preferences)
	}

	fmt.Printf("%d mentees are valid.\n", len(requests))

	return nil
}
