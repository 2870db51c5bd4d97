package conf

import (
	"fmt"
	"sync"
	"time"
)

type config struct {
	// Tree search parameters.
	breadth    int
	maxDepth   int
	depthLimit int

	// Number of outer refinement rounds for a one-shot optimization.
	loopTimes int

	// Goroutines fanning out the root of each search tree. 1 keeps the search
	// on the calling goroutine.
	workers int

	// Delay between two controller steps.
	stepInterval time.Duration

	// A state is good enough once its mean preference rank is below this.
	readyMeanRank float64

	// Highest number of preferences kept per requester.
	maxPreferences int

	// How often the metrics registry is flushed to the log.
	metricsInterval time.Duration
}

var (
	l sync.RWMutex

	defaultConf = defaultConfig()
	c           = defaultConf
)

func defaultConfig() config {
	return config{
		breadth:    5,
		maxDepth:   5,
		depthLimit: 0,

		loopTimes: 100,
		workers:   1,

		stepInterval: 0,

		readyMeanRank:  1.5,
		maxPreferences: 4,

		metricsInterval: 1 * time.Second,
	}
}

type Option func(*config)

func WithBreadth(b int) Option {
	return func(c *config) {
		c.breadth = b
	}
}

func WithMaxDepth(d int) Option {
	return func(c *config) {
		c.maxDepth = d
	}
}

// WithDepthLimit caps how deep progressive deepening may go. 0 disables the
// cap.
func WithDepthLimit(d int) Option {
	return func(c *config) {
		c.depthLimit = d
	}
}

func WithLoopTimes(n int) Option {
	return func(c *config) {
		c.loopTimes = n
	}
}

func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

func WithStepInterval(d time.Duration) Option {
	return func(c *config) {
		c.stepInterval = d
	}
}

func WithReadyMeanRank(r float64) Option {
	return func(c *config) {
		c.readyMeanRank = r
	}
}

func WithMaxPreferences(n int) Option {
	return func(c *config) {
		c.maxPreferences = n
	}
}

func WithMetricsInterval(d time.Duration) Option {
	return func(c *config) {
		c.metricsInterval = d
	}
}

func GetBreadth() int {
	l.RLock()
	t := c.breadth
	l.RUnlock()

	return t
}

func GetMaxDepth() int {
	l.RLock()
	t := c.maxDepth
	l.RUnlock()

	return t
}

func GetDepthLimit() int {
	l.RLock()
	t := c.depthLimit
	l.RUnlock()

	return t
}

func GetLoopTimes() int {
	l.RLock()
	t := c.loopTimes
	l.RUnlock()

	return t
}

func GetWorkers() int {
	l.RLock()
	t := c.workers
	l.RUnlock()

	return t
}

func GetStepInterval() time.Duration {
	l.RLock()
	t := c.stepInterval
	l.RUnlock()

	return t
}

func GetReadyMeanRank() float64 {
	l.RLock()
	t := c.readyMeanRank
	l.RUnlock()

	return t
}

func GetMaxPreferences() int {
	l.RLock()
	t := c.maxPreferences
	l.RUnlock()

	return t
}

func GetMetricsInterval() time.Duration {
	l.RLock()
	t := c.metricsInterval
	l.RUnlock()

	return t
}

func Update(options ...Option) {
	l.Lock()

	for _, option := range options {
		option(&c)
	}

	if c.workers < 1 {
		c.workers = 1
	}

	l.Unlock()
}

func Stringify() string {
	l.RLock()
	s := fmt.Sprintf("%+v", c)
	l.RUnlock()

	return s
}

func Reset() {
	l.Lock()
	c = defaultConf
	l.Unlock()
}
