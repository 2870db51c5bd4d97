// Copyright (c) 2019 Perlin
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package matcher

import (
	"context"
	"time"

	"github.com/perlin-network/matcher/conf"
	"github.com/perlin-network/matcher/log"
	"github.com/rcrowley/go-metrics"
)

type Metrics struct {
	registry metrics.Registry

	rounds       metrics.Meter
	improvements metrics.Meter
	leaves       metrics.Meter
	steps        metrics.Meter

	maxDepth     metrics.Gauge
	score        metrics.Gauge
	counterDepth metrics.Gauge

	roundLatency metrics.Timer
	stepLatency  metrics.Timer
}

// NewMetrics registers every search metric and, until ctx is done, logs a
// snapshot of them every conf.GetMetricsInterval().
func NewMetrics(ctx context.Context) *Metrics {
	registry := metrics.NewRegistry()

	m := &Metrics{
		registry: registry,

		rounds:       metrics.NewRegisteredMeter("optimizer.rounds", registry),
		improvements: metrics.NewRegisteredMeter("optimizer.improvements", registry),
		leaves:       metrics.NewRegisteredMeter("optimizer.leaves", registry),
		steps:        metrics.NewRegisteredMeter("iterator.steps", registry),

		maxDepth:     metrics.NewRegisteredGauge("optimizer.depth", registry),
		score:        metrics.NewRegisteredGauge("state.score", registry),
		counterDepth: metrics.NewRegisteredGauge("counter.depth", registry),

		roundLatency: metrics.NewRegisteredTimer("optimizer.round.latency", registry),
		stepLatency:  metrics.NewRegisteredTimer("iterator.step.latency", registry),
	}

	go func() {
		logger := log.Metrics()

		for {
			select {
			case <-time.After(conf.GetMetricsInterval()):
				logger.Info().
					Int64("optimizer.rounds", m.rounds.Count()).
					Int64("optimizer.improvements", m.improvements.Count()).
					Int64("optimizer.leaves", m.leaves.Count()).
					Int64("iterator.steps", m.steps.Count()).
					Int64("optimizer.depth", m.maxDepth.Value()).
					Int64("state.score", m.score.Value()).
					Int64("counter.depth", m.counterDepth.Value()).
					Float64("rps.rounds", m.rounds.Rate1()).
					Float64("lps.leaves", m.leaves.Rate1()).
					Str("round.latency.max.ms", time.Duration(m.roundLatency.Max()).String()).
					Str("round.latency.min.ms", time.Duration(m.roundLatency.Min()).String()).
					Str("round.latency.mean.ms", time.Duration(m.roundLatency.Mean()).String()).
					Str("step.latency.mean.ms", time.Duration(m.stepLatency.Mean()).String()).
					Msg("Updated metrics.")
			case <-ctx.Done():
				return
			}
		}
	}()

	return m
}

func (m *Metrics) Registry() metrics.Registry {
	return m.registry
}

func (m *Metrics) markRound(leaves int64, maxDepth int, improved bool, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.rounds.Mark(1)
	m.leaves.Mark(leaves)
	m.maxDepth.Update(int64(maxDepth))
	m.roundLatency.Update(elapsed)

	if improved {
		m.improvements.Mark(1)
	}
}

func (m *Metrics) markStep(elapsed time.Duration) {
	if m == nil {
		return
	}

	m.steps.Mark(1)
	m.stepLatency.Update(elapsed)
}

// ObserveState records the fitness of the latest reported state and the depth
// of its load counter.
func (m *Metrics) ObserveState(score int, counterDepth int) {
	if m == nil {
		return
	}

	m.score.Update(int64(score))
	m.counterDepth.Update(int64(counterDepth))
}
