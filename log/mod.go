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

package log

import (
	"io"

	"github.com/rs/zerolog"
)

var (
	output = &multiWriter{
		writers: make(map[string]io.Writer),
	}
	logger = zerolog.New(output).With().Timestamp().Logger()

	optimizer zerolog.Logger
	iterator  zerolog.Logger
	input     zerolog.Logger
	metrics   zerolog.Logger
	cli       zerolog.Logger
)

const (
	LoggerMatcher = "matcher"

	KeyModule = "mod"
	KeyEvent  = "event"

	ModuleOptimizer = "optimizer"
	ModuleIterator  = "iterator"
	ModuleInput     = "input"
	ModuleMetrics   = "metrics"
	ModuleCLI       = "cli"
)

func setupChildLoggers() {
	optimizer = logger.With().Str(KeyModule, ModuleOptimizer).Logger()
	iterator = logger.With().Str(KeyModule, ModuleIterator).Logger()
	input = logger.With().Str(KeyModule, ModuleInput).Logger()
	metrics = logger.With().Str(KeyModule, ModuleMetrics).Logger()
	cli = logger.With().Str(KeyModule, ModuleCLI).Logger()
}

func SetLevel(level string) {
	if l, err := zerolog.ParseLevel(level); err == nil {
		optimizer = optimizer.Level(l)
		iterator = iterator.Level(l)
		input = input.Level(l)
		metrics = metrics.Level(l)
		cli = cli.Level(l)
	}
}

func SetWriter(key string, writer io.Writer) {
	output.Set(key, writer)
}

func RemoveWriter(key string) {
	output.Remove(key)
}

func Optimizer() zerolog.Logger {
	return optimizer
}

func Iterator(event string) zerolog.Logger {
	return iterator.With().Str(KeyEvent, event).Logger()
}

func Input() zerolog.Logger {
	return input
}

func Metrics() zerolog.Logger {
	return metrics
}

func CLI() zerolog.Logger {
	return cli
}
