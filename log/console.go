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
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"
)

const (
	colorRed    = 31
	colorGreen  = 32
	colorYellow = 33
	colorFaint  = 2
)

var consoleParsers fastjson.ParserPool

var consoleBufPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 128))
	},
}

// ConsoleWriter renders JSON log lines for a terminal. When Modules is not
// empty, only lines from those modules are written.
type ConsoleWriter struct {
	Out        io.Writer
	NoColor    bool
	TimeFormat string
	Modules    map[string]struct{}
}

func FilterFor(modules ...string) func(w *ConsoleWriter) {
	return func(w *ConsoleWriter) {
		for _, module := range modules {
			w.Modules[module] = struct{}{}
		}
	}
}

func NoColor() func(w *ConsoleWriter) {
	return func(w *ConsoleWriter) {
		w.NoColor = true
	}
}

// AutoColor turns colors off unless f is a terminal.
func AutoColor(f *os.File) func(w *ConsoleWriter) {
	return func(w *ConsoleWriter) {
		if fd := f.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
			w.NoColor = true
		}
	}
}

func NewConsoleWriter(writer io.Writer, options ...func(w *ConsoleWriter)) ConsoleWriter {
	if writer == nil {
		writer = os.Stderr
	}

	w := ConsoleWriter{
		Out:        writer,
		TimeFormat: time.Kitchen,
		Modules:    make(map[string]struct{}),
	}

	for _, opt := range options {
		opt(&w)
	}

	return w
}

func (w ConsoleWriter) Write(p []byte) (int, error) {
	parser := consoleParsers.Get()
	defer consoleParsers.Put(parser)

	event, err := parser.ParseBytes(p)
	if err != nil {
		return 0, fmt.Errorf("cannot decode event: %s", err)
	}

	module := string(event.GetStringBytes(KeyModule))
	if len(w.Modules) > 0 {
		if _, ok := w.Modules[module]; !ok {
			return len(p), nil
		}
	}

	buf := consoleBufPool.Get().(*bytes.Buffer)
	defer consoleBufPool.Put(buf)
	buf.Reset()

	if ts := string(event.GetStringBytes(zerolog.TimestampFieldName)); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			ts = t.Format(w.TimeFormat)
		}
		buf.WriteString(w.colorize(ts, colorFaint))
		buf.WriteByte(' ')
	}

	buf.WriteString(w.level(string(event.GetStringBytes(zerolog.LevelFieldName))))
	buf.WriteByte(' ')

	if module != "" {
		buf.WriteString(w.colorize("["+module+"]", colorFaint))
		buf.WriteByte(' ')
	}

	buf.Write(event.GetStringBytes(zerolog.MessageFieldName))

	w.writeFields(buf, event)

	buf.WriteByte('\n')
	_, err = buf.WriteTo(w.Out)

	return len(p), err
}

// writeFields appends every remaining field sorted by key, error first.
func (w ConsoleWriter) writeFields(buf *bytes.Buffer, event *fastjson.Value) {
	obj, err := event.Object()
	if err != nil {
		return
	}

	var keys []string
	obj.Visit(func(key []byte, _ *fastjson.Value) {
		switch k := string(key); k {
		case zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName, KeyModule:
		default:
			keys = append(keys, k)
		}
	})

	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == zerolog.ErrorFieldName {
			return keys[j] != zerolog.ErrorFieldName
		}
		if keys[j] == zerolog.ErrorFieldName {
			return false
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		value := obj.Get(key)

		var text string
		if value.Type() == fastjson.TypeString {
			text = string(value.GetStringBytes())
			if needsQuote(text) {
				text = strconv.Quote(text)
			}
		} else {
			text = value.String()
		}

		buf.WriteByte(' ')
		if key == zerolog.ErrorFieldName {
			buf.WriteString(w.colorize(key+"="+text, colorRed))
		} else {
			buf.WriteString(w.colorize(key+"=", colorFaint))
			buf.WriteString(text)
		}
	}
}

func (w ConsoleWriter) level(l string) string {
	switch l {
	case "debug":
		return w.colorize("DBG", colorYellow)
	case "info":
		return w.colorize("INF", colorGreen)
	case "warn":
		return w.colorize("WRN", colorRed)
	case "error":
		return w.colorize("ERR", colorRed)
	case "fatal":
		return w.colorize("FTL", colorRed)
	default:
		return "???"
	}
}

func (w ConsoleWriter) colorize(s string, c int) string {
	if w.NoColor {
		return s
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", c, s)
}

func needsQuote(s string) bool {
	for i := range s {
		if s[i] < 0x20 || s[i] > 0x7e || s[i] == ' ' || s[i] == '\\' || s[i] == '"' {
			return true
		}
	}
	return false
}
