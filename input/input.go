// Package input turns raw mentee records into validated requests and renders
// computed pairings back out.
package input

import (
	"bytes"
	"encoding/csv"
	"io"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/perlin-network/matcher/conf"
	"github.com/perlin-network/matcher/log"
	"github.com/perlin-network/matcher/mentor"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// Record is a mentee as entered, before any filtering.
type Record struct {
	Name        string
	Preferences []string
}

// Validate filters every record's preferences and turns the records into
// requests. Entries that are not positive integers are dropped, repeats keep
// their first position, and at most conf.GetMaxPreferences() entries survive.
// The first invalid record aborts validation.
func Validate(records []Record) ([]mentor.Request, error) {
	logger := log.Input()
	limit := conf.GetMaxPreferences()

	requests := make([]mentor.Request, 0, len(records))
	dropped := 0

	drop := func(name, entry, reason string) {
		dropped++
		log.Debug(&logger, &log.PreferenceDropped{Name: name, Entry: entry, Reason: reason})
	}

	for i, record := range records {
		name := strings.TrimSpace(record.Name)
		if name == "" {
			return nil, errors.Wrapf(ErrBlankName, "record %d has name %q", i+1, record.Name)
		}

		seen := make(map[int]struct{}, len(record.Preferences))
		prefs := make([]int, 0, limit)

		for _, entry := range record.Preferences {
			id, err := strconv.Atoi(strings.TrimSpace(entry))
			if err != nil || id <= 0 {
				drop(name, entry, "not a positive integer")
				continue
			}

			if _, dup := seen[id]; dup {
				drop(name, entry, "repeated")
				continue
			}

			if len(prefs) == limit {
				drop(name, entry, "past the limit")
				continue
			}

			seen[id] = struct{}{}
			prefs = append(prefs, id)
		}

		if len(prefs) == 0 {
			return nil, errors.Wrapf(ErrNoPreferences, "record %d (%q) has preferences %q", i+1, name, record.Preferences)
		}

		requests = append(requests, mentor.Request{Name: name, Preferences: prefs})
	}

	log.Debug(&logger, &log.RecordsParsed{Records: len(requests), Dropped: dropped})

	return requests, nil
}

// ReadCSV reads one record per line: a name followed by preferences. Fields
// are separated by commas, or by tabs when the first line holds a tab and no
// comma. Lines starting with # are skipped.
func ReadCSV(r io.Reader) ([]Record, error) {
	buf, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv")
	}

	reader := csv.NewReader(bytes.NewReader(buf))
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if first := firstLine(buf); bytes.IndexByte(first, '\t') >= 0 && bytes.IndexByte(first, ',') < 0 {
		reader.Comma = '\t'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record{Name: row[0], Preferences: row[1:]}
	}

	return records, nil
}

func firstLine(buf []byte) []byte {
	for len(buf) > 0 {
		line := buf
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			line, buf = buf[:i], buf[i+1:]
		} else {
			buf = nil
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 && trimmed[0] != '#' {
			return line
		}
	}

	return nil
}

func ParseCSV(r io.Reader) ([]mentor.Request, error) {
	records, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}

	return Validate(records)
}

// ReadJSON reads an array of {"name": ..., "prefs": [...]} objects. The list
// may also be keyed "preferences", and its entries may be numbers or strings.
func ReadJSON(buf []byte) ([]Record, error) {
	var parser fastjson.Parser

	v, err := parser.ParseBytes(buf)
	if err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}

	items, err := v.Array()
	if err != nil {
		return nil, errors.Wrap(ErrMalformed, "expected an array of mentees")
	}

	records := make([]Record, len(items))

	for i, item := range items {
		if item.Type() != fastjson.TypeObject {
			return nil, errors.Wrapf(ErrMalformed, "mentee %d is a %s, not an object", i+1, item.Type())
		}

		records[i].Name = string(item.GetStringBytes("name"))

		prefs := item.Get("prefs")
		if prefs == nil {
			prefs = item.Get("preferences")
		}

		if prefs == nil {
			continue
		}

		entries, err := prefs.Array()
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "preferences of mentee %d are not a list", i+1)
		}

		for _, entry := range entries {
			records[i].Preferences = append(records[i].Preferences, entryString(entry))
		}
	}

	return records, nil
}

func entryString(v *fastjson.Value) string {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return strconv.FormatFloat(v.GetFloat64(), 'f', -1, 64)
	default:
		return v.String()
	}
}

func ParseJSON(buf []byte) ([]mentor.Request, error) {
	records, err := ReadJSON(buf)
	if err != nil {
		return nil, err
	}

	return Validate(records)
}

// ParseFile picks the format by extension: .json is read as JSON and
// anything else as CSV.
func ParseFile(path string) ([]mentor.Request, error) {
	requests, err := parseFile(path)
	if err != nil {
		logger := log.Input()
		log.NewError(&logger).Err(err).Msgf("Failed to parse %s.", path)

		return nil, err
	}

	return requests, nil
}

func parseFile(path string) ([]mentor.Request, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(buf)
	}

	return ParseCSV(bytes.NewReader(buf))
}

// MarshalPairs renders state as {"score", "feasible", "pairs": [{"name",
// "mentor"}]}.
func MarshalPairs(state mentor.State) []byte {
	var arena fastjson.Arena

	pairs := arena.NewArray()
	for i, pair := range mentor.Pairs(state) {
		o := arena.NewObject()
		o.Set("name", arena.NewString(pair.Name))
		o.Set("mentor", arena.NewNumberInt(pair.Resource))

		pairs.SetArrayItem(i, o)
	}

	feasible := arena.NewFalse()
	if state.Deficit >= 0 {
		feasible = arena.NewTrue()
	}

	o := arena.NewObject()
	o.Set("score", arena.NewNumberInt(state.Score))
	o.Set("feasible", feasible)
	o.Set("pairs", pairs)

	return o.MarshalTo(nil)
}
