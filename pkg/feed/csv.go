package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/orbrun/pkg/core"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyFile     = errors.New("empty csv file")

	// column order of headerless files and of files this package writes
	defaultHeaderMap = map[string]int{
		"time": 0, "open": 1, "high": 2, "low": 3, "close": 4, "volume": 5,
	}
	requiredColumns = []string{"time", "open", "high", "low", "close"}
	knownColumns    = map[string]bool{
		"time": true, "open": true, "high": true, "low": true, "close": true,
		"volume": true, "up marker": true, "down marker": true,
	}

	timeLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// parseHeaders maps column names to their index. Headerless files fall back
// to the default layout.
func parseHeaders(headers []string) (headerMap map[string]int, additional []string, hasHeaders bool) {
	if _, err := strconv.ParseInt(strings.TrimSpace(headers[0]), 10, 64); err == nil {
		return defaultHeaderMap, nil, false
	}

	headerMap = make(map[string]int, len(headers))
	for index, header := range headers {
		name := strings.ToLower(strings.TrimSpace(header))
		headerMap[name] = index
		if !knownColumns[name] {
			additional = append(additional, strings.TrimSpace(header))
		}
	}
	return headerMap, additional, true
}

// ReadCSV parses candles of one timeframe. Times may be unix seconds or a
// date string and are converted to UTC. Rows are returned sorted by time.
func ReadCSV(r io.Reader) ([]core.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}

	headerMap, additional, hasHeaders := parseHeaders(lines[0])
	if hasHeaders {
		lines = lines[1:]
	}
	for _, column := range requiredColumns {
		if _, ok := headerMap[column]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
	}

	candles := make([]core.Candle, 0, len(lines))
	for i, line := range lines {
		candle, err := parseCandleFromLine(line, headerMap, additional)
		if err != nil {
			row := i + 1
			if hasHeaders {
				row++
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		candles = append(candles, candle)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
	return candles, nil
}

func parseCandleFromLine(line []string, headerMap map[string]int, additional []string) (core.Candle, error) {
	field := func(name string) (string, bool) {
		index, ok := headerMap[name]
		if !ok || index >= len(line) {
			return "", false
		}
		return strings.TrimSpace(line[index]), true
	}

	raw, _ := field("time")
	t, err := parseTime(raw)
	if err != nil {
		return core.Candle{}, err
	}

	candle := core.Candle{Time: t}
	for name, target := range map[string]*float64{
		"open":  &candle.Open,
		"high":  &candle.High,
		"low":   &candle.Low,
		"close": &candle.Close,
	} {
		value, _ := field(name)
		if *target, err = strconv.ParseFloat(value, 64); err != nil {
			return core.Candle{}, fmt.Errorf("%s: %w", name, err)
		}
	}

	if value, ok := field("volume"); ok && value != "" {
		if candle.Volume, err = strconv.ParseFloat(value, 64); err != nil {
			return core.Candle{}, fmt.Errorf("volume: %w", err)
		}
	}

	candle.UpMarker = marker(field("up marker"))
	candle.DownMarker = marker(field("down marker"))

	for _, header := range additional {
		value, ok := field(strings.ToLower(header))
		if !ok || value == "" || strings.EqualFold(value, "nan") {
			continue
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return core.Candle{}, fmt.Errorf("%s: %w", header, err)
		}
		if candle.Metadata == nil {
			candle.Metadata = make(map[string]float64, len(additional))
		}
		candle.Metadata[header] = parsed
	}

	return candle, nil
}

func parseTime(raw string) (time.Time, error) {
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", raw)
}

// marker treats any finite non-zero value as a set flag
func marker(value string, ok bool) bool {
	if !ok || value == "" {
		return false
	}
	v, err := strconv.ParseFloat(value, 64)
	return err == nil && !math.IsNaN(v) && v != 0
}

// LoadCSV reads path into a validated series
func LoadCSV(path string, tf core.Timeframe) (*core.TimeframeSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	candles, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return core.NewTimeframeSeries(tf, candles)
}

// WriteCSV writes candles with a header in the default column order
func WriteCSV(w io.Writer, candles []core.Candle, precision int) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeaders); err != nil {
		return err
	}
	if err := writeCandles(writer, candles, precision); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

var csvHeaders = []string{"time", "open", "high", "low", "close", "volume"}

func writeCandles(writer *csv.Writer, candles []core.Candle, precision int) error {
	for _, candle := range candles {
		if err := writer.Write(candle.ToSlice(precision)); err != nil {
			return err
		}
	}
	return nil
}
