package optimizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/samber/lo"
)

// SaveResultsToCSV writes results, in their current order, to filePath
func SaveResultsToCSV(results []*Result, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return WriteResults(file, results)
}

// WriteResults writes one row per result with parameters and metrics as
// columns sorted by name
func WriteResults(w io.Writer, results []*Result) error {
	paramNames := lo.Uniq(lo.FlatMap(results, func(r *Result, _ int) []string {
		return lo.Keys(map[string]any(r.Parameters))
	}))
	sort.Strings(paramNames)

	metricNames := lo.Uniq(lo.FlatMap(results, func(r *Result, _ int) []MetricName {
		return lo.Keys(r.Metrics)
	}))
	sort.Slice(metricNames, func(i, j int) bool { return metricNames[i] < metricNames[j] })

	writer := csv.NewWriter(w)

	header := append([]string{"rank", "duration"}, paramNames...)
	for _, name := range metricNames {
		header = append(header, string(name))
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, result := range results {
		row := []string{strconv.Itoa(i + 1), result.Duration.String()}
		for _, name := range paramNames {
			row = append(row, formatValue(result.Parameters[name]))
		}
		for _, name := range metricNames {
			value, exists := result.Metrics[name]
			if !exists {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(value, 'f', 4, 64))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
