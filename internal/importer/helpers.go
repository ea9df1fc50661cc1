// Package importer loads market data snapshots (survey workbooks, listing
// exports) into the read-model tables the gatherers query.
package importer

import (
	"strconv"
	"strings"
	"time"
)

const batchSize = 5000

// mapColumns builds a case-insensitive header name to index map.
func mapColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func getCol(record []string, colIdx map[string]int, name string) string {
	i, ok := colIdx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseFloat64Or(s string, fallback float64) float64 {
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

// parseFloatPtr returns nil for blank or unparseable values so optional
// salary bounds survive as SQL NULL.
func parseFloatPtr(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// dateFormats lists the timestamp layouts accepted in import files, most
// specific first.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseTimeOr(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
