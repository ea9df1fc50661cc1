package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapColumns(t *testing.T) {
	idx := mapColumns([]string{" ID ", "Title", "salary_min"})
	assert.Equal(t, 0, idx["id"])
	assert.Equal(t, 1, idx["title"])
	assert.Equal(t, 2, idx["salary_min"])
}

func TestGetCol(t *testing.T) {
	idx := mapColumns([]string{"id", "title"})
	record := []string{" l-1 ", "Software Engineer"}

	assert.Equal(t, "l-1", getCol(record, idx, "id"))
	assert.Equal(t, "Software Engineer", getCol(record, idx, "title"))
	assert.Equal(t, "", getCol(record, idx, "missing"))
	assert.Equal(t, "", getCol([]string{"l-1"}, idx, "title"), "short record")
}

func TestParseFloat64Or(t *testing.T) {
	assert.Equal(t, 95000.0, parseFloat64Or("95000", -1))
	assert.Equal(t, 95000.5, parseFloat64Or("95,000.5", -1))
	assert.Equal(t, -1.0, parseFloat64Or("", -1))
	assert.Equal(t, -1.0, parseFloat64Or("n/a", -1))
}

func TestParseFloatPtr(t *testing.T) {
	v := parseFloatPtr(" 85,000 ")
	require.NotNil(t, v)
	assert.Equal(t, 85000.0, *v)

	assert.Nil(t, parseFloatPtr(""))
	assert.Nil(t, parseFloatPtr("unknown"))
}

func TestParseTimeOr(t *testing.T) {
	fallback := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-03-15T10:30:00Z", time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-03-15 10:30:00", time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-03-15", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"03/15/2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"not a date", fallback},
		{"", fallback},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTimeOr(tt.input, fallback))
		})
	}
}
