package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Bands(t *testing.T) {
	d := Distribution{P10: 80000, P25: 90000, P50: 100000, P75: 110000, P90: 120000}

	bands := Scenarios(d)
	require.Len(t, bands, 4)

	byName := map[string]int{}
	for i, b := range bands {
		byName[b.Name] = i
	}

	conservative := bands[byName["conservative"]]
	assert.True(t, conservative.Min.Equal(decimal.NewFromInt(90000)), "conservative.min == p25")
	assert.True(t, conservative.Max.Equal(decimal.NewFromInt(100000)))

	market := bands[byName["market"]]
	assert.True(t, market.Min.Equal(decimal.NewFromInt(95000)), "midpoint of p25 and p50")
	assert.True(t, market.Max.Equal(decimal.NewFromInt(105000)), "midpoint of p50 and p75")

	competitive := bands[byName["competitive"]]
	assert.True(t, competitive.Min.Equal(decimal.NewFromInt(100000)), "competitive == [p50, p75]")
	assert.True(t, competitive.Max.Equal(decimal.NewFromInt(110000)))

	premium := bands[byName["premium"]]
	assert.True(t, premium.Min.Equal(decimal.NewFromInt(110000)))
	assert.True(t, premium.Max.Equal(decimal.NewFromInt(120000)), "premium.max == p90")
}

func TestScenarios_RoundsToCents(t *testing.T) {
	d := Distribution{P25: 90000.004, P50: 100000.006, P75: 110000, P90: 120000}

	bands := Scenarios(d)
	assert.Equal(t, "90000", bands[0].Min.String())
	assert.Equal(t, "100000.01", bands[0].Max.String())
}

func TestScenarios_UseCases(t *testing.T) {
	bands := Scenarios(Distribution{})
	for _, b := range bands {
		assert.NotEmpty(t, b.UseCase, "band %s", b.Name)
	}
}
