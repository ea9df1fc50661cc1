package engine

import (
	"github.com/shopspring/decimal"

	"github.com/talentops/pricing-engine/internal/model"
)

// dec converts an internal float amount to the decimal representation used
// in results, rounded to cents.
func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Scenarios derives the four advisory hiring bands from the percentile
// distribution. Bands overlap by design; they are positioning guidance,
// not a partition.
func Scenarios(d Distribution) []model.ScenarioBand {
	return []model.ScenarioBand{
		{
			Name:    "conservative",
			Min:     dec(d.P25),
			Max:     dec(d.P50),
			UseCase: "budget-constrained hiring",
		},
		{
			Name:    "market",
			Min:     dec((d.P25 + d.P50) / 2),
			Max:     dec((d.P50 + d.P75) / 2),
			UseCase: "standard positioning",
		},
		{
			Name:    "competitive",
			Min:     dec(d.P50),
			Max:     dec(d.P75),
			UseCase: "attracting strong candidates",
		},
		{
			Name:    "premium",
			Min:     dec(d.P75),
			Max:     dec(d.P90),
			UseCase: "top-talent acquisition",
		},
	}
}
