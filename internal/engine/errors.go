package engine

import (
	"fmt"
	"strings"

	"github.com/talentops/pricing-engine/internal/model"
)

// NoMarketDataError signals that every configured source came back empty.
// The engine never substitutes synthetic data: zero evidence means no
// result, and the caller learns exactly which sources were tried.
type NoMarketDataError struct {
	JobTitle         string
	AttemptedSources []model.SourceName
}

func (e *NoMarketDataError) Error() string {
	names := make([]string, len(e.AttemptedSources))
	for i, s := range e.AttemptedSources {
		names[i] = string(s)
	}
	return fmt.Sprintf("no market data found for %q (sources attempted: %s)",
		e.JobTitle, strings.Join(names, ", "))
}

// MalformedInputError rejects a request before any gathering begins.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed pricing request: " + e.Reason
}
