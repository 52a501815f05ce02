package indicator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Aggregation selects how records that collapse onto the same (iso3, year)
// key are combined.
type Aggregation int

const (
	// AggIdentity expects one record per key; duplicates keep the first
	// value and are tallied.
	AggIdentity Aggregation = iota
	// AggFirst keeps the first record per key without a tally.
	AggFirst
	// AggSum adds values across records, for additive quantities such as
	// harvested area across sub-items.
	AggSum
	// AggMean averages values across records, for intensive quantities
	// reported per sub-item.
	AggMean
)

// String returns the string representation of the aggregation mode.
func (a Aggregation) String() string {
	switch a {
	case AggIdentity:
		return "identity"
	case AggFirst:
		return "first"
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	default:
		return "unknown"
	}
}

// Rule describes how to extract one indicator series from provider
// records: which indicator to request, which dimension values a record
// must match exactly, and how to aggregate collisions.
type Rule struct {
	// IndicatorID is the provider indicator identifier (CEPALSTAT numeric
	// ID, World Bank code, FAOSTAT domain).
	IndicatorID string `validate:"required"`
	// Column is the panel column the series feeds.
	Column string `validate:"required"`
	// Filters maps a dimension-name keyword to the required member value.
	// A record matches when, for every filter, it has a dimension whose
	// name contains the keyword (case-insensitive) with exactly the
	// required value (case-insensitive).
	Filters map[string]string
	// Aggregation combines records that share a key after filtering.
	Aggregation Aggregation
	// Scale multiplies the aggregated value (unit conversion); zero means 1.
	Scale float64
	// Years restricts extraction to the benchmark years. Empty means the
	// panel's analysis years.
	Years []int
}

var validate = validator.New()

// Validate checks the rule with the shared struct validator.
func (r Rule) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid extraction rule for column %q: %w", r.Column, err)
	}
	return nil
}

// scale returns the effective scale multiplier.
func (r Rule) scale() float64 {
	if r.Scale == 0 {
		return 1
	}
	return r.Scale
}
