// Package indicator defines the canonical record model for observed
// statistics and the extractor that turns provider-native payloads into
// clean (iso3, year) -> value series.
package indicator

// Record is one observed statistic as decoded by a provider client.
// Records are immutable once extracted. Either ISO3 is already resolved by
// the provider, or Country/CountryCode carries the provider-native
// identifier for the resolver.
type Record struct {
	// Country is the provider-native country name, when the provider does
	// not report ISO3 directly.
	Country string
	// CountryCode is a provider-specific numeric country code (FAOSTAT
	// area code). Zero means unset.
	CountryCode int
	// ISO3 is set when the provider envelope already carries the code.
	ISO3 string
	// Year is the observation year.
	Year int
	// Dimensions holds the provider dimension values for this record,
	// keyed by dimension name (e.g. "Type of forest" -> "Total forest").
	Dimensions map[string]string
	// Value is the observed numeric value; nil means not observed.
	// Absence must propagate as a missing value, never zero.
	Value *float64
}

// HasValue reports whether the record carries an observed value.
func (r Record) HasValue() bool {
	return r.Value != nil
}
