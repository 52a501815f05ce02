// Package country maps heterogeneous provider country identifiers onto the
// fixed ISO3 vocabulary of the study. Resolution is a pure lookup: the table
// is total over every in-scope spelling the three providers emit, and any
// identifier outside the table is a hard UnmappedCountry error rather than a
// silent drop.
package country

import (
	"strings"

	"forestpanel/internal/errors"
)

// SouthAmericaISO3 is the fixed 12-country spatial scope of the panel,
// ordered alphabetically by code.
var SouthAmericaISO3 = []string{
	"ARG", "BOL", "BRA", "CHL", "COL", "ECU",
	"GUY", "PER", "PRY", "SUR", "URY", "VEN",
}

// nameToISO3 covers the canonical UN spellings used by FAOSTAT bulk files
// and the short forms used by CEPALSTAT and World Bank metadata. Keys are
// stored pre-normalized (lower case, collapsed whitespace).
var nameToISO3 = map[string]string{
	"argentina":                          "ARG",
	"bolivia":                            "BOL",
	"bolivia (plurinational state of)":   "BOL",
	"brazil":                             "BRA",
	"brasil":                             "BRA",
	"chile":                              "CHL",
	"colombia":                           "COL",
	"ecuador":                            "ECU",
	"guyana":                             "GUY",
	"paraguay":                           "PRY",
	"peru":                               "PER",
	"suriname":                           "SUR",
	"uruguay":                            "URY",
	"venezuela":                          "VEN",
	"venezuela, rb":                      "VEN",
	"venezuela (bolivarian republic of)": "VEN",
}

// codeToISO3 maps FAOSTAT numeric area codes for the in-scope countries.
var codeToISO3 = map[int]string{
	9:   "ARG",
	19:  "BOL",
	21:  "BRA",
	40:  "CHL",
	44:  "COL",
	58:  "ECU",
	91:  "GUY",
	169: "PRY",
	170: "PER",
	207: "SUR",
	234: "URY",
	236: "VEN",
}

var inScope = func() map[string]bool {
	m := make(map[string]bool, len(SouthAmericaISO3))
	for _, iso := range SouthAmericaISO3 {
		m[iso] = true
	}
	return m
}()

// Resolver performs country identifier resolution against the static maps.
// The zero value is ready to use.
type Resolver struct{}

// NewResolver returns a resolver over the study's fixed country tables.
func NewResolver() *Resolver {
	return &Resolver{}
}

// InScope reports whether an ISO3 code belongs to the 12-country study
// domain.
func (r *Resolver) InScope(iso3 string) bool {
	return inScope[strings.ToUpper(strings.TrimSpace(iso3))]
}

// Resolve maps a raw country name or ISO3 code to its canonical ISO3 code.
// Lookup is case- and whitespace-insensitive. An identifier outside the
// table yields an UnmappedCountry error.
func (r *Resolver) Resolve(raw string) (string, error) {
	norm := normalize(raw)
	if norm == "" {
		return "", errors.UnmappedCountry(raw)
	}
	if len(norm) == 3 {
		upper := strings.ToUpper(norm)
		if inScope[upper] {
			return upper, nil
		}
	}
	if iso, ok := nameToISO3[norm]; ok {
		return iso, nil
	}
	return "", errors.UnmappedCountry(raw)
}

// ResolveCode maps a provider numeric country code (FAOSTAT area code) to
// ISO3. The boolean is false for codes outside the study scope; numeric
// codes are only emitted by bulk files that cover the whole world, so an
// unknown code means out-of-scope, not an error.
func (r *Resolver) ResolveCode(code int) (string, bool) {
	iso, ok := codeToISO3[code]
	return iso, ok
}

func normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}
