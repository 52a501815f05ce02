package regression

import (
	"context"
	stderrors "errors"
	"sort"

	"forestpanel/internal/errors"
	"forestpanel/internal/panel"
)

// OmissionResult reports one leave-one-group-out refit: the designated
// regressor's coefficient and p-value with all rows of the omitted country
// removed.
type OmissionResult struct {
	OmittedISO3 string
	Coefficient float64
	PValue      float64
	NObs        int
}

// LeaveOneOut re-fits the spec once per distinct country, omitting that
// country's rows, and reports the coefficient and p-value of the target
// regressor across the omissions. Refits always use the
// heteroskedasticity-consistent covariance, whatever the spec's estimator,
// so the reported p-values stay comparable across models. Refits left with
// too few rows are skipped; they would not be stable evidence either way.
func (e *Engine) LeaveOneOut(ctx context.Context, spec Spec, p *panel.Panel, target string) ([]OmissionResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.Variance = HC1

	countries := map[string]bool{}
	for _, k := range p.Keys() {
		countries[k.ISO3] = true
	}
	order := make([]string, 0, len(countries))
	for iso := range countries {
		order = append(order, iso)
	}
	sort.Strings(order)

	var out []OmissionResult
	for _, omitted := range order {
		sub := withoutCountry(p, omitted)
		res, err := e.Fit(ctx, spec, sub)
		if err != nil {
			if stderrors.Is(err, errors.ErrInsufficientData) {
				e.logger.WarnContext(ctx, "leave-one-out refit skipped",
					"spec", spec.Name, "omitted", omitted, "error", err)
				continue
			}
			return nil, err
		}
		out = append(out, OmissionResult{
			OmittedISO3: omitted,
			Coefficient: res.Coefficients[target],
			PValue:      res.PValues[target],
			NObs:        res.NObs,
		})
	}
	return out, nil
}

// withoutCountry returns a copy of the panel without one country's rows.
func withoutCountry(p *panel.Panel, iso3 string) *panel.Panel {
	var rows []panel.Row
	cols := p.Columns()
	for _, k := range p.Keys() {
		if k.ISO3 == iso3 {
			continue
		}
		values := make(map[string]float64)
		for _, c := range cols {
			if v, ok := p.Value(k, c); ok {
				values[c] = v
			}
		}
		rows = append(rows, panel.Row{Key: k, Values: values})
	}
	sub, _ := panel.FromRows(cols, rows)
	return sub
}
