// Package regression fits linear models over the delta panel with
// classical, heteroskedasticity-robust and cluster-robust variance
// estimators, plus leave-one-country-out diagnostics.
package regression

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Variance selects the covariance estimator for a fitted model. All
// estimators share the same fitted coefficients; only the variance formula
// differs.
type Variance string

const (
	// Classical is the homoskedastic OLS covariance.
	Classical Variance = "classical"
	// HC1 is the heteroskedasticity-consistent covariance with the
	// n/(n-k) small-sample scale.
	HC1 Variance = "hc1"
	// ClusterRobust allows correlated errors within groups (countries).
	ClusterRobust Variance = "cluster"
)

// Spec describes one regression to fit against a panel.
type Spec struct {
	// Name labels the spec in reports and errors.
	Name string `validate:"required"`
	// Dependent is the dependent-variable column.
	Dependent string `validate:"required"`
	// Regressors are the explanatory columns; an intercept is always
	// added.
	Regressors []string `validate:"required,min=1,dive,required"`
	// Variance picks the covariance estimator.
	Variance Variance `validate:"oneof=classical hc1 cluster"`
	// PeriodEnd restricts the fit to one decade's rows (2010 or 2020).
	// Zero means all rows.
	PeriodEnd int `validate:"omitempty,oneof=2010 2020"`
}

// Intercept is the coefficient name used for the model constant.
const Intercept = "const"

// Result holds the fit of one Spec.
type Result struct {
	Spec         Spec
	Coefficients map[string]float64
	StdErrors    map[string]float64
	TValues      map[string]float64
	PValues      map[string]float64
	RSquared     float64
	NObs         int
	// NClusters is set for cluster-robust fits.
	NClusters int
}

var validate = validator.New()

// Validate checks the spec with the shared struct validator.
func (s Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid regression spec %q: %w", s.Name, err)
	}
	return nil
}
