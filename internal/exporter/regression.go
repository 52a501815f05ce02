package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"forestpanel/internal/regression"
)

// SaveRegressionCSV writes fitted model results as one row per term, in
// model order with the intercept first.
func SaveRegressionCSV(results []regression.Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create regression file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"model", "variance", "period_end", "term",
		"coefficient", "std_error", "t_value", "p_value",
		"r_squared", "n_obs", "n_clusters",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write regression header: %w", err)
	}

	for _, res := range results {
		terms := append([]string{regression.Intercept}, res.Spec.Regressors...)
		periodEnd := ""
		if res.Spec.PeriodEnd != 0 {
			periodEnd = strconv.Itoa(res.Spec.PeriodEnd)
		}
		clusters := ""
		if res.NClusters > 0 {
			clusters = strconv.Itoa(res.NClusters)
		}
		for _, term := range terms {
			record := []string{
				res.Spec.Name,
				string(res.Spec.Variance),
				periodEnd,
				term,
				formatFloat(res.Coefficients[term]),
				formatFloat(res.StdErrors[term]),
				formatFloat(res.TValues[term]),
				formatFloat(res.PValues[term]),
				formatFloat(res.RSquared),
				strconv.Itoa(res.NObs),
				clusters,
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("write regression row %s/%s: %w", res.Spec.Name, term, err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveLeaveOneOutCSV writes the per-country omission diagnostics for one
// model and coefficient of interest.
func SaveLeaveOneOutCSV(model, target string, results []regression.OmissionResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create leave-one-out file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"model", "target", "omitted_iso3", "coefficient", "p_value", "n_obs"}); err != nil {
		return fmt.Errorf("write leave-one-out header: %w", err)
	}
	for _, r := range results {
		record := []string{
			model,
			target,
			r.OmittedISO3,
			formatFloat(r.Coefficient),
			formatFloat(r.PValue),
			strconv.Itoa(r.NObs),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write leave-one-out row %s: %w", r.OmittedISO3, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
