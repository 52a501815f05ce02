// Command regression-report fits the deforestation and emissions models
// over a previously built delta panel and writes the coefficient tables
// and leave-one-country-out diagnostics.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"forestpanel/internal/config"
	apperrors "forestpanel/internal/errors"
	"forestpanel/internal/exporter"
	"forestpanel/internal/infrastructure"
	"forestpanel/internal/panel"
	"forestpanel/internal/regression"
)

var modelA = regression.Spec{
	Name:      "model_a_co2_intensity",
	Dependent: "delta_co2_intensity_abs",
	Regressors: []string{
		"delta_forest_pct",
		"delta_hydro_share_pct",
		"delta_gdp_per_capita",
	},
	Variance: regression.Classical,
}

var modelB = regression.Spec{
	Name:      "model_b_lulucf_per_capita",
	Dependent: "delta_lulucf_per_capita_t_co2eq",
	Regressors: []string{
		"delta_forest_pct",
		"delta_agri_share_pct",
	},
	Variance: regression.Classical,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "regression-report: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "optional YAML config file")
	inputPath := flag.String("input", "", "delta panel CSV (default: the panel builder's output)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()
	ctx := context.Background()

	input := *inputPath
	if input == "" {
		input = filepath.Join(cfg.Paths.OutputDir, cfg.Paths.DeltaCSV)
	}
	deltas, err := panel.LoadCSV(input)
	if err != nil {
		return fmt.Errorf("load delta panel: %w", err)
	}
	logger.InfoContext(ctx, "delta panel loaded",
		"path", input, "rows", deltas.NumRows(), "columns", len(deltas.Columns()))

	printCorrelations(deltas)

	engine := regression.NewEngine(logger)
	var results []regression.Result
	for _, base := range []regression.Spec{modelA, modelB} {
		// One mean-model solve per model; the three estimators only differ
		// in covariance.
		fits, err := engine.FitAll(ctx, base, deltas,
			regression.Classical, regression.HC1, regression.ClusterRobust)
		if err != nil {
			if stderrors.Is(err, apperrors.ErrInsufficientData) {
				logger.WarnContext(ctx, "fit skipped", "spec", base.Name, "error", err)
				continue
			}
			return fmt.Errorf("fit %s: %w", base.Name, err)
		}
		for i := range fits {
			fits[i].Spec.Name = base.Name + "_" + string(fits[i].Spec.Variance)
			printResult(&fits[i])
		}
		results = append(results, fits...)
	}
	for _, spec := range periodFits() {
		res, err := engine.Fit(ctx, spec, deltas)
		if err != nil {
			if stderrors.Is(err, apperrors.ErrInsufficientData) {
				logger.WarnContext(ctx, "fit skipped", "spec", spec.Name, "error", err)
				continue
			}
			return fmt.Errorf("fit %s: %w", spec.Name, err)
		}
		results = append(results, *res)
		printResult(res)
	}

	out := cfg.Paths.OutputDir
	if err := exporter.SaveRegressionCSV(results, filepath.Join(out, "regression_results.csv")); err != nil {
		return err
	}

	for _, m := range []regression.Spec{modelA, modelB} {
		loo, err := engine.LeaveOneOut(ctx, m, deltas, "delta_forest_pct")
		if err != nil {
			return fmt.Errorf("leave-one-out %s: %w", m.Name, err)
		}
		name := m.Name + "_leave_one_out.csv"
		if err := exporter.SaveLeaveOneOutCSV(m.Name, "delta_forest_pct", loo, filepath.Join(out, name)); err != nil {
			return err
		}
	}
	return nil
}

// periodFits enumerates the per-decade classical fits. Each restricts the
// rows to one period end, so each is a distinct mean model.
func periodFits() []regression.Spec {
	var specs []regression.Spec
	for _, base := range []regression.Spec{modelA, modelB} {
		for _, end := range []int{2010, 2020} {
			s := base
			s.Name = fmt.Sprintf("%s_%d", base.Name, end)
			s.PeriodEnd = end
			specs = append(specs, s)
		}
	}
	return specs
}

// printCorrelations prints the pairwise Pearson correlations over the
// union of both models' variables, complete pairs only.
func printCorrelations(deltas *panel.Panel) {
	seen := map[string]bool{}
	var cols []string
	for _, spec := range []regression.Spec{modelA, modelB} {
		for _, c := range append([]string{spec.Dependent}, spec.Regressors...) {
			if !seen[c] && deltas.HasColumn(c) {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	if len(cols) == 0 {
		return
	}

	m := panel.Correlations(deltas, cols)
	fmt.Println("\ncorrelations (pairwise complete)")
	for i, c := range cols {
		fmt.Printf("  %-36s", c)
		for j := range cols {
			fmt.Printf(" %7.3f", m[i][j])
		}
		fmt.Println()
	}
}

func printResult(res *regression.Result) {
	fmt.Printf("\n%s  (n=%d", res.Spec.Name, res.NObs)
	if res.NClusters > 0 {
		fmt.Printf(", clusters=%d", res.NClusters)
	}
	fmt.Printf(", R2=%.4f)\n", res.RSquared)
	terms := append([]string{regression.Intercept}, res.Spec.Regressors...)
	for _, term := range terms {
		fmt.Printf("  %-36s %12.6f  se=%.6f  t=%.3f  p=%.4f\n",
			term, res.Coefficients[term], res.StdErrors[term],
			res.TValues[term], res.PValues[term])
	}
}
