package regression

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"forestpanel/internal/errors"
	"forestpanel/internal/panel"
)

// Engine fits regression specs over a delta panel.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a regression engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// design is the complete-case design matrix for one spec.
type design struct {
	names    []string // Intercept first, then regressors
	x        *mat.Dense
	y        *mat.VecDense
	clusters []string // iso3 per row
	n, k     int
}

// buildDesign collects the rows with non-missing values for the dependent
// variable and every regressor, in panel key order.
func buildDesign(spec Spec, p *panel.Panel) design {
	names := append([]string{Intercept}, spec.Regressors...)
	var rows [][]float64
	var ys []float64
	var clusters []string

	for _, key := range p.Keys() {
		if spec.PeriodEnd != 0 && key.Year != spec.PeriodEnd {
			continue
		}
		y, ok := p.Value(key, spec.Dependent)
		if !ok {
			continue
		}
		row := make([]float64, 0, len(names))
		row = append(row, 1.0)
		complete := true
		for _, reg := range spec.Regressors {
			v, ok := p.Value(key, reg)
			if !ok {
				complete = false
				break
			}
			row = append(row, v)
		}
		if !complete {
			continue
		}
		rows = append(rows, row)
		ys = append(ys, y)
		clusters = append(clusters, key.ISO3)
	}

	d := design{names: names, clusters: clusters, n: len(rows), k: len(names)}
	if d.n == 0 {
		return d
	}
	flat := make([]float64, 0, d.n*d.k)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	d.x = mat.NewDense(d.n, d.k, flat)
	d.y = mat.NewVecDense(d.n, ys)
	return d
}

// meanFit holds one solve of the normal equations. Every variance
// estimator is derived from the same beta and residuals; the mean model is
// never refit per estimator.
type meanFit struct {
	d      design
	xtxInv mat.Dense
	beta   mat.VecDense
	resid  *mat.VecDense
	ssRes  float64
	r2     float64
}

// solve estimates the mean model by OLS. Rows are used only when the
// dependent and every regressor are observed; fewer rows than regressors+2
// is an InsufficientData error rather than an unstable fit.
func solve(spec Spec, p *panel.Panel) (*meanFit, error) {
	d := buildDesign(spec, p)
	// k already includes the intercept, so k+1 == regressors+2.
	if d.n < d.k+1 {
		return nil, errors.InsufficientData(spec.Name, d.n, d.k+1)
	}

	f := &meanFit{d: d}

	var xtx mat.Dense
	xtx.Mul(d.x.T(), d.x)
	if err := f.xtxInv.Inverse(&xtx); err != nil {
		return nil, errors.NewWithDetails(errors.CodeInsufficientData,
			"design matrix is singular for spec "+spec.Name, err.Error())
	}

	// beta = (X'X)^-1 X'y
	var xty mat.VecDense
	xty.MulVec(d.x.T(), d.y)
	f.beta.MulVec(&f.xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(d.x, &f.beta)
	f.resid = mat.NewVecDense(d.n, nil)
	f.resid.SubVec(d.y, &fitted)

	f.ssRes = mat.Dot(f.resid, f.resid)
	meanY := mat.Sum(d.y) / float64(d.n)
	ssTot := 0.0
	for i := 0; i < d.n; i++ {
		dev := d.y.AtVec(i) - meanY
		ssTot += dev * dev
	}
	f.r2 = math.NaN()
	if ssTot > 0 {
		f.r2 = 1.0 - f.ssRes/ssTot
	}
	return f, nil
}

// result derives a Result from the shared fit under one variance estimator.
func (f *meanFit) result(spec Spec) *Result {
	cov, df, nClusters := covariance(spec.Variance, f.d, &f.xtxInv, f.resid, f.ssRes)

	res := &Result{
		Spec:         spec,
		Coefficients: make(map[string]float64, f.d.k),
		StdErrors:    make(map[string]float64, f.d.k),
		TValues:      make(map[string]float64, f.d.k),
		PValues:      make(map[string]float64, f.d.k),
		RSquared:     f.r2,
		NObs:         f.d.n,
		NClusters:    nClusters,
	}
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	for i, name := range f.d.names {
		coef := f.beta.AtVec(i)
		se := math.Sqrt(cov.At(i, i))
		res.Coefficients[name] = coef
		res.StdErrors[name] = se
		t := coef / se
		res.TValues[name] = t
		res.PValues[name] = 2 * tdist.Survival(math.Abs(t))
	}
	return res
}

// Fit estimates the spec by OLS and computes the covariance selected by
// the spec's variance estimator.
func (e *Engine) Fit(ctx context.Context, spec Spec, p *panel.Panel) (*Result, error) {
	results, err := e.FitAll(ctx, spec, p, spec.Variance)
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// FitAll solves the spec's mean model once and derives one Result per
// requested variance estimator from that single set of coefficients and
// residuals. Coefficients, residuals and R squared are shared by
// construction; only the covariance and its degrees of freedom differ.
func (e *Engine) FitAll(ctx context.Context, spec Spec, p *panel.Panel, variances ...Variance) ([]Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(variances) == 0 {
		variances = []Variance{spec.Variance}
	}
	f, err := solve(spec, p)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(variances))
	for _, v := range variances {
		s := spec
		s.Variance = v
		res := f.result(s)
		results = append(results, *res)
		e.logger.InfoContext(ctx, "regression fitted",
			"spec", s.Name,
			"variance", string(v),
			"n_obs", res.NObs,
			"r_squared", res.RSquared,
		)
	}
	return results, nil
}

// covariance computes the coefficient covariance for the selected
// estimator, returning the matrix, the t-distribution degrees of freedom
// and the cluster count (zero unless cluster-robust).
func covariance(v Variance, d design, xtxInv *mat.Dense, resid *mat.VecDense, ssRes float64) (*mat.Dense, float64, int) {
	n, k := d.n, d.k
	switch v {
	case HC1:
		// White sandwich with the n/(n-k) small-sample scale.
		meat := mat.NewDense(k, k, nil)
		xi := mat.NewVecDense(k, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < k; j++ {
				xi.SetVec(j, d.x.At(i, j))
			}
			e2 := resid.AtVec(i) * resid.AtVec(i)
			var outer mat.Dense
			outer.Outer(e2, xi, xi)
			meat.Add(meat, &outer)
		}
		cov := sandwich(xtxInv, meat)
		cov.Scale(float64(n)/float64(n-k), cov)
		return cov, float64(n - k), 0
	case ClusterRobust:
		// Sum of per-cluster score outer products with the usual
		// G/(G-1) * (n-1)/(n-k) correction; inference on t(G-1).
		scores := make(map[string]*mat.VecDense)
		var order []string
		for i := 0; i < n; i++ {
			g := d.clusters[i]
			s, ok := scores[g]
			if !ok {
				s = mat.NewVecDense(k, nil)
				scores[g] = s
				order = append(order, g)
			}
			for j := 0; j < k; j++ {
				s.SetVec(j, s.AtVec(j)+d.x.At(i, j)*resid.AtVec(i))
			}
		}
		meat := mat.NewDense(k, k, nil)
		for _, g := range order {
			var outer mat.Dense
			outer.Outer(1.0, scores[g], scores[g])
			meat.Add(meat, &outer)
		}
		nG := len(order)
		cov := sandwich(xtxInv, meat)
		correction := (float64(nG) / float64(nG-1)) * (float64(n-1) / float64(n-k))
		cov.Scale(correction, cov)
		return cov, float64(nG - 1), nG
	default:
		// Classical homoskedastic covariance.
		sigma2 := ssRes / float64(n-k)
		cov := mat.NewDense(k, k, nil)
		cov.Scale(sigma2, xtxInv)
		return cov, float64(n - k), 0
	}
}

func sandwich(bread *mat.Dense, meat *mat.Dense) *mat.Dense {
	var tmp, cov mat.Dense
	tmp.Mul(bread, meat)
	cov.Mul(&tmp, bread)
	return &cov
}
