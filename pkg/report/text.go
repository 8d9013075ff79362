// Package report renders a finished analysis: console tables, a YAML record
// and PNG plots.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"albumrank/pkg/diagnostics"
	"albumrank/pkg/evaluate"
	"albumrank/pkg/pipeline"
	"albumrank/pkg/regression"

	"github.com/olekukonko/tablewriter"
)

// WriteText prints every table of the analysis to w.
func WriteText(w io.Writer, s *pipeline.State) {
	section(w, fmt.Sprintf("Data: %d loaded, %d ranked, %d after dropping %d without artist gender",
		s.Raw.Nrow(), s.Prepared.Nrow(), s.Data.Nrow(), s.GenderDropped))
	if s.Description != nil {
		writeMissing(w, s.Description)
		writeSummaries(w, s.Description)
		writeFrequencies(w, s.Description)
		writeCorrelation(w, s.Description)
	}
	writeImputation(w, s)
	for _, name := range []string{pipeline.SimpleModel, pipeline.ComplexModel} {
		f, ok := s.Fits[name]
		if !ok {
			continue
		}
		writeFit(w, name, f)
		if d, ok := s.Diagnostics[name]; ok {
			writeDiagnostics(w, name, d, s.Thresholds())
		}
	}
	writeComparison(w, s.Comparison)
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n== %s ==\n", title)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	return t
}

func num(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NA"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', 5, 64)
}

func pval(p float64) string {
	if !math.IsNaN(p) && p < 1e-4 {
		return "<1e-4"
	}
	return num(p)
}

func writeMissing(w io.Writer, r *diagnostics.Report) {
	section(w, "Missing values")
	t := newTable(w, "Column", "Missing", "Fraction")
	for _, m := range r.Missing {
		t.Append([]string{m.Column, strconv.Itoa(m.Count), num(m.Fraction)})
	}
	t.Render()
}

func writeSummaries(w io.Writer, r *diagnostics.Report) {
	section(w, "Numeric summary")
	t := newTable(w, "Column", "N", "Mean", "Std", "Min", "Q1", "Median", "Q3", "Max", "Outliers")
	for _, s := range r.Numeric {
		t.Append([]string{
			s.Column, strconv.Itoa(s.Count), num(s.Mean), num(s.Std),
			num(s.Min), num(s.Q1), num(s.Median), num(s.Q3), num(s.Max),
			strconv.Itoa(s.Outliers),
		})
	}
	t.Render()
}

func writeFrequencies(w io.Writer, r *diagnostics.Report) {
	for _, f := range r.Categorical {
		section(w, "Levels of "+f.Column)
		t := newTable(w, "Level", "Count", "Fraction")
		for _, l := range f.Levels {
			level := l.Level
			if level == "" {
				level = "(missing)"
			}
			t.Append([]string{level, strconv.Itoa(l.Count), num(l.Fraction)})
		}
		t.Render()
	}
}

func writeCorrelation(w io.Writer, r *diagnostics.Report) {
	section(w, "Pearson correlation (pairwise complete)")
	t := newTable(w, append([]string{""}, r.Columns...)...)
	for i, row := range r.Correlation {
		cells := []string{r.Columns[i]}
		for _, v := range row {
			cells = append(cells, strconv.FormatFloat(v, 'f', 3, 64))
		}
		t.Append(cells)
	}
	t.Render()
}

func writeImputation(w io.Writer, s *pipeline.State) {
	res := s.Imputation
	if res.Column == "" {
		return
	}
	section(w, "Imputation of "+res.Column)
	t := newTable(w, "Missing", "Iterations", "Converged", "OOB MSE", "OOB R²", "Seed")
	t.Append([]string{
		strconv.Itoa(res.Missing), strconv.Itoa(res.Iterations),
		strconv.FormatBool(res.Converged), num(res.OOBError), num(res.OOBR2),
		strconv.FormatInt(s.Seed, 10),
	})
	t.Render()
}

func writeFit(w io.Writer, name string, f *regression.Fit) {
	section(w, fmt.Sprintf("%s model: %s ~ %d coefficients, n = %d", name, f.Response, f.P, f.N))
	t := newTable(w, "Term", "Estimate", "Std. Error", "t", "p")
	for _, c := range f.Coefficients {
		t.Append([]string{c.Name, num(c.Estimate), num(c.StdError), num(c.TValue), pval(c.PValue)})
	}
	t.Render()
	fmt.Fprintf(w, "R² %s, adjusted R² %s, F(%d, %d) = %s, p %s, AIC %s, BIC %s\n",
		num(f.R2), num(f.AdjR2), f.P-1, f.DFResidual, num(f.FStatistic), pval(f.FPValue),
		num(f.AIC), num(f.BIC))
}

func writeDiagnostics(w io.Writer, name string, d *evaluate.Diagnostics, th evaluate.Thresholds) {
	section(w, name+" model diagnostics")
	t := newTable(w, "Check", "Statistic", "p", "Verdict")
	t.Append([]string{"Cook's distance (max)", num(d.MaxCook), "",
		fmt.Sprintf("%d above %s", len(d.Influential), num(th.Cook))})
	if d.Normality != nil {
		verdict := "normal"
		if d.Normality.RejectsNormality(th.Alpha) {
			verdict = "not normal"
		}
		t.Append([]string{"Shapiro-Wilk W", num(d.Normality.W), pval(d.Normality.PValue), verdict})
	} else {
		t.Append([]string{"Shapiro-Wilk W", "", "", "not computed"})
	}
	t.Append([]string{"Residual/fitted correlation", num(d.Linearity.Correlation), "", "see residual plot"})
	verdict := "homoscedastic"
	if d.BreuschPagan.RejectsHomoscedasticity(th.Alpha) {
		verdict = "heteroscedastic"
	}
	t.Append([]string{fmt.Sprintf("Breusch-Pagan (df %d)", d.BreuschPagan.DF),
		num(d.BreuschPagan.Statistic), pval(d.BreuschPagan.PValue), verdict})
	t.Render()

	v := newTable(w, "Term", "DF", "GVIF", "GVIF^(1/(2·DF))", "Flag")
	for _, r := range d.VIF {
		v.Append([]string{r.Term, strconv.Itoa(r.DF), num(r.GVIF), num(r.Adjusted), r.Flag})
	}
	v.Render()

	b := newTable(w, "Coefficient", "Standardized")
	for _, c := range d.Standardized {
		b.Append([]string{c.Name, num(c.Beta)})
	}
	b.Render()
}

func writeComparison(w io.Writer, c evaluate.Comparison) {
	if c.Preferred == "" {
		return
	}
	section(w, "Model comparison")
	t := newTable(w, "Model", "Coefficients", "R²", "Adjusted R²", "AIC", "BIC", "RSS")
	for _, m := range []evaluate.ModelSummary{c.Restricted, c.Full} {
		t.Append([]string{m.Name, strconv.Itoa(m.P), num(m.R2), num(m.AdjR2), num(m.AIC), num(m.BIC), num(m.RSS)})
	}
	t.Render()
	fmt.Fprintf(w, "Nested F(%d, %d) = %s, p %s; preferred model: %s\n",
		c.DFNum, c.DFDen, num(c.FStatistic), pval(c.PValue), c.Preferred)
}
