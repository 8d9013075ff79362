package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"albumrank/pkg/evaluate"
	"albumrank/pkg/pipeline"

	"gopkg.in/yaml.v3"
)

// RecordFile is the name of the structured record inside the output directory.
const RecordFile = "report.yaml"

// Record is the machine-readable summary of a run.
type Record struct {
	RunID      string                 `yaml:"run_id"`
	Source     string                 `yaml:"source"`
	Rows       RowCounts              `yaml:"rows"`
	Imputation ImputationRecord       `yaml:"imputation"`
	Models     map[string]ModelRecord `yaml:"models"`
	Comparison ComparisonRecord       `yaml:"comparison"`
}

type RowCounts struct {
	Loaded        int `yaml:"loaded"`
	Ranked        int `yaml:"ranked"`
	GenderDropped int `yaml:"gender_dropped"`
	Modelled      int `yaml:"modelled"`
}

type ImputationRecord struct {
	Column     string    `yaml:"column"`
	Predictors []string  `yaml:"predictors"`
	Missing    int       `yaml:"missing"`
	Iterations int       `yaml:"iterations"`
	Converged  bool      `yaml:"converged"`
	Changes    []float64 `yaml:"changes,flow"`
	OOBError   float64   `yaml:"oob_mse"`
	OOBR2      float64   `yaml:"oob_r2"`
	Seed       int64     `yaml:"seed"`
}

type CoefficientRecord struct {
	Name         string  `yaml:"name"`
	Estimate     float64 `yaml:"estimate"`
	StdError     float64 `yaml:"std_error"`
	TValue       float64 `yaml:"t"`
	PValue       float64 `yaml:"p"`
	Standardized float64 `yaml:"standardized,omitempty"`
}

type VIFRecord struct {
	Term     string  `yaml:"term"`
	DF       int     `yaml:"df"`
	GVIF     float64 `yaml:"gvif"`
	Adjusted float64 `yaml:"adjusted"`
	Flag     string  `yaml:"flag,omitempty"`
}

type TestRecord struct {
	Statistic float64 `yaml:"statistic"`
	DF        int     `yaml:"df,omitempty"`
	PValue    float64 `yaml:"p"`
}

type ModelRecord struct {
	N            int                 `yaml:"n"`
	Coefficients []CoefficientRecord `yaml:"coefficients"`
	R2           float64             `yaml:"r2"`
	AdjR2        float64             `yaml:"adj_r2"`
	FStatistic   float64             `yaml:"f"`
	FPValue      float64             `yaml:"f_p"`
	LogLik       float64             `yaml:"log_lik"`
	AIC          float64             `yaml:"aic"`
	BIC          float64             `yaml:"bic"`
	MaxCook      float64             `yaml:"max_cook"`
	Influential  []int               `yaml:"influential,flow"`
	ShapiroWilk  *TestRecord         `yaml:"shapiro_wilk,omitempty"`
	BreuschPagan TestRecord          `yaml:"breusch_pagan"`
	Linearity    float64             `yaml:"residual_fitted_correlation"`
	VIF          []VIFRecord         `yaml:"vif"`
}

type ComparisonRecord struct {
	DFNum      int     `yaml:"df_num"`
	DFDen      int     `yaml:"df_den"`
	FStatistic float64 `yaml:"f"`
	PValue     float64 `yaml:"p"`
	Preferred  string  `yaml:"preferred"`
}

// NewRecord collects the record of a finished run.
func NewRecord(s *pipeline.State) Record {
	r := Record{
		RunID:  s.RunID,
		Source: s.Config.Source,
		Rows: RowCounts{
			Loaded:        s.Raw.Nrow(),
			Ranked:        s.Prepared.Nrow(),
			GenderDropped: s.GenderDropped,
			Modelled:      s.Data.Nrow(),
		},
		Imputation: ImputationRecord{
			Column:     s.Imputation.Column,
			Predictors: s.Imputation.Predictors,
			Missing:    s.Imputation.Missing,
			Iterations: s.Imputation.Iterations,
			Converged:  s.Imputation.Converged,
			Changes:    s.Imputation.Changes,
			OOBError:   s.Imputation.OOBError,
			OOBR2:      s.Imputation.OOBR2,
			Seed:       s.Seed,
		},
		Models: map[string]ModelRecord{},
		Comparison: ComparisonRecord{
			DFNum:      s.Comparison.DFNum,
			DFDen:      s.Comparison.DFDen,
			FStatistic: s.Comparison.FStatistic,
			PValue:     s.Comparison.PValue,
			Preferred:  s.Comparison.Preferred,
		},
	}
	for name, f := range s.Fits {
		m := ModelRecord{
			N:          f.N,
			R2:         f.R2,
			AdjR2:      f.AdjR2,
			FStatistic: f.FStatistic,
			FPValue:    f.FPValue,
			LogLik:     f.LogLik,
			AIC:        f.AIC,
			BIC:        f.BIC,
		}
		d := s.Diagnostics[name]
		std := map[string]float64{}
		if d != nil {
			for _, c := range d.Standardized {
				std[c.Name] = c.Beta
			}
		}
		for _, c := range f.Coefficients {
			m.Coefficients = append(m.Coefficients, CoefficientRecord{
				Name: c.Name, Estimate: c.Estimate, StdError: c.StdError,
				TValue: c.TValue, PValue: c.PValue, Standardized: std[c.Name],
			})
		}
		if d != nil {
			fillDiagnostics(&m, d)
		}
		r.Models[name] = m
	}
	return r
}

func fillDiagnostics(m *ModelRecord, d *evaluate.Diagnostics) {
	m.MaxCook = d.MaxCook
	m.Influential = d.Influential
	if d.Normality != nil {
		m.ShapiroWilk = &TestRecord{Statistic: d.Normality.W, PValue: d.Normality.PValue}
	}
	m.BreuschPagan = TestRecord{
		Statistic: d.BreuschPagan.Statistic,
		DF:        d.BreuschPagan.DF,
		PValue:    d.BreuschPagan.PValue,
	}
	m.Linearity = d.Linearity.Correlation
	for _, v := range d.VIF {
		m.VIF = append(m.VIF, VIFRecord{Term: v.Term, DF: v.DF, GVIF: v.GVIF, Adjusted: v.Adjusted, Flag: v.Flag})
	}
}

// EncodeRecord writes r as YAML.
func EncodeRecord(w io.Writer, r Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: encode record: %w", err)
	}
	return enc.Close()
}

// WriteRecord writes report.yaml into dir and returns its path.
func WriteRecord(dir string, s *pipeline.State) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	path := filepath.Join(dir, RecordFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	if err := EncodeRecord(f, NewRecord(s)); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	return path, nil
}
