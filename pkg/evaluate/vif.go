package evaluate

import (
	"errors"
	"math"

	"albumrank/pkg/regression"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Conventional VIF alarm levels.
const (
	VIFModerate = 5.0
	VIFHigh     = 10.0
)

// VIFResult is the (generalised) variance inflation factor of one term.
type VIFResult struct {
	Term     string
	DF       int
	GVIF     float64
	Adjusted float64 // GVIF^(1/(2·DF)); its square is comparable to a plain VIF
	Flag     string  // "", "moderate" or "high"
}

// VIF computes the generalised VIF of every term with at least one
// coefficient: det(R_tt)·det(R_oo)/det(R) over the slope correlation
// matrix R, which equals 1/(1-R²_j) for single-coefficient terms. A term is
// flagged when its squared adjusted GVIF exceeds moderate or high.
func VIF(fit *regression.Fit, moderate, high float64) ([]VIFResult, error) {
	k := fit.P - 1
	if k == 0 {
		return nil, nil
	}
	slopes := mat.DenseCopyOf(fit.Design.Slice(0, fit.N, 1, fit.P))
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, slopes, nil)
	detAll := mat.Det(&corr)
	if detAll <= 0 || math.IsNaN(detAll) {
		return nil, errors.New("evaluate: slope correlation matrix is singular")
	}

	var out []VIFResult
	for _, span := range fit.Terms {
		if span.DF() == 0 {
			continue
		}
		var in, rest []int
		for j := 0; j < k; j++ {
			if j+1 >= span.Start && j+1 < span.End {
				in = append(in, j)
			} else {
				rest = append(rest, j)
			}
		}
		gvif := subDet(&corr, in) * subDet(&corr, rest) / detAll
		adj := math.Pow(gvif, 1/(2*float64(span.DF())))
		r := VIFResult{Term: span.Name, DF: span.DF(), GVIF: gvif, Adjusted: adj}
		switch sq := adj * adj; {
		case sq > high:
			r.Flag = "high"
		case sq > moderate:
			r.Flag = "moderate"
		}
		out = append(out, r)
	}
	return out, nil
}

func subDet(m *mat.SymDense, idx []int) float64 {
	if len(idx) == 0 {
		return 1
	}
	s := mat.NewSymDense(len(idx), nil)
	for a, i := range idx {
		for b, j := range idx {
			if b < a {
				continue
			}
			s.SetSym(a, b, m.At(i, j))
		}
	}
	return mat.Det(s)
}
