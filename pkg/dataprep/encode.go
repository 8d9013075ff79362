package dataprep

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownLevel is returned when a requested reference level does not occur.
var ErrUnknownLevel = errors.New("dataprep: unknown category level")

// Dummies is a treatment-coded categorical column: one indicator per
// non-reference level.
type Dummies struct {
	Reference string      // level absorbed into the intercept
	Levels    []string    // non-reference levels, sorted
	Columns   [][]float64 // Columns[k][i] = 1 if row i has Levels[k]
}

// Levels returns the distinct non-missing values in sorted (byte-wise) order.
func Levels(data []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range data {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// DummyEncode codes data against reference. An empty reference selects the
// first level in sorted order, so the coding never depends on row order.
// k distinct levels produce k-1 indicator columns.
func DummyEncode(data []string, reference string) (Dummies, error) {
	levels := Levels(data)
	if len(levels) == 0 {
		return Dummies{}, fmt.Errorf("%w: column has no levels", ErrUnknownLevel)
	}
	if reference == "" {
		reference = levels[0]
	}
	d := Dummies{Reference: reference}
	found := false
	for _, l := range levels {
		if l == reference {
			found = true
			continue
		}
		d.Levels = append(d.Levels, l)
	}
	if !found {
		return Dummies{}, fmt.Errorf("%w: %q", ErrUnknownLevel, reference)
	}

	pos := make(map[string]int, len(d.Levels))
	for k, l := range d.Levels {
		pos[l] = k
	}
	d.Columns = make([][]float64, len(d.Levels))
	for k := range d.Columns {
		d.Columns[k] = make([]float64, len(data))
	}
	for i, v := range data {
		if k, ok := pos[v]; ok {
			d.Columns[k][i] = 1
		}
	}
	return d, nil
}

// LevelCount is one row of a frequency table.
type LevelCount struct {
	Level    string
	Count    int
	Fraction float64
}

// FrequencyTable counts each level, missing values under "", sorted by level.
func FrequencyTable(data []string) []LevelCount {
	counts := map[string]int{}
	for _, v := range data {
		counts[v]++
	}
	out := make([]LevelCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, LevelCount{Level: l, Count: c, Fraction: float64(c) / float64(len(data))})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Level < out[b].Level })
	return out
}
