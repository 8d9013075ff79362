// Package sample draws the row and feature subsets used by tree ensembles.
package sample

import "math/rand"

// Bootstrap draws n row indices with replacement and reports which rows
// were drawn at least once.
func Bootstrap(rnd *rand.Rand, n int) (idx []int, inBag []bool) {
	idx = make([]int, n)
	inBag = make([]bool, n)
	for i := range n {
		j := rnd.Intn(n)
		idx[i] = j
		inBag[j] = true
	}
	return idx, inBag
}

// Identity returns 0..n-1 with every row in bag.
func Identity(n int) (idx []int, inBag []bool) {
	idx = make([]int, n)
	inBag = make([]bool, n)
	for i := range n {
		idx[i] = i
		inBag[i] = true
	}
	return idx, inBag
}

// Features picks k distinct feature indices out of p with a partial
// Fisher-Yates shuffle. k <= 0 or k >= p returns all features in order.
func Features(rnd *rand.Rand, p, k int) []int {
	out := make([]int, p)
	for j := range p {
		out[j] = j
	}
	if k <= 0 || k >= p {
		return out
	}
	for i := 0; i < k; i++ {
		j := i + rnd.Intn(p-i)
		out[i], out[j] = out[j], out[i]
	}
	return out[:k]
}

// OutOfBag lists the rows not drawn into a bootstrap sample.
func OutOfBag(inBag []bool) []int {
	var out []int
	for i, in := range inBag {
		if !in {
			out = append(out, i)
		}
	}
	return out
}
