package acceptance

import (
	"fmt"
	"math"

	"github.com/san-kum/phystrace/internal/contract"
)

// fitPattern regresses ys on the shape named by pattern and returns the
// coefficient of determination.
func fitPattern(pattern string, xs, ys []float64) (float64, error) {
	if len(ys) < 3 {
		return 0, fmt.Errorf("%d samples, need at least 3", len(ys))
	}
	switch pattern {
	case contract.PatternIncreasing:
		return r2(ys, isotonicSSE(ys)), nil
	case contract.PatternDecreasing:
		return r2(ys, isotonicSSE(negate(ys))), nil
	case contract.PatternSinglePeak:
		return r2(ys, unimodalSSE(ys)), nil
	case contract.PatternLinear:
		return r2(ys, polySSE(xs, ys, 1)), nil
	case contract.PatternParabolic:
		return r2(ys, polySSE(xs, ys, 2)), nil
	}
	return 0, fmt.Errorf("unknown pattern %q", pattern)
}

func r2(ys []float64, sse float64) float64 {
	var mean float64
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))
	var sst float64
	for _, y := range ys {
		sst += (y - mean) * (y - mean)
	}
	if sst < 1e-300 {
		if sse < 1e-300 {
			return 1
		}
		return 0
	}
	return 1 - sse/sst
}

func negate(ys []float64) []float64 {
	out := make([]float64, len(ys))
	for i, y := range ys {
		out[i] = -y
	}
	return out
}

type block struct {
	n          float64
	sum, sumSq float64
}

func (b block) sse() float64 { return math.Max(0, b.sumSq-b.sum*b.sum/b.n) }

// prefixIsotonic returns, for every prefix ys[:k+1], the residual sum of
// squares of its non-decreasing least-squares fit (pool adjacent violators).
func prefixIsotonic(ys []float64) []float64 {
	out := make([]float64, len(ys))
	var stack []block
	var total float64
	for k, y := range ys {
		cur := block{n: 1, sum: y, sumSq: y * y}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.sum/top.n <= cur.sum/cur.n {
				break
			}
			total -= top.sse()
			stack = stack[:len(stack)-1]
			cur = block{n: top.n + cur.n, sum: top.sum + cur.sum, sumSq: top.sumSq + cur.sumSq}
		}
		stack = append(stack, cur)
		total += cur.sse()
		out[k] = total
	}
	return out
}

func isotonicSSE(ys []float64) float64 {
	p := prefixIsotonic(ys)
	return p[len(p)-1]
}

// unimodalSSE fits a rise followed by a fall, choosing the split that
// minimizes the combined residual.
func unimodalSSE(ys []float64) float64 {
	n := len(ys)
	rise := prefixIsotonic(ys)
	rev := make([]float64, n)
	for i, y := range ys {
		rev[n-1-i] = y
	}
	fall := prefixIsotonic(rev)
	best := math.Min(rise[n-1], fall[n-1])
	for k := 0; k < n-1; k++ {
		// rise over ys[:k+1], fall over ys[k+1:]
		best = math.Min(best, rise[k]+fall[n-2-k])
	}
	return best
}

// polySSE is the residual of a least-squares polynomial fit of the given
// degree. Abscissae are centered and scaled before solving.
func polySSE(xs, ys []float64, degree int) float64 {
	n := len(xs)
	lo, hi := xs[0], xs[n-1]
	mid, half := (lo+hi)/2, (hi-lo)/2
	if half == 0 {
		half = 1
	}
	m := degree + 1
	a := make([][]float64, m)
	for i := range a {
		a[i] = make([]float64, m+1)
	}
	pow := make([]float64, 2*m-1)
	for k := range xs {
		u := (xs[k] - mid) / half
		p := 1.0
		for j := range pow {
			pow[j] = p
			p *= u
		}
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				a[i][j] += pow[i+j]
			}
			a[i][m] += pow[i] * ys[k]
		}
	}
	coef, ok := solve(a)
	if !ok {
		return math.Inf(1)
	}
	var sse float64
	for k := range xs {
		u := (xs[k] - mid) / half
		fit, p := 0.0, 1.0
		for _, c := range coef {
			fit += c * p
			p *= u
		}
		sse += (ys[k] - fit) * (ys[k] - fit)
	}
	return sse
}

// solve runs Gaussian elimination with partial pivoting on the augmented
// matrix a.
func solve(a [][]float64) ([]float64, bool) {
	m := len(a)
	for col := 0; col < m; col++ {
		piv := col
		for r := col + 1; r < m; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[piv][col]) {
				piv = r
			}
		}
		if math.Abs(a[piv][col]) < 1e-14 {
			return nil, false
		}
		a[col], a[piv] = a[piv], a[col]
		for r := col + 1; r < m; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= m; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}
	x := make([]float64, m)
	for r := m - 1; r >= 0; r-- {
		s := a[r][m]
		for c := r + 1; c < m; c++ {
			s -= a[r][c] * x[c]
		}
		x[r] = s / a[r][r]
	}
	return x, true
}
