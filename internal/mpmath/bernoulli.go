package mpmath

import (
	"math"
	"math/big"
	"math/bits"
)

// Below this index BernFrac uses the exact Akiyama–Tanigawa algorithm; the
// ζ(n) series converges too slowly for small n.
const bernSeriesMin = 64

// BernFrac returns the n-th Bernoulli number as a reduced fraction p/q, with
// B_1 = -1/2. n must be non-negative.
//
// For even n the denominator is fixed by the von Staudt–Clausen theorem and
// the numerator is recovered by rounding
//
//	|B_n| = 2 · n! · ζ(n) / (2π)^n
//
// evaluated with enough bits to pin the integer p = B_n·q.
func BernFrac(n int) (p, q *big.Int) {
	switch {
	case n < 0:
		panic("mpmath: BernFrac of negative index")
	case n == 0:
		return big.NewInt(1), big.NewInt(1)
	case n == 1:
		return big.NewInt(-1), big.NewInt(2)
	case n%2 == 1:
		return big.NewInt(0), big.NewInt(1)
	case n < bernSeriesMin:
		r := akiyamaTanigawa(n)
		return new(big.Int).Set(r.Num()), new(big.Int).Set(r.Denom())
	}

	q = staudtDenominator(n)

	// log2 |B_n| ≈ 1 + log2(n!) - n·log2(2π); ζ(n) is 1 to working precision.
	lgf, _ := math.Lgamma(float64(n) + 1)
	lg := 1 + (lgf-float64(n)*math.Log(2*math.Pi))/math.Ln2
	prec := uint(math.Max(lg, 0)) + uint(q.BitLen()) + 64 + 2*uint(bits.Len(uint(n)))

	x := zeta(n, prec)
	x.Mul(x, new(big.Float).SetPrec(prec).SetInt(new(big.Int).MulRange(1, int64(n))))
	x.Mul(x, new(big.Float).SetPrec(prec).SetInt(q))
	x.SetMantExp(x, 1)

	twoPi := Pi(prec + 32)
	twoPi.SetMantExp(twoPi, 1)
	x.Quo(x, PowFloat(twoPi, uint64(n), prec))

	p = roundToInt(x)
	if n%4 == 0 {
		p.Neg(p)
	}
	return p, q
}

// zeta returns ζ(s) = Σ k^-s for an integer s ≥ 2 at prec bits. The series is
// only practical when prec/s is small, which holds for the large s BernFrac
// uses it with.
func zeta(s int, prec uint) *big.Float {
	sum := new(big.Float).SetPrec(prec).SetInt64(1)
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	kn := new(big.Int)
	exp := big.NewInt(int64(s))
	for k := int64(2); float64(s)*math.Log2(float64(k)) <= float64(prec)+1; k++ {
		kn.Exp(big.NewInt(k), exp, nil)
		t := new(big.Float).SetPrec(prec).SetInt(kn)
		sum.Add(sum, t.Quo(one, t))
	}
	return sum
}

// staudtDenominator returns the product of the primes p with (p-1) | n,
// the exact denominator of B_n for even n ≥ 2.
func staudtDenominator(n int) *big.Int {
	q := big.NewInt(1)
	cand := new(big.Int)
	try := func(d int) {
		if cand.SetInt64(int64(d) + 1).ProbablyPrime(0) {
			q.Mul(q, cand)
		}
	}
	for d := 1; d*d <= n; d++ {
		if n%d != 0 {
			continue
		}
		try(d)
		if e := n / d; e != d {
			try(e)
		}
	}
	return q
}

// akiyamaTanigawa returns B_n exactly in O(n^2) rational steps. It yields
// +1/2 for n = 1, which BernFrac never asks it for.
func akiyamaTanigawa(n int) *big.Rat {
	a := make([]*big.Rat, n+1)
	t := new(big.Rat)
	for m := 0; m <= n; m++ {
		a[m] = big.NewRat(1, int64(m+1))
		for j := m; j >= 1; j-- {
			t.Sub(a[j-1], a[j])
			a[j-1] = new(big.Rat).Mul(t, big.NewRat(int64(j), 1))
		}
	}
	return a[0]
}
