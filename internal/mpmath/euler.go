package mpmath

import (
	"math"
	"math/big"
	"math/bits"
)

// Below this index, or when the requested precision would need too many
// β-series terms, EulerFloat rounds the exact value instead.
const (
	eulerSeriesMin   = 200
	eulerSeriesRatio = 16
)

// EulerNumber returns the n-th Euler (secant) number E_n exactly:
// 1, 0, -1, 0, 5, 0, -61, ... n must be non-negative.
//
// The zigzag number A_n is read off the n-th row of the Seidel–Entringer
// triangle and E_n = (-1)^(n/2)·A_n for even n.
func EulerNumber(n int) *big.Int {
	if n < 0 {
		panic("mpmath: EulerNumber of negative index")
	}
	if n%2 == 1 {
		return new(big.Int)
	}
	row := []*big.Int{big.NewInt(1)}
	for i := 1; i <= n; i++ {
		next := make([]*big.Int, i+1)
		next[0] = new(big.Int)
		for k := 1; k <= i; k++ {
			next[k] = new(big.Int).Add(next[k-1], row[i-k])
		}
		row = next
	}
	e := row[n]
	if (n/2)%2 == 1 {
		e.Neg(e)
	}
	return e
}

// EulerFloat returns E_n rounded to prec bits. Every call computes from
// scratch; nothing is shared between precisions or with EulerNumber.
//
// Large indices use
//
//	|E_n| = 2^(n+2) · n! · β(n+1) / π^(n+1)
//
// with the Dirichlet beta series β(s) = Σ (-1)^k (2k+1)^-s.
func EulerFloat(n int, prec uint) *big.Float {
	if n < 0 {
		panic("mpmath: EulerFloat of negative index")
	}
	if prec == 0 {
		prec = 53
	}
	if n%2 == 1 {
		return new(big.Float).SetPrec(prec)
	}
	wp := prec + 32 + 2*uint(bits.Len(uint(n)))
	if n < eulerSeriesMin || wp/uint(n+1) > eulerSeriesRatio {
		return new(big.Float).SetPrec(prec).SetInt(EulerNumber(n))
	}

	s := n + 1
	beta := new(big.Float).SetPrec(wp).SetInt64(1)
	one := new(big.Float).SetPrec(wp).SetInt64(1)
	kn := new(big.Int)
	exp := big.NewInt(int64(s))
	for k := int64(1); float64(s)*math.Log2(float64(2*k+1)) <= float64(wp)+1; k++ {
		kn.Exp(big.NewInt(2*k+1), exp, nil)
		t := new(big.Float).SetPrec(wp).SetInt(kn)
		t.Quo(one, t)
		if k%2 == 1 {
			beta.Sub(beta, t)
		} else {
			beta.Add(beta, t)
		}
	}

	x := beta.Mul(beta, new(big.Float).SetPrec(wp).SetInt(new(big.Int).MulRange(1, int64(n))))
	x.SetMantExp(x, n+2)
	x.Quo(x, PowFloat(Pi(wp+32), uint64(s), wp))
	if (n/2)%2 == 1 {
		x.Neg(x)
	}
	return new(big.Float).SetPrec(prec).Set(x)
}
