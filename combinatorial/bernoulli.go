package combinatorial

import (
	"fmt"
	"math"
	"math/big"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gswirski/sympy"
	"github.com/gswirski/sympy/internal/memo"
	"github.com/gswirski/sympy/internal/mpmath"
)

// DefaultBernoulliFloatThreshold is the largest index served from the
// recurrence cache. Larger indices are computed directly from ζ(n).
const DefaultBernoulliFloatThreshold = 500

var bernoulliFloatThreshold atomic.Int64

func init() { bernoulliFloatThreshold.Store(DefaultBernoulliFloatThreshold) }

// SetBernoulliFloatThreshold changes the index above which Bernoulli numbers
// bypass the cache. Values below zero are treated as zero.
func SetBernoulliFloatThreshold(n int) {
	if n < 0 {
		n = 0
	}
	bernoulliFloatThreshold.Store(int64(n))
}

// BernoulliFloatThreshold reports the current threshold.
func BernoulliFloatThreshold() int { return int(bernoulliFloatThreshold.Load()) }

// Even Bernoulli numbers split into three residue classes mod 6. Term j of
// class r holds B_{r+6j}; each term needs only earlier terms of its own class.
var bernoulliClasses = [3]*memo.Sequence[*big.Rat]{
	newBernoulliClass(0, big.NewRat(1, 1)),
	newBernoulliClass(2, big.NewRat(1, 6)),
	newBernoulliClass(4, big.NewRat(-1, 30)),
}

func newBernoulliClass(r int, seed *big.Rat) *memo.Sequence[*big.Rat] {
	return memo.New([]*big.Rat{seed}, func(j int, prev []*big.Rat) *big.Rat {
		n := r + 6*j
		log().Debug("bernoulli cache extended", zap.Int("n", n), zap.Int("class", r))
		return ramanujanStep(n, prev)
	})
}

// ramanujanStep computes B_n from Ramanujan's lacunary recurrence
//
//	C(n+3, n) B_n = A_n - Σ_{k=1}^{⌊n/6⌋} C(n+3, n-6k) B_{n-6k}
//
// with A_n = (n+3)/3 for n ≡ 0, 2 (mod 6) and -(n+3)/6 for n ≡ 4.
// prev[i] is B_{n mod 6 + 6i}.
func ramanujanStep(n int, prev []*big.Rat) *big.Rat {
	s := new(big.Rat)
	a := new(big.Int).Binomial(int64(n+3), int64(n-6))
	ar := new(big.Rat)
	num, den := new(big.Int), new(big.Int)
	for k := 1; k <= n/6; k++ {
		s.Add(s, ar.Mul(ar.SetInt(a), prev[len(prev)-k]))
		// C(n+3, n-6k-6) from C(n+3, n-6k)
		num.MulRange(int64(n-6*k-5), int64(n-6*k))
		den.MulRange(int64(6*k+4), int64(6*k+9))
		a.Mul(a, num)
		a.Quo(a, den)
	}
	var b *big.Rat
	if n%6 == 4 {
		b = big.NewRat(-int64(n+3), 6)
	} else {
		b = big.NewRat(int64(n+3), 3)
	}
	b.Sub(b, s)
	c := new(big.Rat).SetInt(new(big.Int).Binomial(int64(n+3), int64(n)))
	return b.Quo(b, c)
}

// BernoulliNumber returns B_n, with B_1 = -1/2.
func BernoulliNumber(n int) (*big.Rat, error) {
	switch {
	case n < 0:
		return nil, fmt.Errorf("%w: bernoulli(%d): index must be non-negative", ErrDomain, n)
	case n == 0:
		return big.NewRat(1, 1), nil
	case n == 1:
		return big.NewRat(-1, 2), nil
	case n%2 == 1:
		return new(big.Rat), nil
	case n > BernoulliFloatThreshold():
		log().Debug("bernoulli computed from zeta", zap.Int("n", n))
		p, q := mpmath.BernFrac(n)
		return new(big.Rat).SetFrac(p, q), nil
	}
	r := n % 6
	b, err := bernoulliClasses[r/2].Term((n - r) / 6)
	if err != nil {
		return nil, err
	}
	return new(big.Rat).Set(b), nil
}

// BernoulliHighWaterMark returns the largest index cached for the residue
// class (0, 2 or 4 mod 6), or -1 for any other class.
func BernoulliHighWaterMark(class int) int {
	if class != 0 && class != 2 && class != 4 {
		return -1
	}
	return class + 6*(bernoulliClasses[class/2].Len()-1)
}

// BernoulliPolynomial returns B_n(x) = Σ_{k=0}^{n} C(n, k) B_k x^(n-k).
func BernoulliPolynomial(n int, x sympy.Expr) (sympy.Expr, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: bernoulli(%d, %s): index must be non-negative", ErrDomain, n, x)
	}
	terms := make([]sympy.Expr, 0, n/2+2)
	binom := new(big.Int)
	for k := 0; k <= n; k++ {
		if k > 1 && k%2 == 1 {
			continue
		}
		b, err := BernoulliNumber(k)
		if err != nil {
			return nil, err
		}
		b.Mul(b, new(big.Rat).SetInt(binom.Binomial(int64(n), int64(k))))
		terms = append(terms, sympy.MulOf(sympy.Rat(b), sympy.PowOf(x, sympy.N(int64(n-k)))))
	}
	return sympy.AddOf(terms...), nil
}

// Bernoulli is sympy.Call("bernoulli", n).
func Bernoulli(n sympy.Expr) (sympy.Expr, error) { return sympy.Call("bernoulli", n) }

func evalBernoulli(args []sympy.Expr) (sympy.Expr, error) {
	num, ok := args[0].(*sympy.Num)
	if !ok {
		return nil, nil
	}
	if !num.IsInteger() || num.IsNegative() {
		return nil, domainError("bernoulli", args, "index must be a non-negative integer")
	}
	n, ok := num.Int64()
	if !ok || n > math.MaxInt32 {
		return nil, nil
	}
	if len(args) == 2 {
		return BernoulliPolynomial(int(n), args[1])
	}
	b, err := BernoulliNumber(int(n))
	if err != nil {
		return nil, err
	}
	return sympy.Rat(b), nil
}
