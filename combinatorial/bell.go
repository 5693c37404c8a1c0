package combinatorial

import (
	"fmt"
	"math"
	"math/big"

	"go.uber.org/zap"

	"github.com/gswirski/sympy"
	"github.com/gswirski/sympy/internal/memo"
)

// bellNumbers uses B_n = Σ_{k=0}^{n-1} C(n-1, k) B_k.
var bellNumbers = memo.New([]*big.Int{big.NewInt(1), big.NewInt(1)},
	func(n int, prev []*big.Int) *big.Int {
		log().Debug("bell cache extended", zap.Int("n", n))
		s := big.NewInt(1)
		a := big.NewInt(1)
		t := new(big.Int)
		for k := 1; k < n; k++ {
			a.Mul(a, t.SetInt64(int64(n-k)))
			a.Quo(a, t.SetInt64(int64(k)))
			s.Add(s, t.Mul(a, prev[k]))
		}
		return s
	})

// bellPolys uses B_n(x) = x Σ_{k=1}^{n} C(n-1, k-1) B_{k-1}(x) in the
// canonical symbol.
var bellPolys = memo.New([]sympy.Expr{sympy.N(1), canonical},
	func(n int, prev []sympy.Expr) sympy.Expr {
		log().Debug("bell polynomial cache extended", zap.Int("n", n))
		terms := []sympy.Expr{sympy.N(1)}
		a := big.NewInt(1)
		t := new(big.Int)
		for k := 2; k <= n; k++ {
			a.Mul(a, t.SetInt64(int64(n-k+1)))
			a.Quo(a, t.SetInt64(int64(k-1)))
			terms = append(terms, sympy.MulOf(sympy.Int(a), prev[k-1]))
		}
		return sympy.Expand(sympy.MulOf(canonical, sympy.AddOf(terms...)))
	})

// BellNumber returns the number of partitions of an n-element set.
func BellNumber(n int) (*big.Int, error) {
	b, err := bellNumbers.Term(n)
	if err != nil {
		return nil, fmt.Errorf("%w: bell(%d): index must be non-negative", ErrDomain, n)
	}
	return new(big.Int).Set(b), nil
}

// BellPolynomial returns the Touchard polynomial B_n(x), expanded.
func BellPolynomial(n int, x sympy.Expr) (sympy.Expr, error) {
	p, err := bellPolys.Term(n)
	if err != nil {
		return nil, fmt.Errorf("%w: bell(%d, %s): index must be non-negative", ErrDomain, n, x)
	}
	return substitute(p, x), nil
}

// Bell is sympy.Call("bell", n).
func Bell(n sympy.Expr) (sympy.Expr, error) { return sympy.Call("bell", n) }

func evalBell(args []sympy.Expr) (sympy.Expr, error) {
	num, ok := args[0].(*sympy.Num)
	if !ok || !num.IsInteger() {
		return nil, nil
	}
	if num.IsNegative() {
		return nil, domainError("bell", args, "index must be non-negative")
	}
	n, ok := num.Int64()
	if !ok || n > math.MaxInt32 {
		return nil, nil
	}
	if len(args) == 2 {
		return BellPolynomial(int(n), args[1])
	}
	b, err := BellNumber(int(n))
	if err != nil {
		return nil, err
	}
	return sympy.Int(b), nil
}
