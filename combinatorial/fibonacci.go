package combinatorial

import (
	"math"
	"math/big"

	"go.uber.org/zap"

	"github.com/gswirski/sympy"
	"github.com/gswirski/sympy/internal/memo"
	"github.com/gswirski/sympy/internal/mpmath"
)

// Fibonacci polynomials in the canonical symbol. Index 0 is unused.
var fibonacciPolys = memo.New([]sympy.Expr{nil, sympy.N(1), canonical},
	func(n int, prev []sympy.Expr) sympy.Expr {
		log().Debug("fibonacci polynomial cache extended", zap.Int("n", n))
		return sympy.Expand(sympy.AddOf(prev[n-2], sympy.MulOf(canonical, prev[n-1])))
	})

// FibonacciNumber returns F_n for any integer n. Negative indices follow
// F_{-n} = (-1)^(n+1) F_n.
func FibonacciNumber(n int64) *big.Int {
	if n >= 0 {
		return mpmath.Fib(uint64(n))
	}
	f := mpmath.Fib(uint64(-n))
	if n%2 == 0 {
		f.Neg(f)
	}
	return f
}

// LucasNumber returns L_n = F_{n+1} + F_{n-1}.
func LucasNumber(n int64) *big.Int {
	f := FibonacciNumber(n + 1)
	return f.Add(f, FibonacciNumber(n-1))
}

// FibonacciPolynomial returns F_n(x) for n >= 1, expanded.
func FibonacciPolynomial(n int, x sympy.Expr) (sympy.Expr, error) {
	if n < 1 {
		return nil, domainError("fibonacci", []sympy.Expr{sympy.N(int64(n)), x}, "polynomial index must be positive")
	}
	p, err := fibonacciPolys.Term(n)
	if err != nil {
		return nil, err
	}
	return substitute(p, x), nil
}

// Fibonacci is sympy.Call("fibonacci", n).
func Fibonacci(n sympy.Expr) (sympy.Expr, error) { return sympy.Call("fibonacci", n) }

// Lucas is sympy.Call("lucas", n).
func Lucas(n sympy.Expr) (sympy.Expr, error) { return sympy.Call("lucas", n) }

func evalFibonacci(args []sympy.Expr) (sympy.Expr, error) {
	n, ok := integer(args[0])
	if !ok {
		return nil, nil
	}
	if len(args) == 1 {
		if n == math.MinInt64 {
			return nil, nil
		}
		return sympy.Int(FibonacciNumber(n)), nil
	}
	if n < 1 {
		return nil, domainError("fibonacci", args, "polynomial index must be positive")
	}
	if n > math.MaxInt32 {
		return nil, nil
	}
	return FibonacciPolynomial(int(n), args[1])
}

func evalLucas(args []sympy.Expr) (sympy.Expr, error) {
	n, ok := integer(args[0])
	if !ok || n == math.MinInt64 || n == math.MaxInt64 {
		return nil, nil
	}
	return sympy.Int(LucasNumber(n)), nil
}
