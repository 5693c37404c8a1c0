// Package combinatorial implements sequences of integers and rationals that
// commonly appear in combinatorial contexts: Fibonacci, Lucas, Bernoulli,
// Bell, harmonic and Euler numbers, and the Fibonacci, Bernoulli and Bell
// polynomials.
//
// Importing the package registers fibonacci, lucas, bernoulli, bell,
// harmonic and euler with the sympy function registry. Each evaluates to an
// exact value when its index is a concrete integer in range and stays an
// unevaluated call otherwise:
//
//	f, _ := sympy.Call("fibonacci", sympy.N(10))          // 55
//	g, _ := sympy.Call("fibonacci", sympy.S("n"))         // fibonacci(n)
//	h := sympy.Sub(g, "n", sympy.N(10))                   // 55
//
// Computed terms are cached for the lifetime of the process. All functions
// are safe for concurrent use.
package combinatorial

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gswirski/sympy"
)

// ErrDomain is returned for indices outside a function's domain, such as a
// negative Bernoulli index.
var ErrDomain = errors.New("combinatorial: argument outside domain")

// Polynomial caches are kept in terms of this symbol and substituted with the
// caller's argument on the way out.
const canonicalName = "_x"

var canonical = sympy.S(canonicalName)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
	register()
}

// SetLogger installs the logger used for cache diagnostics. nil restores the
// no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

func log() *zap.Logger { return logger.Load() }

func domainError(fn string, args []sympy.Expr, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrDomain, sympy.Unevaluated(fn, args...), reason)
}

// substitute re-expresses a cached canonical polynomial in terms of x.
func substitute(poly, x sympy.Expr) sympy.Expr {
	return sympy.Sub(poly, canonicalName, x)
}

// integer reports the value of a concrete integer argument that fits in an
// int64. ok is false for symbols, non-integers and huge integers.
func integer(e sympy.Expr) (n int64, ok bool) {
	num, isNum := e.(*sympy.Num)
	if !isNum {
		return 0, false
	}
	return num.Int64()
}

func register() {
	sympy.Register(sympy.FuncDef{
		Name:    "fibonacci",
		Doc:     "Fibonacci number fibonacci(n) or Fibonacci polynomial fibonacci(n, x)",
		MinArgs: 1, MaxArgs: 2,
		Eval: evalFibonacci,
		TeX:  subscriptTeX("F"),
	})
	sympy.Register(sympy.FuncDef{
		Name:    "lucas",
		Doc:     "Lucas number lucas(n)",
		MinArgs: 1, MaxArgs: 1,
		Eval: evalLucas,
		TeX:  subscriptTeX("L"),
	})
	sympy.Register(sympy.FuncDef{
		Name:    "bernoulli",
		Doc:     "Bernoulli number bernoulli(n) or Bernoulli polynomial bernoulli(n, x)",
		MinArgs: 1, MaxArgs: 2,
		Eval: evalBernoulli,
		TeX:  subscriptTeX("B"),
	})
	sympy.Register(sympy.FuncDef{
		Name:    "bell",
		Doc:     "Bell number bell(n) or Bell polynomial bell(n, x)",
		MinArgs: 1, MaxArgs: 2,
		Eval: evalBell,
		TeX:  subscriptTeX("B"),
	})
	sympy.Register(sympy.FuncDef{
		Name:    "harmonic",
		Doc:     "Harmonic number harmonic(n) or generalized harmonic number harmonic(n, m)",
		MinArgs: 1, MaxArgs: 2,
		Eval: evalHarmonic,
		TeX: func(args []string) string {
			if len(args) == 2 {
				return "H_{" + args[0] + "," + args[1] + "}"
			}
			return "H_{" + args[0] + "}"
		},
	})
	sympy.Register(sympy.FuncDef{
		Name:    "euler",
		Doc:     "Euler number euler(n)",
		MinArgs: 1, MaxArgs: 1,
		Eval:  evalEuler,
		Evalf: evalfEuler,
		TeX:   subscriptTeX("E"),
	})
}

// subscriptTeX renders f(n) as S_{n} and f(n, x) as S_{n}\left(x\right).
func subscriptTeX(letter string) func(args []string) string {
	return func(args []string) string {
		s := letter + "_{" + args[0] + "}"
		if len(args) == 2 {
			s += "\\left(" + args[1] + "\\right)"
		}
		return s
	}
}
