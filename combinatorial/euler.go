package combinatorial

import (
	"fmt"
	"math"
	"math/big"

	"go.uber.org/zap"

	"github.com/gswirski/sympy"
	"github.com/gswirski/sympy/internal/mpmath"
)

// EulerNumber returns the Euler (secant) number E_n: 1, 0, -1, 0, 5, ...
// Nothing is cached.
func EulerNumber(n int) (*big.Int, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: euler(%d): index must be non-negative", ErrDomain, n)
	}
	return mpmath.EulerNumber(n), nil
}

// EulerEvalf returns E_n rounded to prec bits.
func EulerEvalf(n int, prec uint) (*big.Float, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: euler(%d): index must be non-negative", ErrDomain, n)
	}
	log().Debug("euler evalf", zap.Int("n", n), zap.Uint("prec", prec))
	return mpmath.EulerFloat(n, prec), nil
}

// Euler is sympy.Call("euler", n).
func Euler(n sympy.Expr) (sympy.Expr, error) { return sympy.Call("euler", n) }

// eulerIndex accepts concrete non-negative integers only.
func eulerIndex(e sympy.Expr) (int, bool) {
	n, ok := integer(e)
	if !ok || n < 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func evalEuler(args []sympy.Expr) (sympy.Expr, error) {
	n, ok := eulerIndex(args[0])
	if !ok {
		return nil, nil
	}
	e, err := EulerNumber(n)
	if err != nil {
		return nil, err
	}
	return sympy.Int(e), nil
}

func evalfEuler(args []sympy.Expr, prec uint) (*big.Float, error) {
	n, ok := eulerIndex(args[0])
	if !ok {
		return nil, fmt.Errorf("%w: %s", sympy.ErrNotNumeric, sympy.Unevaluated("euler", args...))
	}
	return EulerEvalf(n, prec)
}
