package sympy

import (
	"fmt"
	"math/big"

	"github.com/gswirski/sympy/internal/mpmath"
)

// DefaultPrec is the working precision Evalf uses when asked for 0 bits.
const DefaultPrec = 53

// Evalf evaluates e to prec bits. Function calls use their registered
// numeric evaluator when there is one, otherwise their exact value.
func Evalf(e Expr, prec uint) (*big.Float, error) {
	if prec == 0 {
		prec = DefaultPrec
	}
	switch v := e.(type) {
	case *Num:
		return new(big.Float).SetPrec(prec).SetRat(v.val), nil
	case *Add:
		acc := new(big.Float).SetPrec(prec)
		for _, t := range v.terms {
			x, err := Evalf(t, prec)
			if err != nil {
				return nil, err
			}
			acc.Add(acc, x)
		}
		return acc, nil
	case *Mul:
		acc := new(big.Float).SetPrec(prec).SetInt64(1)
		for _, f := range v.factors {
			x, err := Evalf(f, prec)
			if err != nil {
				return nil, err
			}
			acc.Mul(acc, x)
		}
		return acc, nil
	case *Pow:
		n, ok := v.exp.(*Num)
		if !ok || !n.IsInteger() {
			return nil, fmt.Errorf("%w: non-integer power %s", ErrNotNumeric, v)
		}
		e, ok := n.Int64()
		if !ok {
			return nil, fmt.Errorf("%w: exponent out of range in %s", ErrNotNumeric, v)
		}
		base, err := Evalf(v.base, prec)
		if err != nil {
			return nil, err
		}
		if e < 0 {
			if base.Sign() == 0 {
				return nil, fmt.Errorf("%w: division by zero in %s", ErrNotNumeric, v)
			}
			r := mpmath.PowFloat(base, uint64(-e), prec)
			return r.Quo(new(big.Float).SetPrec(prec).SetInt64(1), r), nil
		}
		return mpmath.PowFloat(base, uint64(e), prec), nil
	case *Func:
		if def, ok := Lookup(v.name); ok && def.Evalf != nil {
			args := make([]Expr, len(v.args))
			for i, a := range v.args {
				args[i] = a.Simplify()
			}
			return def.Evalf(args, prec)
		}
		if n, ok := v.Simplify().(*Num); ok {
			return Evalf(n, prec)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotNumeric, e)
}
